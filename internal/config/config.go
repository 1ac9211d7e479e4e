package config

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/bigredeye/pipemanifest/pkg/conf"
)

const (
	DefaultFile     = "./manifest.json"
	DefaultStepName = "default"
)

type Config struct {
	File         string `mapstructure:"file" env:"MANIFEST_FILE" default:"./manifest.json"`
	PipelineID   string `mapstructure:"pipeline_id" env:"PIPELINE_ID"`
	PipelineStep string `mapstructure:"pipeline_step" env:"PIPELINE_STEP" default:"default"`

	Log struct {
		Verbose bool   `mapstructure:"verbose"`
		File    string `mapstructure:"file"`
	} `mapstructure:"log"`
}

// ParseConfig merges, from lowest to highest priority, defaults, the optional
// config file, the environment and the flags already bound to v.
func ParseConfig(v *viper.Viper, configPath string) (*Config, error) {
	config := &Config{}
	err := conf.ParseConfig(config,
		conf.Viper(v),
		conf.EnvPrefix("MANIFEST"),
		conf.ConfigFile(configPath),
	)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to parse config")
	}
	return config, nil
}
