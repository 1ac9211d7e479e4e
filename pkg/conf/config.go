package conf

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Option interface {
	apply(p *parser)
}

type parser struct {
	v          *viper.Viper
	envPrefix  string
	configPath string
}

type envPrefix struct {
	prefix string
}

func (p *envPrefix) apply(ps *parser) {
	ps.envPrefix = p.prefix
}

func EnvPrefix(prefix string) Option {
	return &envPrefix{prefix}
}

type configFile struct {
	path string
}

func (f *configFile) apply(ps *parser) {
	ps.configPath = f.path
}

// ConfigFile makes ParseConfig read path before applying env overrides.
// An empty path is ignored.
func ConfigFile(path string) Option {
	return &configFile{path}
}

type useViper struct {
	v *viper.Viper
}

func (u *useViper) apply(ps *parser) {
	ps.v = u.v
}

// Viper replaces the global viper instance, e.g. one with command line flags
// already bound.
func Viper(v *viper.Viper) Option {
	return &useViper{v}
}

// https://github.com/spf13/viper/issues/188#issuecomment-399884438
//
// Fields may carry `env:"NAME"` to bind a fixed variable name instead of the
// prefixed key, and `default:"value"` to set a default.
func bindEnvs(v *viper.Viper, iface interface{}, parts ...string) error {
	ifv := reflect.ValueOf(iface)
	ift := reflect.TypeOf(iface)

	if ifv.Kind() == reflect.Ptr {
		return bindEnvs(v, ifv.Elem().Interface(), parts...)
	}

	for i := 0; i < ift.NumField(); i++ {
		field := ifv.Field(i)
		t := ift.Field(i)
		name, ok := t.Tag.Lookup("mapstructure")
		if !ok {
			name = t.Name
		}
		if field.Kind() == reflect.Struct {
			if err := bindEnvs(v, field.Interface(), append(parts, name)...); err != nil {
				return err
			}
			continue
		}

		key := strings.Join(append(parts, name), ".")
		if value, ok := t.Tag.Lookup("default"); ok {
			v.SetDefault(key, value)
		}

		input := []string{key}
		if env, ok := t.Tag.Lookup("env"); ok {
			input = append(input, env)
		}
		if err := v.BindEnv(input...); err != nil {
			return errors.Wrapf(err, "Failed to bind env for %s", key)
		}
	}
	return nil
}

func ParseConfig(config interface{}, options ...Option) error {
	p := &parser{v: viper.GetViper()}
	for _, option := range options {
		option.apply(p)
	}
	if len(p.envPrefix) > 0 {
		p.v.SetEnvPrefix(p.envPrefix)
	}
	p.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if len(p.configPath) > 0 {
		p.v.SetConfigFile(p.configPath)
		if err := p.v.ReadInConfig(); err != nil {
			return errors.Wrap(err, "Failed to load config")
		}
	}

	if err := bindEnvs(p.v, config); err != nil {
		return err
	}

	if err := p.v.Unmarshal(config); err != nil {
		return errors.Wrap(err, "Failed to unmarshal config")
	}

	return nil
}
