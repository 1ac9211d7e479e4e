package main

import (
	"io"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/bigredeye/pipemanifest/internal/config"
	lf "github.com/bigredeye/pipemanifest/internal/logfield"
	"github.com/bigredeye/pipemanifest/internal/manifest"
	zlog "github.com/bigredeye/pipemanifest/pkg/log"
)

type app struct {
	v          *viper.Viper
	configPath string

	config *config.Config
	log    *zap.Logger
	// stderr receives log output, nil means os.Stderr.
	stderr io.Writer
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.ParseConfig(a.v, a.configPath)
	if err != nil {
		return err
	}
	a.config = cfg
	a.log = zlog.InitCLI(zlog.Options{
		Verbose: cfg.Log.Verbose,
		File:    cfg.Log.File,
		Output:  a.stderr,
	})
	a.log.Debug("Running command",
		lf.Command(cmd.CommandPath()),
		lf.ManifestFile(cfg.File),
	)
	return nil
}

func (a *app) openStore(cmd *cobra.Command) (*manifest.Store, error) {
	return manifest.Load(a.config.File,
		manifest.WithLogger(a.log),
		manifest.WithPipelineID(a.config.PipelineID),
		manifest.WithStdin(cmd.InOrStdin()),
	)
}

// stepName prefers an explicit --step-name over PIPELINE_STEP.
func (a *app) stepName(cmd *cobra.Command, value string) string {
	if cmd.Flags().Changed("step-name") {
		return value
	}
	return a.config.PipelineStep
}

func makeRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "manifest",
		Short:         "Queries and updates the CI pipeline step manifest",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringP("file", "f", config.DefaultFile, "manifest file (env MANIFEST_FILE)")
	flags.BoolP("verbose", "v", false, "increase output verbosity")
	flags.String("log-file", "", "also write logs to this file")
	flags.StringVar(&a.configPath, "config", "", "path to the config file")

	check(a.v.BindPFlag("file", flags.Lookup("file")))
	check(a.v.BindPFlag("log.verbose", flags.Lookup("verbose")))
	check(a.v.BindPFlag("log.file", flags.Lookup("log-file")))

	cmd.AddCommand(makeStepCommand(a))
	cmd.AddCommand(makeArtifactCommand(a))
	return cmd
}

// run executes one command and returns the process exit code. Every failure
// is reported with the same message.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{
		v:      viper.New(),
		log:    zlog.InitCLI(zlog.Options{Output: stderr}),
		stderr: stderr,
	}
	defer zlog.Sync()

	cmd := makeRootCommand(a)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		a.log.Error("operation failed", lf.Error(err))
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
