package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/bigredeye/pipemanifest/internal/config"
	lf "github.com/bigredeye/pipemanifest/internal/logfield"
	"github.com/bigredeye/pipemanifest/internal/manifest"
)

func makeStepCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Start and stop steps",
	}

	cmd.AddCommand(makeStepStartCommand(a))
	cmd.AddCommand(makeStepStopCommand(a))
	cmd.AddCommand(makeStepListCommand(a))
	return cmd
}

func makeStepStartCommand(a *app) *cobra.Command {
	var stepName string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a step",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.startStep(cmd, a.stepName(cmd, stepName))
		},
	}

	cmd.Flags().StringVarP(&stepName, "step-name", "s", config.DefaultStepName, "step name (env PIPELINE_STEP)")
	return cmd
}

func makeStepStopCommand(a *app) *cobra.Command {
	var stepName string
	var exitCode int

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop a step",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.stopStep(cmd, a.stepName(cmd, stepName), exitCode)
		},
	}

	cmd.Flags().StringVarP(&stepName, "step-name", "s", config.DefaultStepName, "step name (env PIPELINE_STEP)")
	cmd.Flags().IntVarP(&exitCode, "exit-code", "e", 0, "exit code (0 for success, 1-255 for error)")
	return cmd
}

func makeStepListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List steps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listSteps(cmd)
		},
	}
}

func (a *app) startStep(cmd *cobra.Command, name string) error {
	store, err := a.openStore(cmd)
	if err != nil {
		return err
	}

	store.StartStep(name)
	if err := store.Write(a.config.File); err != nil {
		return err
	}

	a.log.Info("Started step", lf.StepName(name))
	return nil
}

func (a *app) stopStep(cmd *cobra.Command, name string, code int) error {
	store, err := a.openStore(cmd)
	if err != nil {
		return err
	}

	if step := store.StopStep(name, code); step != nil {
		a.log.Info("Stopped step", lf.StepName(name), lf.ExitCode(code))
	}

	return store.Write(a.config.File)
}

func (a *app) listSteps(cmd *cobra.Command) error {
	store, err := a.openStore(cmd)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATUS\tCODE\tSTARTED\tDURATION\tARTIFACTS")
	for _, step := range store.ListSteps() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
			step.Name,
			stepState(&step),
			exitCode(step.Code),
			step.Start,
			units.HumanDuration(step.Duration),
			step.Artifacts,
		)
	}
	return w.Flush()
}

func stepState(step *manifest.StepSummary) string {
	if step.Running {
		return "running"
	}
	return "stopped"
}

func exitCode(code *int) string {
	if code == nil {
		return "-"
	}
	return strconv.Itoa(*code)
}
