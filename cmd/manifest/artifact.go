package main

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"github.com/bigredeye/pipemanifest/internal/config"
	lf "github.com/bigredeye/pipemanifest/internal/logfield"
	"github.com/bigredeye/pipemanifest/internal/manifest"
)

const (
	outputPlain = "plain"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func makeArtifactCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artifact",
		Short: "Add and list artifacts",
	}

	cmd.AddCommand(makeArtifactAddCommand(a))
	cmd.AddCommand(makeArtifactListCommand(a))
	return cmd
}

func makeArtifactAddCommand(a *app) *cobra.Command {
	var stepName string
	var typ string

	cmd := &cobra.Command{
		Use:   "add name|- [name|-...]",
		Short: "Add artifacts",
		Long:  "Add artifacts. Artifact names may be passed or read from stdin with '-'.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.addArtifacts(cmd, args, a.stepName(cmd, stepName), typ)
		},
	}

	cmd.Flags().StringVarP(&stepName, "step-name", "s", config.DefaultStepName, "step name (env PIPELINE_STEP)")
	cmd.Flags().StringVarP(&typ, "type", "t", manifest.DefaultArtifactType, "artifact type, e.g. 'file', 'docker', 'mvn'")
	return cmd
}

func makeArtifactListCommand(a *app) *cobra.Command {
	var filter manifest.ArtifactFilter
	var output string

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listArtifacts(cmd, filter, output)
		},
	}

	cmd.Flags().StringArrayVarP(&filter.StepNames, "step-name", "s", nil, "only show artifacts from step name (repeatable)")
	cmd.Flags().IntVarP(&filter.StepCount, "step-count", "c", 1, "include artifacts from up to <count> steps, 0 to consider all matching steps")
	cmd.Flags().StringArrayVarP(&filter.Types, "type", "t", nil, "only show artifacts of type (repeatable), e.g. 'file', 'docker', 'mvn'")
	cmd.Flags().StringVarP(&output, "output", "o", outputPlain, "output format: plain, json or yaml")
	return cmd
}

func (a *app) addArtifacts(cmd *cobra.Command, names []string, stepName, typ string) error {
	store, err := a.openStore(cmd)
	if err != nil {
		return err
	}

	added, err := store.AddArtifacts(names, stepName, typ)
	if err != nil {
		return err
	}

	if err := store.Write(a.config.File); err != nil {
		return err
	}

	a.log.Info("Added artifacts",
		lf.StepName(stepName),
		lf.ArtifactType(typ),
		zap.Int("num_artifacts", len(added)),
	)
	return nil
}

func (a *app) listArtifacts(cmd *cobra.Command, filter manifest.ArtifactFilter, output string) error {
	if filter.StepCount < 0 {
		return errors.Errorf("step count must not be negative, got %d", filter.StepCount)
	}

	store, err := a.openStore(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch output {
	case outputPlain:
		return store.WriteArtifacts(out, filter)
	case outputJSON:
		enc := json.NewEncoder(out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(store.ListArtifacts(filter)), "Failed to encode artifacts")
	case outputYAML:
		data, err := yaml.Marshal(store.ListArtifacts(filter))
		if err != nil {
			return errors.Wrap(err, "Failed to encode artifacts")
		}
		_, err = fmt.Fprint(out, string(data))
		return err
	default:
		return errors.Errorf("unknown output format %q", output)
	}
}
