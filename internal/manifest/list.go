package manifest

import (
	"fmt"
	"io"
	"time"

	"golang.org/x/exp/slices"
)

// ArtifactFilter selects artifacts for listing. Empty Types or StepNames match
// everything; StepCount of zero means no limit.
type ArtifactFilter struct {
	Types     []string
	StepNames []string
	StepCount int
}

type ListedArtifact struct {
	Step string `json:"step" yaml:"step"`
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

func (f *ArtifactFilter) matchStep(step *Step) bool {
	return len(f.StepNames) == 0 || slices.Contains(f.StepNames, step.Name)
}

func (f *ArtifactFilter) matchArtifact(artifact *Artifact) bool {
	return len(f.Types) == 0 || slices.Contains(f.Types, artifact.Type)
}

// ListArtifacts visits steps newest first and keeps artifacts in insertion
// order within a step. Only steps that contribute at least one artifact count
// towards StepCount.
func (s *Store) ListArtifacts(filter ArtifactFilter) []ListedArtifact {
	result := []ListedArtifact{}
	considered := 0

	steps := s.manifest.Steps
	for i := len(steps) - 1; i >= 0; i-- {
		if filter.StepCount > 0 && considered >= filter.StepCount {
			break
		}

		step := steps[i]
		if !filter.matchStep(step) || len(step.Artifacts) == 0 {
			continue
		}

		matched := false
		for j := range step.Artifacts {
			artifact := &step.Artifacts[j]
			if !filter.matchArtifact(artifact) {
				continue
			}
			matched = true
			result = append(result, ListedArtifact{
				Step: step.Name,
				Name: artifact.Name,
				Type: artifact.Type,
			})
		}
		if matched {
			considered++
		}
	}

	return result
}

// WriteArtifacts prints the names of the listed artifacts one per line.
func (s *Store) WriteArtifacts(w io.Writer, filter ArtifactFilter) error {
	for _, artifact := range s.ListArtifacts(filter) {
		if _, err := fmt.Fprintln(w, artifact.Name); err != nil {
			return err
		}
	}
	return nil
}

type StepSummary struct {
	Name      string
	Running   bool
	Code      *int
	Start     Timestamp
	Duration  time.Duration
	Artifacts int
}

// ListSteps summarizes steps in creation order.
func (s *Store) ListSteps() []StepSummary {
	now := s.now()
	result := make([]StepSummary, 0, len(s.manifest.Steps))
	for _, step := range s.manifest.Steps {
		result = append(result, StepSummary{
			Name:      step.Name,
			Running:   step.Running(),
			Code:      step.Status.Code,
			Start:     *step.Status.Start,
			Duration:  step.Duration(now),
			Artifacts: len(step.Artifacts),
		})
	}
	return result
}
