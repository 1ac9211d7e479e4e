package manifest

import (
	"bytes"
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	lf "github.com/bigredeye/pipemanifest/internal/logfield"
)

type Option interface {
	apply(s *Store)
}

type optionFunc func(s *Store)

func (f optionFunc) apply(s *Store) {
	f(s)
}

func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(s *Store) {
		s.logger = logger.With(lf.Module("manifest"))
	})
}

func WithClock(now func() time.Time) Option {
	return optionFunc(func(s *Store) {
		s.now = now
	})
}

// WithStdin sets the reader consulted for the "-" artifact name.
func WithStdin(stdin io.Reader) Option {
	return optionFunc(func(s *Store) {
		s.stdin = stdin
	})
}

// WithPipelineID sets the id recorded when a fresh manifest is created.
func WithPipelineID(id string) Option {
	return optionFunc(func(s *Store) {
		s.pipelineID = id
	})
}

// Store holds one manifest document in memory for the lifetime of a single
// invocation.
type Store struct {
	manifest *Manifest

	pipelineID string
	logger     *zap.Logger
	now        func() time.Time
	stdin      io.Reader
}

func newStore(options ...Option) *Store {
	s := &Store{
		logger: zap.NewNop(),
		now:    time.Now,
		stdin:  os.Stdin,
	}
	for _, option := range options {
		option.apply(s)
	}
	return s
}

// Load reads the manifest at path. A missing file yields a fresh manifest and
// its directory is created; a malformed one is replaced by a fresh manifest.
func Load(path string, options ...Option) (*Store, error) {
	s := newStore(options...)
	logger := s.logger.With(lf.ManifestFile(path))

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("Manifest not found, creating a new one", lf.PipelineID(s.pipelineID))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			logger.Error("Failed to create manifest directory", lf.Error(err))
			return nil, errors.Wrap(err, "Failed to create manifest directory")
		}
		s.manifest = newManifest(s.pipelineID)
		return s, nil
	}
	if err != nil {
		logger.Error("Failed to read manifest", lf.Error(err))
		return nil, errors.Wrap(err, "Failed to read manifest")
	}

	m, err := decode(data)
	if err != nil {
		logger.Warn("Malformed manifest, resetting to default", lf.Error(err))
		m = newManifest(s.pipelineID)
	}
	s.manifest = m

	logger.Debug("Loaded manifest", lf.PipelineID(m.PipelineID), zap.Int("num_steps", len(m.Steps)))
	return s, nil
}

func (s *Store) Manifest() *Manifest {
	return s.manifest
}

func (s *Store) timestamp() *Timestamp {
	ts := NewTimestamp(s.now())
	return &ts
}

func (s *Store) StartStep(name string) *Step {
	step := &Step{
		Name:   name,
		Status: &Status{Start: s.timestamp()},
	}
	s.manifest.Steps = append(s.manifest.Steps, step)

	s.logger.Debug("Started step", lf.StepName(name))
	return step
}

// StopStep stops the most recent running step with the given name. It returns
// nil and leaves the manifest untouched when no such step is running.
func (s *Store) StopStep(name string, code int) *Step {
	step := s.RunningStep(name, false)
	if step == nil {
		return nil
	}

	step.Status.Stop = s.timestamp()
	step.Status.Code = &code

	s.logger.Debug("Stopped step", lf.StepName(name), lf.ExitCode(code))
	return step
}

// RunningStep scans steps newest first for a running step named name. With
// fallback set, the most recent stopped step of that name is returned when
// none is running.
func (s *Store) RunningStep(name string, fallback bool) *Step {
	var stopped *Step

	steps := s.manifest.Steps
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		if step.Name != name {
			continue
		}
		if step.Running() {
			return step
		}
		if fallback && stopped == nil {
			stopped = step
		}
	}

	if stopped != nil {
		s.logger.Debug("No running step, using the most recent stopped one", lf.StepName(name))
		return stopped
	}

	s.logger.Warn("Failed to find a running step", lf.StepName(name))
	return nil
}

// AddArtifacts appends artifacts of type typ to the named step. A "-" in names
// is replaced by the whitespace separated words read from stdin.
func (s *Store) AddArtifacts(names []string, stepName, typ string) ([]Artifact, error) {
	step := s.RunningStep(stepName, true)
	if step == nil {
		s.logger.Error("Failed to find any steps", lf.StepName(stepName))
		return nil, &StepNotFoundError{Op: "artifact add", Step: stepName}
	}

	if typ == "" {
		typ = DefaultArtifactType
	}

	expanded, err := s.expandNames(names)
	if err != nil {
		return nil, err
	}

	added := make([]Artifact, 0, len(expanded))
	for _, name := range expanded {
		added = append(added, Artifact{Name: name, Type: typ})
	}
	step.Artifacts = append(step.Artifacts, added...)

	s.logger.Debug("Added artifacts",
		lf.StepName(stepName),
		lf.ArtifactType(typ),
		zap.Int("num_artifacts", len(added)),
	)
	return added, nil
}

func (s *Store) expandNames(names []string) ([]string, error) {
	result := make([]string, 0, len(names))
	readStdin := false
	for _, name := range names {
		if name == StdinSentinel {
			readStdin = true
			continue
		}
		result = append(result, name)
	}

	if !readStdin {
		return result, nil
	}

	data, err := io.ReadAll(s.stdin)
	if err != nil {
		s.logger.Error("Failed to read artifact names from stdin", lf.Error(err))
		return nil, errors.Wrap(err, "Failed to read artifact names from stdin")
	}
	return append(result, strings.Fields(string(data))...), nil
}

// Write serializes the manifest to path, replacing its contents.
func (s *Store) Write(path string) error {
	data, err := encode(s.manifest)
	if err != nil {
		s.logger.Error("Failed to encode manifest", lf.Error(err))
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		s.logger.Error("Failed writing manifest", lf.ManifestFile(path), lf.Error(err))
		return errors.Wrap(err, "Failed to write manifest")
	}

	s.logger.Debug("Wrote manifest", lf.ManifestFile(path), zap.Int("num_steps", len(s.manifest.Steps)))
	return nil
}

func encode(m *Manifest) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, errors.Wrap(err, "Failed to encode manifest")
	}
	return buf.Bytes(), nil
}
