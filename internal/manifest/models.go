package manifest

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	DefaultArtifactType = "file"
	StdinSentinel       = "-"

	timestampLayout = "2006-01-02T15:04:05.000"
)

// Timestamp is a local wall-clock time with millisecond precision, encoded
// without a zone suffix.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.Local().Truncate(time.Millisecond)}
}

func (t Timestamp) String() string {
	return t.Time.Format(timestampLayout)
}

func (t Timestamp) Equal(other Timestamp) bool {
	return t.Time.Equal(other.Time)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var buf string
	if err := json.Unmarshal(data, &buf); err != nil {
		return errors.Wrap(err, "timestamp is not a string")
	}
	buf = strings.TrimSpace(buf)

	tt, err := time.ParseInLocation(timestampLayout, buf, time.Local)
	if err != nil {
		// Accept zoned timestamps written by other tools.
		tt, err = time.Parse(time.RFC3339Nano, buf)
		if err != nil {
			return errors.Errorf("malformed timestamp %q", buf)
		}
	}
	*t = NewTimestamp(tt)
	return nil
}

func (t Timestamp) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// Extra on each record holds fields this tool does not know about, so that
// annotations left by other pipeline tools survive a rewrite.

type Artifact struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`

	Extra Extras `json:"-" yaml:"-"`
}

type Status struct {
	Start *Timestamp `json:"start" yaml:"start"`
	Stop  *Timestamp `json:"stop" yaml:"stop"`
	Code  *int       `json:"code" yaml:"code"`

	Extra Extras `json:"-" yaml:"-"`
}

type Step struct {
	Name      string     `json:"name" yaml:"name"`
	Status    *Status    `json:"status" yaml:"status"`
	Artifacts []Artifact `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`

	Extra Extras `json:"-" yaml:"-"`
}

func (s *Step) Running() bool {
	return s.Status.Stop == nil
}

// Duration is measured up to now while the step is still running.
func (s *Step) Duration(now time.Time) time.Duration {
	end := now
	if s.Status.Stop != nil {
		end = s.Status.Stop.Time
	}
	return end.Sub(s.Status.Start.Time)
}

type Manifest struct {
	PipelineID string  `json:"pipeline_id" yaml:"pipeline_id"`
	Steps      []*Step `json:"steps" yaml:"steps"`

	Extra Extras `json:"-" yaml:"-"`
}

func newManifest(pipelineID string) *Manifest {
	return &Manifest{
		PipelineID: pipelineID,
		Steps:      []*Step{},
	}
}

func (m *Manifest) validate() error {
	if m.Steps == nil {
		return errors.New("missing steps")
	}
	for i, step := range m.Steps {
		if step == nil {
			return errors.Errorf("step #%d is null", i)
		}
		// Empty step and artifact names are legal, the CLI writes them as given.
		if step.Status == nil || step.Status.Start == nil {
			return errors.Errorf("step #%d (%q) has no start time", i, step.Name)
		}
	}
	return nil
}

func decode(data []byte) (*Manifest, error) {
	m := &Manifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, errors.Wrap(err, "Failed to decode manifest")
	}
	if err := m.validate(); err != nil {
		return nil, errors.Wrap(err, "Invalid manifest")
	}
	return m, nil
}
