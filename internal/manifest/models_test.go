package manifest

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimestampFormat(t *testing.T) {
	ts := NewTimestamp(time.Date(2023, 7, 20, 20, 17, 40, 123456789, time.Local))

	data, err := json.Marshal(ts)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"2023-07-20T20:17:40.123"` {
		t.Fatalf("Unexpected timestamp encoding %s", data)
	}
}

func TestTimestampParsing(t *testing.T) {
	expected := time.Date(2023, 7, 20, 20, 17, 40, 123000000, time.UTC)

	for _, input := range []string{
		`"2023-07-20T20:17:40.123Z"`,
		`"2023-07-20T22:17:40.123+02:00"`,
		`" 2023-07-20T20:17:40.123456Z "`,
	} {
		var ts Timestamp
		if err := json.Unmarshal([]byte(input), &ts); err != nil {
			t.Fatalf("Failed to parse %s: %v", input, err)
		}
		if !ts.Time.Equal(expected) {
			t.Fatalf("Unexpected time for %s: %s", input, ts.Time)
		}
	}

	var local Timestamp
	if err := json.Unmarshal([]byte(`"2023-07-20T20:17:40.123"`), &local); err != nil {
		t.Fatal(err)
	}
	if local.Location() != time.Local || local.Nanosecond() != 123000000 {
		t.Fatalf("Unexpected local timestamp %s", local.Time)
	}

	for _, input := range []string{`"20-07-2023"`, `12345`, `""`} {
		var ts Timestamp
		if err := json.Unmarshal([]byte(input), &ts); err == nil {
			t.Fatalf("Expected %s to be rejected", input)
		}
	}
}

func TestValidate(t *testing.T) {
	start := NewTimestamp(time.Now())

	for _, m := range []*Manifest{
		{Steps: []*Step{}},
		{Steps: []*Step{{Name: "build", Status: &Status{Start: &start}}}},
		{Steps: []*Step{{Status: &Status{Start: &start}}}},
		{Steps: []*Step{{Name: "build", Status: &Status{Start: &start}, Artifacts: []Artifact{{Type: "file"}}}}},
	} {
		if err := m.validate(); err != nil {
			t.Fatalf("Unexpected validation error for %+v: %v", m, err)
		}
	}

	for _, m := range []*Manifest{
		{},
		{Steps: []*Step{nil}},
		{Steps: []*Step{{Name: "build", Status: &Status{}}}},
		{Steps: []*Step{{Name: "build"}}},
	} {
		if err := m.validate(); err == nil {
			t.Fatalf("Expected %+v to be invalid", m)
		}
	}
}

func TestUnknownFieldsSurviveRewrite(t *testing.T) {
	const input = `{
  "pipeline_id": "1",
  "steps": [
    {
      "name": "build",
      "status": {
        "start": "2023-01-02T15:04:05.123",
        "stop": null,
        "code": null,
        "runner": "docker-01"
      },
      "artifacts": [
        {
          "name": "app<1>.tar.gz",
          "type": "file",
          "sha256": "abc",
          "size": 42
        }
      ],
      "attempt": 2,
      "labels": {
        "os": "linux"
      }
    }
  ],
  "trigger": "push"
}
`
	m, err := decode([]byte(input))
	if err != nil {
		t.Fatal("Failed to decode manifest:", err)
	}
	if string(m.Extra["trigger"]) != `"push"` || string(m.Steps[0].Extra["attempt"]) != "2" {
		t.Fatalf("Unexpected extras %v, %v", m.Extra, m.Steps[0].Extra)
	}
	if len(m.Steps[0].Artifacts[0].Extra) != 2 || len(m.Steps[0].Status.Extra) != 1 {
		t.Fatal("Nested extras were lost")
	}

	data, err := encode(m)
	if err != nil {
		t.Fatal("Failed to encode manifest:", err)
	}
	if string(data) != input {
		t.Fatalf("Unexpected rewrite:\n%s", data)
	}
}

func TestKnownFieldsHaveNoExtras(t *testing.T) {
	m, err := decode([]byte(`{"pipeline_id": "", "steps": [{"name": "", "status": {"start": "2023-01-02T15:04:05.123", "stop": null, "code": null}, "artifacts": [{"name": "", "type": "file"}]}]}`))
	if err != nil {
		t.Fatal("Empty names must be accepted:", err)
	}
	if m.Extra != nil || m.Steps[0].Extra != nil || m.Steps[0].Status.Extra != nil || m.Steps[0].Artifacts[0].Extra != nil {
		t.Fatal("Known fields must not be reported as extras")
	}
}
