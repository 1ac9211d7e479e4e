package manifest

import (
	"bytes"
	"encoding/json"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Extras maps unknown object keys to their raw JSON values.
type Extras map[string]json.RawMessage

// marshalRaw is json.Marshal without HTML escaping.
func marshalRaw(v interface{}) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// splitExtras returns the members of the object in data whose keys are not in
// known, or nil when there are none.
func splitExtras(data []byte, known ...string) (Extras, error) {
	all := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, key := range known {
		delete(all, key)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// joinExtras appends extra members, sorted by key, to the encoded object base.
func joinExtras(base []byte, extra Extras) ([]byte, error) {
	if len(extra) == 0 {
		return base, nil
	}

	keys := maps.Keys(extra)
	slices.Sort(keys)

	out := append([]byte{}, base[:len(base)-1]...)
	for _, key := range keys {
		encodedKey, err := marshalRaw(key)
		if err != nil {
			return nil, err
		}
		if len(out) > 1 {
			out = append(out, ',')
		}
		out = append(out, encodedKey...)
		out = append(out, ':')
		out = append(out, extra[key]...)
	}
	return append(out, '}'), nil
}

func (m Manifest) MarshalJSON() ([]byte, error) {
	type plain Manifest
	base, err := marshalRaw(plain(m))
	if err != nil {
		return nil, err
	}
	return joinExtras(base, m.Extra)
}

func (m *Manifest) UnmarshalJSON(data []byte) error {
	type plain Manifest
	if err := json.Unmarshal(data, (*plain)(m)); err != nil {
		return err
	}
	extra, err := splitExtras(data, "pipeline_id", "steps")
	m.Extra = extra
	return err
}

func (s Step) MarshalJSON() ([]byte, error) {
	type plain Step
	base, err := marshalRaw(plain(s))
	if err != nil {
		return nil, err
	}
	return joinExtras(base, s.Extra)
}

func (s *Step) UnmarshalJSON(data []byte) error {
	type plain Step
	if err := json.Unmarshal(data, (*plain)(s)); err != nil {
		return err
	}
	extra, err := splitExtras(data, "name", "status", "artifacts")
	s.Extra = extra
	return err
}

func (s Status) MarshalJSON() ([]byte, error) {
	type plain Status
	base, err := marshalRaw(plain(s))
	if err != nil {
		return nil, err
	}
	return joinExtras(base, s.Extra)
}

func (s *Status) UnmarshalJSON(data []byte) error {
	type plain Status
	if err := json.Unmarshal(data, (*plain)(s)); err != nil {
		return err
	}
	extra, err := splitExtras(data, "start", "stop", "code")
	s.Extra = extra
	return err
}

func (a Artifact) MarshalJSON() ([]byte, error) {
	type plain Artifact
	base, err := marshalRaw(plain(a))
	if err != nil {
		return nil, err
	}
	return joinExtras(base, a.Extra)
}

func (a *Artifact) UnmarshalJSON(data []byte) error {
	type plain Artifact
	if err := json.Unmarshal(data, (*plain)(a)); err != nil {
		return err
	}
	extra, err := splitExtras(data, "name", "type")
	a.Extra = extra
	return err
}
