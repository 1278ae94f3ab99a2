package types

import (
	"encoding/json"
	"fmt"
	"maps"
)

// FixRecord is one bug-fix entry of the input file. Fields the finder does
// not know about are kept and written back untouched.
type FixRecord struct {
	RepoName           string
	FixCommitHash      string
	InducingCommitHash []string

	fields map[string]json.RawMessage
}

func (r *FixRecord) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	if err := decodeRequired(fields, "repo_name", &r.RepoName); err != nil {
		return err
	}
	if err := decodeRequired(fields, "fix_commit_hash", &r.FixCommitHash); err != nil {
		return err
	}
	if raw, ok := fields["inducing_commit_hash"]; ok {
		if err := json.Unmarshal(raw, &r.InducingCommitHash); err != nil {
			return fmt.Errorf("invalid inducing_commit_hash: %w", err)
		}
	}

	r.fields = fields
	return nil
}

func (r FixRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.fields)+3)
	for k, v := range r.fields {
		out[k] = v
	}
	out["repo_name"] = r.RepoName
	out["fix_commit_hash"] = r.FixCommitHash

	inducing := r.InducingCommitHash
	if inducing == nil {
		inducing = []string{}
	}
	out["inducing_commit_hash"] = inducing

	return json.Marshal(out)
}

// StringField returns a string-valued input field such as an issue date.
func (r FixRecord) StringField(name string) (string, bool) {
	raw, ok := r.fields[name]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}

// WithField returns a copy of r carrying an extra raw field.
func (r FixRecord) WithField(name string, value any) (FixRecord, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return r, err
	}
	r.fields = maps.Clone(r.fields)
	if r.fields == nil {
		r.fields = make(map[string]json.RawMessage)
	}
	r.fields[name] = raw
	return r, nil
}

func decodeRequired(fields map[string]json.RawMessage, name string, dst *string) error {
	raw, ok := fields[name]
	if !ok {
		return fmt.Errorf("missing required field %q", name)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if *dst == "" {
		return fmt.Errorf("empty required field %q", name)
	}
	return nil
}
