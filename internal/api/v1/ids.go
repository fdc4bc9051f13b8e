package api

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/mantamatcher/catalogcore/internal/consolidation"
	"github.com/mantamatcher/catalogcore/internal/errors"
)

// FlexibleID is a JSON identifier that may arrive as a number, a numeric
// string, null, or not at all.
type FlexibleID struct {
	raw     json.RawMessage
	present bool
}

// UnmarshalJSON records the raw value; parsing happens in Int64.
func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	f.present = true
	f.raw = append(f.raw[:0], b...)
	return nil
}

// Present reports whether the field appeared in the body.
func (f FlexibleID) Present() bool { return f.present }

// IsNull reports an explicit JSON null.
func (f FlexibleID) IsNull() bool {
	return f.present && bytes.Equal(bytes.TrimSpace(f.raw), []byte("null"))
}

// Int64 parses a required id.
func (f FlexibleID) Int64(name string) (int64, error) {
	if !f.present || f.IsNull() {
		return consolidation.ParseID(name, "")
	}

	dec := json.NewDecoder(bytes.NewReader(f.raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, invalidID(name, string(f.raw))
	}
	switch t := v.(type) {
	case json.Number:
		return consolidation.ParseID(name, t.String())
	case string:
		return consolidation.ParseID(name, t)
	default:
		return 0, invalidID(name, string(f.raw))
	}
}

// OptionalInt64 parses an id where explicit null means "none". An absent
// field is still an error.
func (f FlexibleID) OptionalInt64(name string) (*int64, error) {
	if f.IsNull() {
		return nil, nil
	}
	if !f.present {
		return nil, errors.Newf("%s is required; send null to clear", name).
			Component("api").
			Category(errors.CategoryValidation).
			Context("reason", consolidation.ReasonMissingID).
			Build()
	}
	id, err := f.Int64(name)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func invalidID(name, raw string) error {
	return errors.Newf("%s must be an integer, got %s", name, strings.TrimSpace(raw)).
		Component("api").
		Category(errors.CategoryValidation).
		Context("reason", consolidation.ReasonInvalidID).
		Build()
}
