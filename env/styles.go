package env

import (
	"encoding/json"

	"github.com/nml-lang/nml/diag"
	"github.com/nml-lang/nml/source"
)

// Schema validates the raw JSON value set for one style key against
// the schema its owning element kind declared (§4.3: "Each element
// kind declares its schema; unknown keys produce warnings").
type Schema struct {
	// Known lists the keys this style record accepts.
	Known map[string]bool
}

// Styles is the mapping style_key -> json value, layered over
// defaults, for one document (§3 "Style key", §6 "Style keys").
type Styles struct {
	values  map[string]json.RawMessage
	schemas map[string]Schema
}

// NewStyles creates an empty style environment.
func NewStyles() *Styles {
	return &Styles{
		values:  make(map[string]json.RawMessage),
		schemas: make(map[string]Schema),
	}
}

// RegisterSchema declares the accepted keys for a dotted style key
// prefix, e.g. "style.section". No package in this module calls it,
// so Set accepts every key unchecked unless a caller registers one.
func (s *Styles) RegisterSchema(keyPrefix string, known ...string) {
	set := make(map[string]bool, len(known))
	for _, k := range known {
		set[k] = true
	}

	s.schemas[keyPrefix] = Schema{Known: set}
}

// Set applies an "@@style.key = { ...json... }" override (§4.2
// "Styles"). It validates raw against the schema registered for key,
// if any, and returns a diagnostic for unknown keys rather than
// failing the set.
func (s *Styles) Set(key string, raw json.RawMessage, rng source.Span, bag *diag.Bag) error {
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}

	if schema, ok := s.schemas[key]; ok {
		for field := range decoded {
			if !schema.Known[field] {
				bag.Errorf(diag.Semantic, rng, "unknown style key %q for %q", field, key)
			}
		}
	}

	s.values[key] = raw

	return nil
}

// Import merges other into s. If prefix is non-empty, every imported
// key is exposed as "prefix.key" (§4.2 "Imports", mirroring Vars.Import).
func (s *Styles) Import(other *Styles, prefix string) {
	for key, val := range other.values {
		target := key
		if prefix != "" {
			target = prefix + "." + key
		}

		s.values[target] = val
	}
}

// Get returns the raw JSON value set for key, if any.
func (s *Styles) Get(key string) (json.RawMessage, bool) {
	val, ok := s.values[key]
	return val, ok
}

// Decode unmarshals the style set for key into dst, a pointer to a
// struct matching the element kind's schema.
func (s *Styles) Decode(key string, dst any) (bool, error) {
	raw, ok := s.values[key]
	if !ok {
		return false, nil
	}

	return true, json.Unmarshal(raw, dst)
}
