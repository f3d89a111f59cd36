// Package field implements the declarative JSON-field descriptor runtime:
// a record type declares its fields once, as a Set of Descriptors, and that
// Set drives both unmarshalling (JSON → typed values) and marshalling
// (typed values → JSON), honoring per-field defaults and omit-empty.
//
// Descriptor sets compose across "inheritance": a derived record's Set is
// the union of its own Descriptors and its bases', via Set.Merge.
package field

import "reflect"

// Descriptor associates one logical field with its external JSON key, an
// optional unmarshal/marshal transform, a default value, and an omit-empty
// flag honored during marshal.
type Descriptor struct {
	// Name is the internal (Go-side) identifier for this field.
	Name string
	// Key is the external JSON key.
	Key string
	// UnmarshalFn transforms the raw decoded JSON value into the stored
	// value. A nil UnmarshalFn passes the value through unchanged.
	UnmarshalFn func(v any) (any, error)
	// MarshalFn is the inverse of UnmarshalFn. A nil MarshalFn passes the
	// value through unchanged.
	MarshalFn func(v any) (any, error)
	// Default is assigned when the key is missing from the input, or when
	// UnmarshalFn returns an error, and setDefault is requested.
	Default any
	// OmitEmpty skips the field entirely during marshal when its value is
	// absent, nil, or deeply equal to Default.
	OmitEmpty bool
}

// Set is an ordered collection of Descriptors for one record type.
type Set []Descriptor

// Merge returns a new Set containing s's own Descriptors followed by each
// base Set's Descriptors not already named in s (a derived field shadows a
// base field of the same Name), implementing descriptor inheritance.
func (s Set) Merge(bases ...Set) Set {
	seen := make(map[string]struct{}, len(s))
	out := make(Set, 0, len(s))
	for _, d := range s {
		seen[d.Name] = struct{}{}
		out = append(out, d)
	}
	for _, base := range bases {
		for _, d := range base {
			if _, ok := seen[d.Name]; ok {
				continue
			}
			seen[d.Name] = struct{}{}
			out = append(out, d)
		}
	}
	return out
}

// Unmarshal walks data (a decoded JSON object) applying each Descriptor in
// order, producing a map keyed by Descriptor.Name. When a key is missing
// from data or UnmarshalFn errors, the field is assigned Default when
// setDefault is true; otherwise it is left absent from the result.
func (s Set) Unmarshal(data map[string]any, setDefault bool) map[string]any {
	out := make(map[string]any, len(s))
	for _, d := range s {
		raw, ok := data[d.Key]
		if !ok {
			if setDefault {
				out[d.Name] = d.Default
			}
			continue
		}
		if d.UnmarshalFn == nil {
			out[d.Name] = raw
			continue
		}
		v, err := d.UnmarshalFn(raw)
		if err != nil {
			if setDefault {
				out[d.Name] = d.Default
			}
			continue
		}
		out[d.Name] = v
	}
	return out
}

// Marshal is the inverse of Unmarshal: it walks values (keyed by
// Descriptor.Name) and produces a JSON-ready map keyed by Descriptor.Key,
// honoring OmitEmpty and silently skipping a field whose MarshalFn errors.
func (s Set) Marshal(values map[string]any) map[string]any {
	out := make(map[string]any, len(s))
	for _, d := range s {
		v, present := values[d.Name]
		if d.OmitEmpty && (!present || v == nil || reflect.DeepEqual(v, d.Default)) {
			continue
		}
		if !present || v == nil {
			out[d.Key] = v
			continue
		}
		if d.MarshalFn == nil {
			out[d.Key] = v
			continue
		}
		mv, err := d.MarshalFn(v)
		if err != nil {
			continue
		}
		if mv == nil && d.OmitEmpty {
			continue
		}
		out[d.Key] = mv
	}
	return out
}
