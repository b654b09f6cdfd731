package entities

import (
	"encoding/json"
	"strings"
)

// CompositeKey identifies a product line by wafer, specification and part name.
// Components are always stored in normalized form.
type CompositeKey struct {
	Wafer string `json:"wafer"`
	Spec  string `json:"spec"`
	Part  string `json:"part"`
}

// String renders the key for logs
func (k CompositeKey) String() string {
	return strings.Join([]string{k.Wafer, k.Spec, k.Part}, " | ")
}

// Complete reports whether every component is non-empty
func (k CompositeKey) Complete() bool {
	return k.Wafer != "" && k.Spec != "" && k.Part != ""
}

// FieldMap names the columns that carry the key components in one source
type FieldMap struct {
	Wafer string `yaml:"wafer" json:"wafer"`
	Spec  string `yaml:"spec" json:"spec"`
	Part  string `yaml:"part" json:"part"`
}

// Columns returns the key column names in wafer, spec, part order
func (f FieldMap) Columns() []string {
	return []string{f.Wafer, f.Spec, f.Part}
}

// IsZero reports whether no column is configured
func (f FieldMap) IsZero() bool {
	return f.Wafer == "" && f.Spec == "" && f.Part == ""
}

// KeySet is an insertion-ordered set of composite keys
type KeySet struct {
	keys  []CompositeKey
	index map[CompositeKey]struct{}
}

// NewKeySet creates a key set holding the given keys
func NewKeySet(keys ...CompositeKey) *KeySet {
	s := &KeySet{index: make(map[CompositeKey]struct{}, len(keys))}
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// Add inserts a key and reports whether it was new
func (s *KeySet) Add(k CompositeKey) bool {
	if s.index == nil {
		s.index = make(map[CompositeKey]struct{})
	}
	if _, ok := s.index[k]; ok {
		return false
	}
	s.index[k] = struct{}{}
	s.keys = append(s.keys, k)
	return true
}

// Contains reports whether the key is in the set
func (s *KeySet) Contains(k CompositeKey) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[k]
	return ok
}

// Len returns the number of keys
func (s *KeySet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Keys returns the keys in insertion order
func (s *KeySet) Keys() []CompositeKey {
	if s == nil {
		return nil
	}
	out := make([]CompositeKey, len(s.keys))
	copy(out, s.keys)
	return out
}

// Union adds every key of other to s
func (s *KeySet) Union(other *KeySet) {
	for _, k := range other.Keys() {
		s.Add(k)
	}
}

// Difference returns the keys of s that are not in other
func (s *KeySet) Difference(other *KeySet) *KeySet {
	out := NewKeySet()
	for _, k := range s.Keys() {
		if !other.Contains(k) {
			out.Add(k)
		}
	}
	return out
}

// MarshalJSON encodes the set as an ordered array
func (s *KeySet) MarshalJSON() ([]byte, error) {
	keys := s.Keys()
	if keys == nil {
		keys = []CompositeKey{}
	}
	return json.Marshal(keys)
}
