package domain

import "strconv"

// Record represents a single keyed record in a collection
type Record map[string]interface{}

// Collection represents an ordered sequence of records
type Collection []Record

// IntKey returns the canonical field key for an integer key
func IntKey(n int) string {
	return strconv.Itoa(n)
}

// Clone returns a shallow copy of the record. A nil record clones to an
// empty one.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Clone returns a new collection holding shallow copies of every record
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	for i, rec := range c {
		out[i] = rec.Clone()
	}
	return out
}
