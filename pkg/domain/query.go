package domain

// Field is a single key/value pair of a query
type Field struct {
	Key   string
	Value interface{}
}

// Query is an ordered partial record. Order matters: it decides which
// composite index a lookup is served from.
type Query []Field

// Where starts a query with a single field
func Where(key string, value interface{}) Query {
	return Query{{Key: key, Value: value}}
}

// And returns a copy of the query with one more field appended
func (q Query) And(key string, value interface{}) Query {
	out := make(Query, len(q), len(q)+1)
	copy(out, q)
	return append(out, Field{Key: key, Value: value})
}

// Keys returns the query's field keys in order
func (q Query) Keys() []string {
	keys := make([]string, len(q))
	for i, f := range q {
		keys[i] = f.Key
	}
	return keys
}

// Values returns the query's values in key order
func (q Query) Values() []interface{} {
	values := make([]interface{}, len(q))
	for i, f := range q {
		values[i] = f.Value
	}
	return values
}

// QueryFrom builds a query from a record's values for the given keys. Missing
// fields contribute a nil value.
func QueryFrom(rec Record, keys []string) Query {
	q := make(Query, len(keys))
	for i, k := range keys {
		q[i] = Field{Key: k, Value: rec[k]}
	}
	return q
}
