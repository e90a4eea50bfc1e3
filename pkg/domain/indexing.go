package domain

// IndexLookup defines the read side of an indexed collection. It is what a
// join borrows from the engine on the other side.
type IndexLookup interface {
	// FindByIndex returns the record matching the query. A missing index is
	// an error; a missing entry is reported as ok == false.
	FindByIndex(query Query) (rec Record, ok bool, err error)
}

// IndexInfo describes an index held by an engine
type IndexInfo struct {
	Name    string   `json:"name"`
	Keys    []string `json:"keys"`
	Entries int      `json:"entries"`
}
