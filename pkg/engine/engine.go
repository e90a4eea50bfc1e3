// Package engine implements a deferred record transformation engine.
//
// An Engine holds a collection and a queue of operations. Enqueueing is cheap
// and only records intent; Process applies the whole queue to the original
// collection and returns a fresh one. Indexes are built over processed output
// and can be used for O(1) lookups or to join another engine's records in.
//
// An Engine is not safe for concurrent use. The collection returned by
// Process is not retained by the engine and may be shared freely.
package engine

import (
	"github.com/adfharrison1/go-ape/pkg/domain"
	"github.com/adfharrison1/go-ape/pkg/indexing"
)

// Engine queues operations over a collection and executes them on demand
type Engine struct {
	data        domain.Collection
	operations  []Operation
	indexEngine *indexing.IndexEngine
}

// New creates an engine over data. The collection is borrowed and never
// modified by the engine.
func New(data domain.Collection) *Engine {
	return &Engine{
		data:        data,
		indexEngine: indexing.NewIndexEngine(),
	}
}

// Map enqueues a whole-record replacement
func (e *Engine) Map(fn MapFunc) *Engine {
	return e.addOperation(mapOp{fn: fn})
}

// MapValue enqueues a replacement of one field's value
func (e *Engine) MapValue(key string, fn MapValueFunc) *Engine {
	return e.addOperation(mapValueOp{key: key, fn: fn})
}

// AddProperty enqueues a computed field, overwriting it if already present
func (e *Engine) AddProperty(key string, fn GenerateValueFunc) *Engine {
	return e.addOperation(addPropertyOp{key: key, fn: fn})
}

// RenameKey enqueues moving a field's value from one key to another. Records
// without the source key pass through unchanged.
func (e *Engine) RenameKey(from, to string) *Engine {
	return e.addOperation(renameKeyOp{from: from, to: to})
}

// MergeByIndex enqueues a join: each record is looked up in other by the
// values of keys and the match's fields are merged over the record. other
// must have an index over exactly keys by the time Process runs.
func (e *Engine) MergeByIndex(other domain.IndexLookup, keys ...string) *Engine {
	k := make([]string, len(keys))
	copy(k, keys)
	return e.addOperation(mergeByIndexOp{keys: k, other: other})
}

func (e *Engine) addOperation(op Operation) *Engine {
	e.operations = append(e.operations, op)
	return e
}

// Process applies the queue, in order, to every record of the original
// collection and returns the result. The first failing operation aborts the
// run and its error is returned as is.
func (e *Engine) Process() (domain.Collection, error) {
	out := make(domain.Collection, len(e.data))
	for i, rec := range e.data {
		current := rec.Clone()
		for _, op := range e.operations {
			next, err := op.apply(current, i, e.data)
			if err != nil {
				return nil, err
			}
			current = next
		}
		out[i] = current
	}
	return out, nil
}

// CreateIndex processes the collection and indexes the result by keys, in
// the given order. An existing index over the same keys is replaced.
func (e *Engine) CreateIndex(keys ...string) (*Engine, error) {
	if len(keys) == 0 {
		return e, domain.ErrNoIndexKeys
	}
	records, err := e.Process()
	if err != nil {
		return e, err
	}
	if _, err := e.indexEngine.BuildIndex(keys, records); err != nil {
		return e, err
	}
	return e, nil
}

// FindByIndex returns the processed record matching query from the index
// whose keys equal the query's keys, in order. It fails with an
// IndexNotFoundError when no such index exists and reports ok == false when
// the index has no entry for the query's values.
func (e *Engine) FindByIndex(query domain.Query) (domain.Record, bool, error) {
	return e.indexEngine.FindByIndex(query)
}

// DropIndex removes the index over keys
func (e *Engine) DropIndex(keys ...string) error {
	return e.indexEngine.DropIndex(keys)
}

// Indexes describes the indexes currently held
func (e *Engine) Indexes() []domain.IndexInfo {
	return e.indexEngine.Describe()
}

// Data returns the collection the engine was created with
func (e *Engine) Data() domain.Collection {
	return e.data
}

// Len returns the number of records in the collection
func (e *Engine) Len() int {
	return len(e.data)
}

// Operations returns the kinds of the queued operations, in order
func (e *Engine) Operations() []Kind {
	kinds := make([]Kind, len(e.operations))
	for i, op := range e.operations {
		kinds[i] = op.Kind()
	}
	return kinds
}
