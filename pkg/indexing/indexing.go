package indexing

import (
	"fmt"
	"sort"

	"github.com/adfharrison1/go-ape/pkg/domain"
)

// Index maps composite field values to record positions in the collection it
// was built from. It is a snapshot: later changes to the source never reach it.
type Index struct {
	Name      string
	Keys      []string
	Positions map[string]int
	records   domain.Collection
}

// NewIndex creates an empty index over the given fields
func NewIndex(keys []string) *Index {
	k := make([]string, len(keys))
	copy(k, keys)
	return &Index{
		Name:      CompositeName(k),
		Keys:      k,
		Positions: make(map[string]int),
	}
}

// BuildIndex indexes every record of the collection by the index fields.
// When two records share a composite value the later position wins.
func (idx *Index) BuildIndex(records domain.Collection) {
	idx.records = records
	idx.Positions = make(map[string]int, len(records))
	values := make([]interface{}, len(idx.Keys))
	for pos, rec := range records {
		for i, key := range idx.Keys {
			values[i] = rec[key]
		}
		idx.Positions[CompositeValue(values)] = pos
	}
}

// Query returns the position stored for a composite value
func (idx *Index) Query(values []interface{}) (int, bool) {
	pos, ok := idx.Positions[CompositeValue(values)]
	return pos, ok
}

// Record returns a copy of the snapshot record at pos
func (idx *Index) Record(pos int) domain.Record {
	return idx.records[pos].Clone()
}

// Len returns the number of distinct composite values in the index
func (idx *Index) Len() int {
	return len(idx.Positions)
}

// IndexEngine holds the indexes of one collection keyed by composite field name
type IndexEngine struct {
	indexes map[string]*Index
}

// NewIndexEngine creates a new index engine
func NewIndexEngine() *IndexEngine {
	return &IndexEngine{
		indexes: make(map[string]*Index),
	}
}

// BuildIndex builds an index over the given fields from records, replacing any
// index previously built for the same fields
func (ie *IndexEngine) BuildIndex(keys []string, records domain.Collection) (*Index, error) {
	if len(keys) == 0 {
		return nil, domain.ErrNoIndexKeys
	}
	index := NewIndex(keys)
	index.BuildIndex(records)
	ie.indexes[index.Name] = index
	return index, nil
}

// DropIndex removes the index over the given fields
func (ie *IndexEngine) DropIndex(keys []string) error {
	name := CompositeName(keys)
	if _, exists := ie.indexes[name]; !exists {
		return &domain.IndexNotFoundError{Keys: name}
	}
	delete(ie.indexes, name)
	return nil
}

// FindByIndex resolves a query against the index named by the query's keys
func (ie *IndexEngine) FindByIndex(query domain.Query) (domain.Record, bool, error) {
	name := CompositeName(query.Keys())
	index, exists := ie.GetIndex(name)
	if !exists {
		return nil, false, &domain.IndexNotFoundError{Keys: name}
	}
	pos, ok := index.Query(query.Values())
	if !ok {
		return nil, false, nil
	}
	return index.Record(pos), true, nil
}

// GetIndex returns the index with the given composite name
func (ie *IndexEngine) GetIndex(name string) (*Index, bool) {
	index, exists := ie.indexes[name]
	return index, exists
}

// GetIndexes returns all index names, sorted
func (ie *IndexEngine) GetIndexes() []string {
	names := make([]string, 0, len(ie.indexes))
	for name := range ie.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe returns a summary of every index, sorted by name
func (ie *IndexEngine) Describe() []domain.IndexInfo {
	infos := make([]domain.IndexInfo, 0, len(ie.indexes))
	for _, name := range ie.GetIndexes() {
		index := ie.indexes[name]
		infos = append(infos, domain.IndexInfo{
			Name:    name,
			Keys:    append([]string(nil), index.Keys...),
			Entries: index.Len(),
		})
	}
	return infos
}

// String implements fmt.Stringer
func (idx *Index) String() string {
	return fmt.Sprintf("index %q (%d entries)", idx.Name, len(idx.Positions))
}
