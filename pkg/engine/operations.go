package engine

import (
	"github.com/adfharrison1/go-ape/pkg/domain"
)

// Kind identifies an operation variant
type Kind string

const (
	KindMap          Kind = "map"
	KindMapValue     Kind = "mapValue"
	KindAddProperty  Kind = "addProperty"
	KindRenameKey    Kind = "renameKey"
	KindMergeByIndex Kind = "mergeByIndex"
)

// MapFunc replaces a record wholesale
type MapFunc func(rec domain.Record, index int, data domain.Collection) (domain.Record, error)

// MapValueFunc replaces the value of a single field
type MapValueFunc func(value interface{}, key string, index int, data domain.Collection) (interface{}, error)

// GenerateValueFunc computes the value of a field added to a record
type GenerateValueFunc func(rec domain.Record, key string, index int, data domain.Collection) (interface{}, error)

// Operation is one queued transformation step. Implementations receive a
// record they own and return the record handed to the next step.
type Operation interface {
	Kind() Kind
	apply(rec domain.Record, index int, data domain.Collection) (domain.Record, error)
}

type mapOp struct {
	fn MapFunc
}

func (o mapOp) Kind() Kind { return KindMap }

func (o mapOp) apply(rec domain.Record, index int, data domain.Collection) (domain.Record, error) {
	out, err := o.fn(rec, index, data)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, domain.ErrInvalidRecord
	}
	// the callback may hand back a record it does not own
	return out.Clone(), nil
}

type mapValueOp struct {
	key string
	fn  MapValueFunc
}

func (o mapValueOp) Kind() Kind { return KindMapValue }

func (o mapValueOp) apply(rec domain.Record, index int, data domain.Collection) (domain.Record, error) {
	value, err := o.fn(rec[o.key], o.key, index, data)
	if err != nil {
		return nil, err
	}
	out := rec.Clone()
	out[o.key] = value
	return out, nil
}

type addPropertyOp struct {
	key string
	fn  GenerateValueFunc
}

func (o addPropertyOp) Kind() Kind { return KindAddProperty }

func (o addPropertyOp) apply(rec domain.Record, index int, data domain.Collection) (domain.Record, error) {
	value, err := o.fn(rec, o.key, index, data)
	if err != nil {
		return nil, err
	}
	out := rec.Clone()
	out[o.key] = value
	return out, nil
}

type renameKeyOp struct {
	from, to string
}

func (o renameKeyOp) Kind() Kind { return KindRenameKey }

// apply leaves the record untouched when the source key is absent
func (o renameKeyOp) apply(rec domain.Record, _ int, _ domain.Collection) (domain.Record, error) {
	out := rec.Clone()
	value, ok := out[o.from]
	if !ok || o.from == o.to {
		return out, nil
	}
	delete(out, o.from)
	out[o.to] = value
	return out, nil
}

type mergeByIndexOp struct {
	keys  []string
	other domain.IndexLookup
}

func (o mergeByIndexOp) Kind() Kind { return KindMergeByIndex }

func (o mergeByIndexOp) apply(rec domain.Record, _ int, _ domain.Collection) (domain.Record, error) {
	match, ok, err := o.other.FindByIndex(domain.QueryFrom(rec, o.keys))
	if err != nil {
		return nil, err
	}
	out := rec.Clone()
	if !ok {
		return out, nil
	}
	for k, v := range match {
		out[k] = v
	}
	return out, nil
}
