// Package pipeline runs declarative transformation pipelines against a
// workspace. A pipeline names its input files, an ordered list of steps and
// the files to write once the steps have been applied.
package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/adfharrison1/go-ape/pkg/storage"
)

// ErrInvalidStep is returned for malformed steps and expressions that do
// not compile
var ErrInvalidStep = errors.New("invalid step")

// Pipeline is the document form of a pipeline. JSON documents decode too.
type Pipeline struct {
	Collections map[string]string `yaml:"collections" json:"collections"`
	Steps       []Step            `yaml:"steps" json:"steps"`
	Outputs     map[string]string `yaml:"outputs" json:"outputs"`
}

// Step applies one operation to a collection
type Step struct {
	Collection   string     `yaml:"collection" json:"collection"`
	Map          string     `yaml:"map,omitempty" json:"map,omitempty"`
	MapValue     *FieldExpr `yaml:"mapValue,omitempty" json:"mapValue,omitempty"`
	AddProperty  *FieldExpr `yaml:"addProperty,omitempty" json:"addProperty,omitempty"`
	RenameKey    *Rename    `yaml:"renameKey,omitempty" json:"renameKey,omitempty"`
	MergeByIndex *Merge     `yaml:"mergeByIndex,omitempty" json:"mergeByIndex,omitempty"`
	CreateIndex  *IndexSpec `yaml:"createIndex,omitempty" json:"createIndex,omitempty"`
}

// FieldExpr targets one field with a CEL expression
type FieldExpr struct {
	Key  string `yaml:"key" json:"key"`
	Expr string `yaml:"expr" json:"expr"`
}

// Rename moves a field
type Rename struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

// Merge joins another collection's indexed records in
type Merge struct {
	Keys []string `yaml:"keys" json:"keys"`
	From string   `yaml:"from" json:"from"`
}

// IndexSpec names the fields of an index, in order
type IndexSpec struct {
	Keys []string `yaml:"keys" json:"keys"`
}

// LoadFile reads a pipeline document from path
func LoadFile(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes a YAML or JSON pipeline document and validates its steps
func Parse(r io.Reader) (*Pipeline, error) {
	var p Pipeline
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode pipeline: %w", err)
	}
	for i := range p.Steps {
		if err := p.Steps[i].Validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}
	return &p, nil
}

// Validate checks that the step targets a collection and names one operation
func (s *Step) Validate() error {
	if s.Collection == "" {
		return fmt.Errorf("%w: collection is required", ErrInvalidStep)
	}
	ops := 0
	for _, set := range []bool{
		s.Map != "",
		s.MapValue != nil,
		s.AddProperty != nil,
		s.RenameKey != nil,
		s.MergeByIndex != nil,
		s.CreateIndex != nil,
	} {
		if set {
			ops++
		}
	}
	if ops != 1 {
		return fmt.Errorf("%w: want exactly one operation, got %d", ErrInvalidStep, ops)
	}
	switch {
	case s.MapValue != nil && s.MapValue.Key == "":
		return fmt.Errorf("%w: mapValue requires a key", ErrInvalidStep)
	case s.AddProperty != nil && s.AddProperty.Key == "":
		return fmt.Errorf("%w: addProperty requires a key", ErrInvalidStep)
	case s.RenameKey != nil && (s.RenameKey.From == "" || s.RenameKey.To == ""):
		return fmt.Errorf("%w: renameKey requires from and to", ErrInvalidStep)
	case s.MergeByIndex != nil && (len(s.MergeByIndex.Keys) == 0 || s.MergeByIndex.From == ""):
		return fmt.Errorf("%w: mergeByIndex requires keys and from", ErrInvalidStep)
	case s.CreateIndex != nil && len(s.CreateIndex.Keys) == 0:
		return fmt.Errorf("%w: createIndex requires keys", ErrInvalidStep)
	}
	return nil
}

// Apply enqueues the step on its collection, or builds the index for a
// createIndex step. Expressions are compiled before anything is enqueued.
func (s *Step) Apply(sess *storage.Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	e, err := sess.Engine(s.Collection)
	if err != nil {
		return err
	}

	switch {
	case s.Map != "":
		ev, err := NewEvaluator(s.Map)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidStep, err)
		}
		e.Map(ev.MapFunc())
	case s.MapValue != nil:
		ev, err := NewEvaluator(s.MapValue.Expr)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidStep, err)
		}
		e.MapValue(s.MapValue.Key, ev.MapValueFunc())
	case s.AddProperty != nil:
		ev, err := NewEvaluator(s.AddProperty.Expr)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidStep, err)
		}
		e.AddProperty(s.AddProperty.Key, ev.GenerateValueFunc())
	case s.RenameKey != nil:
		e.RenameKey(s.RenameKey.From, s.RenameKey.To)
	case s.MergeByIndex != nil:
		if _, err := sess.Engine(s.MergeByIndex.From); err != nil {
			return err
		}
		e.MergeByIndex(sess.Lookup(s.MergeByIndex.From), s.MergeByIndex.Keys...)
	case s.CreateIndex != nil:
		if _, err := e.CreateIndex(s.CreateIndex.Keys...); err != nil {
			return err
		}
	}
	return nil
}

// Run loads the pipeline's collections into ws, applies its steps in order
// and writes its outputs
func (p *Pipeline) Run(ws *storage.Workspace) error {
	for _, name := range sortedKeys(p.Collections) {
		if _, err := ws.LoadFile(name, p.Collections[name]); err != nil {
			return fmt.Errorf("collection %s: %w", name, err)
		}
	}

	err := ws.Do(func(sess *storage.Session) error {
		for i := range p.Steps {
			if err := p.Steps[i].Apply(sess); err != nil {
				return fmt.Errorf("step %d (%s): %w", i, p.Steps[i].Collection, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("INFO: Applied %d pipeline steps", len(p.Steps))

	for _, name := range sortedKeys(p.Outputs) {
		n, err := ws.ExportFile(name, p.Outputs[name])
		if err != nil {
			return fmt.Errorf("output %s: %w", name, err)
		}
		log.Printf("INFO: Wrote %d records of '%s' to %s", n, name, p.Outputs[name])
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
