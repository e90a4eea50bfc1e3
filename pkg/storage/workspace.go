package storage

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/adfharrison1/go-ape/pkg/domain"
	"github.com/adfharrison1/go-ape/pkg/engine"
)

// ErrCollectionNotFound is returned for names the workspace does not hold
var ErrCollectionNotFound = errors.New("collection not found")

// Workspace owns a set of named engines. Engines are not safe for concurrent
// use, so every access to one goes through the workspace lock.
type Workspace struct {
	mu      sync.RWMutex
	engines map[string]*engine.Engine
	dataDir string
	format  Format
}

// NewWorkspace creates an empty workspace
func NewWorkspace(options ...WorkspaceOption) *Workspace {
	ws := &Workspace{
		engines: make(map[string]*engine.Engine),
		dataDir: ".",
	}

	// Apply options
	for _, option := range options {
		option(ws)
	}

	return ws
}

// Put replaces the named collection with a fresh engine over coll
func (ws *Workspace) Put(name string, coll domain.Collection) *engine.Engine {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	e := engine.New(coll)
	ws.engines[name] = e
	return e
}

// Drop removes the named collection
func (ws *Workspace) Drop(name string) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if _, exists := ws.engines[name]; !exists {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	delete(ws.engines, name)
	return nil
}

// Names returns the collection names, sorted
func (ws *Workspace) Names() []string {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	names := make([]string, 0, len(ws.engines))
	for name := range ws.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Session is exclusive access to a workspace's engines, valid only inside Do
type Session struct {
	ws *Workspace
}

// Engine returns the named engine
func (s *Session) Engine(name string) (*engine.Engine, error) {
	e, exists := s.ws.engines[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	return e, nil
}

// Put replaces the named collection with a fresh engine over coll
func (s *Session) Put(name string, coll domain.Collection) *engine.Engine {
	e := engine.New(coll)
	s.ws.engines[name] = e
	return e
}

// Lookup returns an index lookup that resolves the named collection each
// time it is queried, so a queued join follows later Put and Drop calls.
// It must only be queried while the workspace lock is held, which Process
// and Do guarantee.
func (s *Session) Lookup(name string) domain.IndexLookup {
	return namedLookup{ws: s.ws, name: name}
}

type namedLookup struct {
	ws   *Workspace
	name string
}

func (l namedLookup) FindByIndex(query domain.Query) (domain.Record, bool, error) {
	e, exists := l.ws.engines[l.name]
	if !exists {
		return nil, false, fmt.Errorf("%w: %s", ErrCollectionNotFound, l.name)
	}
	return e.FindByIndex(query)
}

// Do runs fn holding the workspace lock. Joins read other engines' indexes
// while processing, so a single lock covers every engine.
func (ws *Workspace) Do(fn func(s *Session) error) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return fn(&Session{ws: ws})
}

// Process runs the named engine's queue
func (ws *Workspace) Process(name string) (domain.Collection, error) {
	var out domain.Collection
	err := ws.Do(func(s *Session) error {
		e, err := s.Engine(name)
		if err != nil {
			return err
		}
		out, err = e.Process()
		return err
	})
	return out, err
}

// LoadFile reads a collection file into the workspace under name
func (ws *Workspace) LoadFile(name, path string) (*engine.Engine, error) {
	path = ws.resolve(path)
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	coll, err := Decode(file, ws.formatFor(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	log.Printf("INFO: Loaded collection '%s' with %d records from %s", name, len(coll), path)
	return ws.Put(name, coll), nil
}

// ExportFile processes the named collection and writes the result to path
func (ws *Workspace) ExportFile(name, path string) (int, error) {
	coll, err := ws.Process(name)
	if err != nil {
		return 0, err
	}

	path = ws.resolve(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	// write to a temp file and rename so readers never see a partial file
	tempFile := path + ".tmp"
	file, err := os.Create(tempFile)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	if err := Encode(file, ws.formatFor(path), name, coll); err != nil {
		file.Close()
		os.Remove(tempFile)
		return 0, err
	}
	if err := file.Close(); err != nil {
		os.Remove(tempFile)
		return 0, fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return 0, fmt.Errorf("failed to rename file: %w", err)
	}
	return len(coll), nil
}

func (ws *Workspace) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(ws.dataDir, path)
}

func (ws *Workspace) formatFor(path string) Format {
	if ws.format != "" {
		return ws.format
	}
	return FormatFromPath(path)
}
