package xgate

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/trickstertwo/xclock"
)

// Gate answers "is this level active for this writer?" in O(1) without
// locking or allocating, while levels, writers and the active configuration
// keep changing underneath it.
//
// The active policy and every writer's cached mask travel together as one
// immutable snapshot behind an atomic pointer. Writer creation, tag
// derivation and configuration installs serialize on a single allocation
// mutex and each publish a fresh snapshot; the gate check only ever loads
// the pointer.
type Gate struct {
	// mu serializes writer creation, tag derivation and installs.
	// Lock order: mu before any registry lock, never the reverse.
	mu      sync.Mutex
	levels  *LevelRegistry
	writers *WriterRegistry
	state   atomic.Pointer[gateState]

	stats stats
}

// gateState is an immutable {policy, masks} pair; masks is indexed by
// writer id. A writer committed after the snapshot was taken gates as
// inactive until its successor snapshot lands.
type gateState struct {
	policy Configuration
	masks  []BitMask
}

// New returns an isolated Gate running the default threshold policy.
func New() *Gate {
	g := &Gate{
		levels:  NewLevelRegistry(),
		writers: newWriterRegistry(),
	}
	g.state.Store(&gateState{policy: NewThresholdConfiguration(DefaultThreshold)})
	return g
}

// Levels returns the gate's level registry.
func (g *Gate) Levels() *LevelRegistry { return g.levels }

// Writers returns the gate's writer registry.
func (g *Gate) Writers() *WriterRegistry { return g.writers }

// RegisterAspect registers (or finds) the aspect level called name.
func (g *Gate) RegisterAspect(name string) (Level, error) {
	return g.levels.GetOrRegisterAspect(name)
}

// GetWriter returns the untagged writer called name, creating it on first
// use.
func (g *Gate) GetWriter(name string) (*Writer, error) {
	return g.GetTaggedWriter(name)
}

// GetTaggedWriter returns the writer for name carrying exactly the given
// tags, creating it on first use. Tag order and duplicates do not matter:
// the set is normalized before the identity is resolved.
func (g *Gate) GetTaggedWriter(name string, tags ...string) (*Writer, error) {
	if err := CheckName(name); err != nil {
		return nil, err
	}
	norm, err := normalizeTags(tags)
	if err != nil {
		return nil, err
	}
	return g.getOrCreate(name, norm)
}

// GetWriterForType returns the writer named after t's canonical dotted
// name.
func (g *Gate) GetWriterForType(t reflect.Type) (*Writer, error) {
	if t == nil {
		return nil, ErrNilType
	}
	return g.GetWriter(typeName(t))
}

// For returns g's writer named after T, creating it on first use.
// Type-derived names always pass validation, so no error surfaces.
func For[T any](g *Gate) *Writer {
	w, err := g.GetWriterForType(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		panic(fmt.Errorf("xgate: writer for type: %w", err))
	}
	return w
}

// getOrCreate resolves the normalized identity, committing a new writer and
// publishing its mask if the identity is new.
func (g *Gate) getOrCreate(name string, norm []string) (*Writer, error) {
	key := keyOf(name, norm)
	if w, ok := g.writers.lookup(key); ok {
		return w, nil
	}

	g.mu.Lock()
	if w, ok := g.writers.lookup(key); ok {
		g.mu.Unlock()
		return w, nil
	}

	w := &Writer{
		id:   g.writers.nextID(),
		name: name,
		tags: norm,
		gate: g,
	}
	newTags := g.writers.commit(key, w)

	// Mask against whatever policy is installed right now. An install
	// racing ahead of this point recomputes every known writer under mu,
	// so the last installed policy wins either way.
	cur := g.state.Load()
	masks := make([]BitMask, w.id+1)
	copy(masks, cur.masks)
	masks[w.id] = cur.policy.Compute(w)
	g.state.Store(&gateState{policy: cur.policy, masks: masks})
	at := xclock.Now()
	g.mu.Unlock()

	g.writers.notify(w, newTags, at)
	return w, nil
}

// deriveWriter returns the writer carrying w's name and the union of w's
// tags and extra. An unchanged union returns w itself.
func (g *Gate) deriveWriter(w *Writer, extra []string) (*Writer, error) {
	union := make([]string, 0, len(w.tags)+len(extra))
	union = append(union, w.tags...)
	union = append(union, extra...)
	norm, err := normalizeTags(union)
	if err != nil {
		return nil, err
	}
	if equalTags(w.tags, norm) {
		return w, nil
	}
	return g.getOrCreate(w.name, norm)
}

func equalTags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// InstallConfiguration atomically replaces the active policy, recomputing
// the cached mask of every known writer. It returns the configuration that
// was active before the call, so callers can restore it later.
func (g *Gate) InstallConfiguration(c Configuration) (Configuration, error) {
	if c == nil {
		return nil, ErrNilConfiguration
	}

	g.mu.Lock()
	prev := g.state.Load()
	known := g.writers.Known()
	masks := make([]BitMask, len(known))
	for _, w := range known {
		masks[w.id] = c.Compute(w)
	}
	g.state.Store(&gateState{policy: c, masks: masks})
	g.stats.installs.Add(1)
	g.mu.Unlock()

	return prev.policy, nil
}

// ActiveConfiguration returns the currently installed policy.
func (g *Gate) ActiveConfiguration() Configuration {
	return g.state.Load().policy
}

// IsLogLevelActive reports whether level is active for w. This is the hot
// path: one atomic load, one slice index, one word test.
func (g *Gate) IsLogLevelActive(w *Writer, level Level) bool {
	switch level.ID {
	case LevelNone.ID:
		return false
	case LevelAll.ID:
		return true
	}
	if w == nil || w.gate != g {
		return false
	}
	st := g.state.Load()
	if int(w.id) >= len(st.masks) {
		// Committed but not yet masked.
		return false
	}
	return st.masks[w.id].Bit(int(level.ID))
}

// Stats returns a point-in-time snapshot of the gate's registries and
// counters.
func (g *Gate) Stats() StatsSnapshot {
	return StatsSnapshot{
		KnownLevels:  g.levels.Len(),
		KnownWriters: g.writers.Len(),
		KnownTags:    g.writers.TagCount(),
		Installs:     g.stats.installs.Load(),
	}
}
