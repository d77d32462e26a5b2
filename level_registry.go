package xgate

import (
	"fmt"
	"sync"

	"fortio.org/safecast"
	"github.com/trickstertwo/xclock"
)

// LevelRegistry is the append-only table of level identities. The sentinels
// and the ten predefined levels are seeded at construction; aspects register
// on first use and are never removed.
//
// All methods are safe for concurrent use.
type LevelRegistry struct {
	mu      sync.RWMutex
	byName  map[string]Level
	ordered []Level // index == ID

	observers observerList[LevelObserver]
}

// NewLevelRegistry returns a registry holding the sentinels and the
// predefined levels.
func NewLevelRegistry() *LevelRegistry {
	r := &LevelRegistry{
		byName:  make(map[string]Level, len(predefined)+2),
		ordered: make([]Level, 0, len(predefined)),
	}
	r.byName[LevelNone.Name] = LevelNone
	r.byName[LevelAll.Name] = LevelAll
	for _, lvl := range predefined {
		r.byName[lvl.Name] = lvl
		r.ordered = append(r.ordered, lvl)
	}
	return r
}

// GetOrRegisterAspect returns the level registered under name, creating it
// as a dynamic aspect if the name is new. Registration is idempotent: every
// call with the same name yields the same Level, and observers hear about a
// name exactly once, after it is committed.
func (r *LevelRegistry) GetOrRegisterAspect(name string) (Level, error) {
	if err := CheckName(name); err != nil {
		return Level{}, err
	}

	r.mu.RLock()
	lvl, ok := r.byName[name]
	r.mu.RUnlock()
	if ok {
		return lvl, nil
	}

	r.mu.Lock()
	if lvl, ok = r.byName[name]; ok {
		r.mu.Unlock()
		return lvl, nil
	}
	id, err := safecast.Conv[int32](len(r.ordered))
	if err != nil {
		r.mu.Unlock()
		panic(fmt.Errorf("xgate: level id space exhausted: %w", err))
	}
	lvl = Level{ID: id, Name: name}
	r.byName[name] = lvl
	r.ordered = append(r.ordered, lvl)
	at := xclock.Now()
	r.mu.Unlock()

	for _, o := range r.observers.snapshot() {
		o.OnLevel(LevelRegistration{Level: lvl, At: at})
	}
	return lvl, nil
}

// ByName returns the level registered under name. Sentinels are addressable
// by their names.
func (r *LevelRegistry) ByName(name string) (Level, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lvl, ok := r.byName[name]
	return lvl, ok
}

// ByID returns the level with the given id. Sentinel ids resolve to the
// sentinels.
func (r *LevelRegistry) ByID(id int32) (Level, bool) {
	switch id {
	case LevelNone.ID:
		return LevelNone, true
	case LevelAll.ID:
		return LevelAll, true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id < 0 || int(id) >= len(r.ordered) {
		return Level{}, false
	}
	return r.ordered[id], true
}

// Known returns the registered levels in id order: severities, then the
// predefined aspect, then dynamic aspects. Sentinels are not included.
func (r *LevelRegistry) Known() []Level {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Level, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Predefined returns the compiled-in levels in id order.
func (r *LevelRegistry) Predefined() []Level {
	out := make([]Level, len(predefined))
	copy(out, predefined)
	return out
}

// Len returns the number of registered levels, sentinels excluded.
func (r *LevelRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ordered)
}

// AddObserver registers o for aspect registrations. nil observers are
// ignored.
func (r *LevelRegistry) AddObserver(o LevelObserver) {
	if o == nil {
		return
	}
	r.observers.add(o)
}
