package xgate

import (
	"sync"
	"sync/atomic"
	"time"
)

// Observer pattern: registries notify synchronously after committing a new
// identity, so observers never see an id that lookups cannot yet resolve.

// LevelRegistration is delivered once per distinct aspect name, after the
// level has been committed to its registry.
type LevelRegistration struct {
	Level Level
	At    time.Time
}

// LevelObserver receives level registrations.
// Implementations MUST be concurrency-safe.
type LevelObserver interface {
	OnLevel(r LevelRegistration)
}

// LevelObserverFunc adapter.
type LevelObserverFunc func(LevelRegistration)

func (f LevelObserverFunc) OnLevel(r LevelRegistration) { f(r) }

// WriterRegistration is delivered once per distinct (name, tags) identity.
type WriterRegistration struct {
	Writer *Writer
	At     time.Time
}

// WriterObserver receives writer registrations.
// Implementations MUST be concurrency-safe.
type WriterObserver interface {
	OnWriter(r WriterRegistration)
}

// WriterObserverFunc adapter.
type WriterObserverFunc func(WriterRegistration)

func (f WriterObserverFunc) OnWriter(r WriterRegistration) { f(r) }

// TagRegistration is delivered the first time a tag is seen process-wide.
type TagRegistration struct {
	Tag string
	At  time.Time
}

// TagObserver receives tag registrations.
// Implementations MUST be concurrency-safe.
type TagObserver interface {
	OnTag(r TagRegistration)
}

// TagObserverFunc adapter.
type TagObserverFunc func(TagRegistration)

func (f TagObserverFunc) OnTag(r TagRegistration) { f(r) }

// observerList holds an immutable slice in an atomic.Value for lock-free
// reads; adds are synchronized and copy-on-write.
type observerList[T any] struct {
	mu  sync.Mutex
	val atomic.Value // holds []T; treated as immutable by readers
}

func (l *observerList[T]) snapshot() []T {
	v := l.val.Load()
	if v == nil {
		return nil
	}
	cur := v.([]T)
	if len(cur) == 0 {
		return nil
	}
	return cur
}

func (l *observerList[T]) add(o T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cur := l.snapshot()
	next := make([]T, 0, len(cur)+1)
	next = append(next, cur...)
	next = append(next, o)
	l.val.Store(next)
}
