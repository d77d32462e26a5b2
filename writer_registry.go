package xgate

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"fortio.org/safecast"
)

// tagPunct is the punctuation allowed in tags besides letters and digits.
const tagPunct = "_.,:;+-#()[]{}<>"

// writerKey is the composite identity key: name plus the normalized tag
// set. Tags join on NUL, which the tag character set excludes, so distinct
// sets never collide.
type writerKey struct {
	name string
	tags string
}

func keyOf(name string, tags []string) writerKey {
	return writerKey{name: name, tags: strings.Join(tags, "\x00")}
}

// WriterRegistry is the append-only identity table for writers and tags.
// Writers enter it only through a Gate, which serializes all mutation on its
// allocation mutex; the registry's own lock merely orders readers against an
// in-flight commit.
//
// All exported methods are safe for concurrent use.
type WriterRegistry struct {
	mu      sync.RWMutex
	byKey   map[writerKey]*Writer
	ordered []*Writer // index == id

	tagSeen map[string]struct{}
	tagList []string // first-seen order

	writerObservers observerList[WriterObserver]
	tagObservers    observerList[TagObserver]
}

func newWriterRegistry() *WriterRegistry {
	return &WriterRegistry{
		byKey:   make(map[writerKey]*Writer),
		tagSeen: make(map[string]struct{}),
	}
}

// Lookup returns the writer registered under name and tags, if any. The tag
// set is normalized first, so order and duplicates do not matter; invalid
// tags simply never match.
func (r *WriterRegistry) Lookup(name string, tags ...string) (*Writer, bool) {
	norm, err := normalizeTags(tags)
	if err != nil {
		return nil, false
	}
	return r.lookup(keyOf(name, norm))
}

// ByID returns the writer with the given dense id.
func (r *WriterRegistry) ByID(id int32) (*Writer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id < 0 || int(id) >= len(r.ordered) {
		return nil, false
	}
	return r.ordered[id], true
}

// Known returns every registered writer, oldest first.
func (r *WriterRegistry) Known() []*Writer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Writer, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// KnownTags returns every tag ever seen across all writers, in first-use
// order.
func (r *WriterRegistry) KnownTags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.tagList) == 0 {
		return nil
	}
	out := make([]string, len(r.tagList))
	copy(out, r.tagList)
	return out
}

// Len returns the number of registered writers.
func (r *WriterRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ordered)
}

// TagCount returns the number of distinct tags seen.
func (r *WriterRegistry) TagCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tagList)
}

// AddObserver registers o for writer registrations. nil observers are
// ignored.
func (r *WriterRegistry) AddObserver(o WriterObserver) {
	if o == nil {
		return
	}
	r.writerObservers.add(o)
}

// AddTagObserver registers o for first-seen tag registrations. nil
// observers are ignored.
func (r *WriterRegistry) AddTagObserver(o TagObserver) {
	if o == nil {
		return
	}
	r.tagObservers.add(o)
}

func (r *WriterRegistry) lookup(key writerKey) (*Writer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.byKey[key]
	return w, ok
}

// nextID allocates the next dense writer id. The caller holds the Gate's
// allocation mutex, so the length cannot move underneath it.
func (r *WriterRegistry) nextID() int32 {
	r.mu.RLock()
	n := len(r.ordered)
	r.mu.RUnlock()
	id, err := safecast.Conv[int32](n)
	if err != nil {
		panic(fmt.Errorf("xgate: writer id space exhausted: %w", err))
	}
	return id
}

// commit inserts w under key and records its first-seen tags in the global
// table, returning them. The caller holds the Gate's allocation mutex and
// has verified key is absent.
func (r *WriterRegistry) commit(key writerKey, w *Writer) []string {
	var newTags []string
	r.mu.Lock()
	r.byKey[key] = w
	r.ordered = append(r.ordered, w)
	for _, t := range w.tags {
		if _, seen := r.tagSeen[t]; !seen {
			r.tagSeen[t] = struct{}{}
			r.tagList = append(r.tagList, t)
			newTags = append(newTags, t)
		}
	}
	r.mu.Unlock()
	return newTags
}

// notify delivers tag registrations, then the writer registration. The Gate
// calls it after publishing the snapshot that carries w's mask.
func (r *WriterRegistry) notify(w *Writer, newTags []string, at time.Time) {
	if len(newTags) > 0 {
		obs := r.tagObservers.snapshot()
		for _, t := range newTags {
			for _, o := range obs {
				o.OnTag(TagRegistration{Tag: t, At: at})
			}
		}
	}
	for _, o := range r.writerObservers.snapshot() {
		o.OnWriter(WriterRegistration{Writer: w, At: at})
	}
}

// normalizeTags validates tags and returns them sorted and deduplicated.
// The input slice is not modified.
func normalizeTags(tags []string) ([]string, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if err := checkTag(tag); err != nil {
			return nil, err
		}
		out = append(out, tag)
	}
	sort.Strings(out)
	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[i-1] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n], nil
}

// checkTag rejects empty tags and tags with characters outside letters,
// digits and tagPunct.
func checkTag(tag string) error {
	if tag == "" {
		return ErrEmptyTag
	}
	for _, r := range tag {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !strings.ContainsRune(tagPunct, r) {
			return ErrTagChars
		}
	}
	return nil
}
