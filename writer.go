package xgate

import (
	"reflect"
	"strconv"
	"strings"
)

// Writer is a named, optionally tagged emitter identity. Writers are
// handles: two writers denote the same emitter exactly when they are the
// same pointer. A Gate creates them on first use and never releases them.
type Writer struct {
	id   int32
	name string
	tags []string // sorted, deduplicated; immutable after construction
	gate *Gate
}

// ID returns the writer's dense registry id.
func (w *Writer) ID() int32 { return w.id }

// Name returns the writer's name.
func (w *Writer) Name() string { return w.name }

// Tags returns a copy of the writer's tag set, sorted.
func (w *Writer) Tags() []string {
	if len(w.tags) == 0 {
		return nil
	}
	out := make([]string, len(w.tags))
	copy(out, w.tags)
	return out
}

// String renders "name" or "name[tag1,tag2]".
func (w *Writer) String() string {
	if len(w.tags) == 0 {
		return w.name
	}
	var b strings.Builder
	b.WriteString(w.name)
	b.WriteByte('[')
	for i, t := range w.tags {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t)
	}
	b.WriteByte(']')
	return b.String()
}

// WithTag returns the writer for the same name carrying this writer's tags
// plus tag. If the union leaves the tag set unchanged, the receiver itself
// is returned.
func (w *Writer) WithTag(tag string) (*Writer, error) {
	return w.gate.deriveWriter(w, []string{tag})
}

// WithTags is WithTag for several tags at once.
func (w *Writer) WithTags(tags ...string) (*Writer, error) {
	return w.gate.deriveWriter(w, tags)
}

// Active reports whether level is currently active for this writer on its
// owning Gate.
func (w *Writer) Active(level Level) bool {
	return w.gate.IsLogLevelActive(w, level)
}

// typeName renders t as its canonical dotted name: full import path, dot,
// type name. Instantiated generic types carry their type arguments in the
// name reflect reports. Unnamed composite kinds render structurally from
// their element types; anything else falls back to reflect's formatting.
func typeName(t reflect.Type) string {
	if t.Name() != "" {
		if t.PkgPath() == "" {
			return t.Name() // predeclared: int, string, error, ...
		}
		return t.PkgPath() + "." + t.Name()
	}
	switch t.Kind() {
	case reflect.Pointer:
		return "*" + typeName(t.Elem())
	case reflect.Slice:
		return "[]" + typeName(t.Elem())
	case reflect.Array:
		return "[" + strconv.Itoa(t.Len()) + "]" + typeName(t.Elem())
	case reflect.Map:
		return "map[" + typeName(t.Key()) + "]" + typeName(t.Elem())
	case reflect.Chan:
		switch t.ChanDir() {
		case reflect.RecvDir:
			return "<-chan " + typeName(t.Elem())
		case reflect.SendDir:
			return "chan<- " + typeName(t.Elem())
		default:
			return "chan " + typeName(t.Elem())
		}
	default:
		return t.String()
	}
}
