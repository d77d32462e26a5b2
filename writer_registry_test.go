package xgate

import (
	"bytes"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/trickstertwo/xclock"
	"golang.org/x/sync/errgroup"
)

func TestWriterIdentity(t *testing.T) {
	t.Parallel()

	g := New()
	a, err := g.GetWriter("httpd")
	require.NoError(t, err)
	b, err := g.GetWriter("httpd")
	require.NoError(t, err)
	require.Same(t, a, b)

	c, err := g.GetWriter("dbd")
	require.NoError(t, err)
	require.NotSame(t, a, c)

	require.Equal(t, int32(0), a.ID())
	require.Equal(t, int32(1), c.ID())
	require.Equal(t, "httpd", a.Name())
	require.Empty(t, a.Tags())
	require.Equal(t, "httpd", a.String())

	require.Equal(t, 2, g.Writers().Len())
	require.Equal(t, []*Writer{a, c}, g.Writers().Known())

	byID, ok := g.Writers().ByID(1)
	require.True(t, ok)
	require.Same(t, c, byID)
	_, ok = g.Writers().ByID(2)
	require.False(t, ok)
	_, ok = g.Writers().ByID(-1)
	require.False(t, ok)

	found, ok := g.Writers().Lookup("httpd")
	require.True(t, ok)
	require.Same(t, a, found)
	_, ok = g.Writers().Lookup("unknown")
	require.False(t, ok)
}

func TestTaggedWriterNormalization(t *testing.T) {
	t.Parallel()

	g := New()
	a, err := g.GetTaggedWriter("store", "b", "a", "b")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, a.Tags())
	require.Equal(t, "store[a,b]", a.String())

	b, err := g.GetTaggedWriter("store", "a", "b")
	require.NoError(t, err)
	require.Same(t, a, b)

	// The untagged writer is a distinct identity.
	plain, err := g.GetWriter("store")
	require.NoError(t, err)
	require.NotSame(t, a, plain)

	found, ok := g.Writers().Lookup("store", "b", "a")
	require.True(t, ok)
	require.Same(t, a, found)
}

func TestNameAndTagValidation(t *testing.T) {
	t.Parallel()

	g := New()
	_, err := g.GetWriter("")
	require.ErrorIs(t, err, ErrBlankName)
	_, err = g.GetWriter("line\nbreak")
	require.ErrorIs(t, err, ErrNameLineBreak)

	_, err = g.GetTaggedWriter("w", "")
	require.ErrorIs(t, err, ErrEmptyTag)
	_, err = g.GetTaggedWriter("w", "sp ace")
	require.ErrorIs(t, err, ErrTagChars)
	_, err = g.GetTaggedWriter("w", "pipe|")
	require.ErrorIs(t, err, ErrTagChars)

	// Letters, digits and the allowed punctuation pass, unicode letters
	// included.
	_, err = g.GetTaggedWriter("w", "v1.2-rc:3", "caché", "x_(y)#<z>")
	require.NoError(t, err)

	// A rejected call leaves nothing registered.
	writersBefore := g.Writers().Len()
	tagsBefore := g.Writers().TagCount()
	_, err = g.GetTaggedWriter("w2", "ok", "bad tag")
	require.ErrorIs(t, err, ErrTagChars)
	require.Equal(t, writersBefore, g.Writers().Len())
	require.Equal(t, tagsBefore, g.Writers().TagCount())
}

func TestTagDerivation(t *testing.T) {
	t.Parallel()

	g := New()
	base, err := g.GetWriter("render")
	require.NoError(t, err)

	gpu, err := base.WithTag("gpu")
	require.NoError(t, err)
	require.NotSame(t, base, gpu)
	require.Equal(t, []string{"gpu"}, gpu.Tags())
	require.Empty(t, base.Tags()) // derivation never mutates the source

	again, err := gpu.WithTag("gpu")
	require.NoError(t, err)
	require.Same(t, gpu, again)

	both, err := gpu.WithTags("vulkan", "gpu")
	require.NoError(t, err)
	require.Equal(t, []string{"gpu", "vulkan"}, both.Tags())

	// The same destination through another route: one identity.
	direct, err := g.GetTaggedWriter("render", "vulkan", "gpu")
	require.NoError(t, err)
	require.Same(t, both, direct)

	_, err = gpu.WithTag("")
	require.ErrorIs(t, err, ErrEmptyTag)
}

func TestGlobalTagTable(t *testing.T) {
	t.Parallel()

	g := New()
	_, err := g.GetTaggedWriter("a", "zeta")
	require.NoError(t, err)
	_, err = g.GetTaggedWriter("b", "alpha", "zeta")
	require.NoError(t, err)
	_, err = g.GetTaggedWriter("c", "alpha")
	require.NoError(t, err)

	// First-seen order, not sorted.
	require.Equal(t, []string{"zeta", "alpha"}, g.Writers().KnownTags())
	require.Equal(t, 2, g.Writers().TagCount())
}

type pipeline struct{}

type pair[K comparable, V any] struct {
	Key K
	Val V
}

func TestTypeDerivedNames(t *testing.T) {
	t.Parallel()

	g := New()

	w, err := g.GetWriterForType(reflect.TypeOf(bytes.Buffer{}))
	require.NoError(t, err)
	require.Equal(t, "bytes.Buffer", w.Name())

	p, err := g.GetWriterForType(reflect.TypeOf(&bytes.Buffer{}))
	require.NoError(t, err)
	require.Equal(t, "*bytes.Buffer", p.Name())

	local, err := g.GetWriterForType(reflect.TypeOf(pipeline{}))
	require.NoError(t, err)
	require.Equal(t, "github.com/trickstertwo/xgate.pipeline", local.Name())

	sl, err := g.GetWriterForType(reflect.TypeOf([]int(nil)))
	require.NoError(t, err)
	require.Equal(t, "[]int", sl.Name())

	ar, err := g.GetWriterForType(reflect.TypeOf([4]byte{}))
	require.NoError(t, err)
	require.Equal(t, "[4]uint8", ar.Name())

	mp, err := g.GetWriterForType(reflect.TypeOf(map[string][]pipeline(nil)))
	require.NoError(t, err)
	require.Equal(t, "map[string][]github.com/trickstertwo/xgate.pipeline", mp.Name())

	ch, err := g.GetWriterForType(reflect.TypeOf((chan pipeline)(nil)))
	require.NoError(t, err)
	require.Equal(t, "chan github.com/trickstertwo/xgate.pipeline", ch.Name())

	recv, err := g.GetWriterForType(reflect.TypeOf((<-chan int)(nil)))
	require.NoError(t, err)
	require.Equal(t, "<-chan int", recv.Name())

	_, err = g.GetWriterForType(nil)
	require.ErrorIs(t, err, ErrNilType)
}

func TestForGeneric(t *testing.T) {
	t.Parallel()

	g := New()
	w := For[pipeline](g)
	require.Equal(t, "github.com/trickstertwo/xgate.pipeline", w.Name())

	again, err := g.GetWriterForType(reflect.TypeOf(pipeline{}))
	require.NoError(t, err)
	require.Same(t, w, again)

	// Instantiated generics carry their arguments in the derived name.
	pw := For[pair[int, string]](g)
	require.True(t, strings.HasPrefix(pw.Name(), "github.com/trickstertwo/xgate.pair["))
	require.Same(t, pw, For[pair[int, string]](g))
	require.NotSame(t, pw, For[pair[int, int]](g))

	bp := For[*bytes.Buffer](g)
	require.Equal(t, "*bytes.Buffer", bp.Name())
}

func TestWriterAndTagObservers(t *testing.T) {
	// Freeze time for deterministic event timestamps.
	old := xclock.Default()
	defer xclock.SetDefault(old)
	ft := time.Date(2027, 3, 14, 9, 26, 53, 0, time.UTC)
	xclock.SetDefault(xclock.NewFrozen(ft))

	g := New()
	var writers []WriterRegistration
	var tags []TagRegistration
	g.Writers().AddObserver(WriterObserverFunc(func(r WriterRegistration) {
		writers = append(writers, r)
	}))
	g.Writers().AddTagObserver(TagObserverFunc(func(r TagRegistration) {
		tags = append(tags, r)
	}))
	g.Writers().AddObserver(nil)    // ignored
	g.Writers().AddTagObserver(nil) // ignored

	w, err := g.GetTaggedWriter("cache", "lru", "hot")
	require.NoError(t, err)

	// The same identity again produces no further events.
	_, err = g.GetTaggedWriter("cache", "hot", "lru")
	require.NoError(t, err)

	require.Len(t, writers, 1)
	require.Same(t, w, writers[0].Writer)
	require.True(t, writers[0].At.Equal(ft))

	require.Len(t, tags, 2)
	require.Equal(t, "hot", tags[0].Tag)
	require.Equal(t, "lru", tags[1].Tag)
	for _, tr := range tags {
		require.True(t, tr.At.Equal(ft))
	}

	// A derivation that changes nothing announces nothing.
	d, err := w.WithTag("hot")
	require.NoError(t, err)
	require.Same(t, w, d)
	require.Len(t, writers, 1)

	// A new identity reusing known tags only announces the writer.
	n, err := w.WithTag("cold")
	require.NoError(t, err)
	require.Len(t, writers, 2)
	require.Same(t, n, writers[1].Writer)
	require.Len(t, tags, 3)
	require.Equal(t, "cold", tags[2].Tag)
}

func TestConcurrentWriterConvergence(t *testing.T) {
	t.Parallel()

	g := New()
	var created atomic.Int64
	g.Writers().AddObserver(WriterObserverFunc(func(WriterRegistration) {
		created.Add(1)
	}))

	const goroutines = 32
	results := make([]*Writer, goroutines)
	var eg errgroup.Group
	for i := 0; i < goroutines; i++ {
		eg.Go(func() error {
			w, err := g.GetTaggedWriter("shared", "x")
			if err != nil {
				return err
			}
			results[i] = w
			return nil
		})
	}
	require.NoError(t, eg.Wait())

	for _, w := range results {
		require.Same(t, results[0], w)
	}
	require.EqualValues(t, 1, created.Load())
	require.Equal(t, 1, g.Writers().Len())
}
