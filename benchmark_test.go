package xgate

import (
	"strconv"
	"testing"
)

// blackhole variables prevent compiler from optimizing away code paths.
var (
	bhB bool
	bhW *Writer
)

func newBenchGate() (*Gate, *Writer) {
	g := New()
	w, err := g.GetTaggedWriter("bench.httpd", "edge", "tls")
	if err != nil {
		panic(err)
	}
	return g, w
}

func BenchmarkGateCheck_Active(b *testing.B) {
	g, w := newBenchGate()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bhB = g.IsLogLevelActive(w, LevelError)
	}
}

func BenchmarkGateCheck_Inactive(b *testing.B) {
	g, w := newBenchGate()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bhB = g.IsLogLevelActive(w, LevelTrace)
	}
}

func BenchmarkGateCheck_Sentinels(b *testing.B) {
	g, w := newBenchGate()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bhB = g.IsLogLevelActive(w, LevelAll)
		bhB = g.IsLogLevelActive(w, LevelNone)
	}
}

func BenchmarkGateCheck_Parallel(b *testing.B) {
	g, w := newBenchGate()
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			bhB = g.IsLogLevelActive(w, LevelNotice)
		}
	})
}

// Gate checks while installs churn in the background: readers stay on the
// atomic-load fast path throughout.
func BenchmarkGateCheck_InstallChurn(b *testing.B) {
	g, w := newBenchGate()
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		on := NewThresholdConfiguration(LevelTrace)
		off := NewThresholdConfiguration(LevelError)
		for {
			select {
			case <-stop:
				return
			default:
			}
			_, _ = g.InstallConfiguration(on)
			_, _ = g.InstallConfiguration(off)
		}
	}()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bhB = g.IsLogLevelActive(w, LevelNotice)
	}
	b.StopTimer()
	close(stop)
	<-done
}

func BenchmarkGetWriter_Hit(b *testing.B) {
	g, _ := newBenchGate()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w, err := g.GetWriter("bench.httpd")
		if err != nil {
			b.Fatal(err)
		}
		bhW = w
	}
}

func BenchmarkWithTag_Unchanged(b *testing.B) {
	_, w := newBenchGate()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d, err := w.WithTag("edge")
		if err != nil {
			b.Fatal(err)
		}
		bhW = d
	}
}

func BenchmarkInstall_1000Writers(b *testing.B) {
	g := New()
	for i := 0; i < 1000; i++ {
		if _, err := g.GetWriter("w-" + strconv.Itoa(i)); err != nil {
			b.Fatal(err)
		}
	}
	on := NewThresholdConfiguration(LevelTrace)
	off := NewThresholdConfiguration(LevelError)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if i%2 == 0 {
			_, _ = g.InstallConfiguration(on)
		} else {
			_, _ = g.InstallConfiguration(off)
		}
	}
}
