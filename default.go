package xgate

import "sync/atomic"

// Process-wide Gate (Singleton). Unlike an output sink, the gating core has
// a meaningful zero configuration, so the default builds itself on first use
// instead of demanding setup.
var defaultGate atomic.Pointer[Gate]

// Default returns the process-wide Gate, creating it on first use.
func Default() *Gate {
	if g := defaultGate.Load(); g != nil {
		return g
	}
	fresh := New()
	if defaultGate.CompareAndSwap(nil, fresh) {
		return fresh
	}
	return defaultGate.Load()
}

// SetDefault replaces the process-wide Gate (Singleton setter). Writers
// already handed out keep gating against the Gate that created them. nil is
// ignored.
func SetDefault(g *Gate) {
	if g == nil {
		return
	}
	defaultGate.Store(g)
}
