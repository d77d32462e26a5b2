package xgate

import "sync/atomic"

type stats struct {
	installs atomic.Uint64
}

// StatsSnapshot is a point-in-time counters snapshot: registry sizes plus
// the number of configuration installs since the Gate was built.
type StatsSnapshot struct {
	KnownLevels  int
	KnownWriters int
	KnownTags    int
	Installs     uint64
}
