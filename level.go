package xgate

import (
	"math"
	"strings"
)

// Level is a named, stable-id classification of a log statement. Severities
// are predefined with ids 0..8, most severe first; aspects carry ids from
// FirstAspectID upward and, apart from Timing, are registered at runtime.
// Level is a comparable value type.
type Level struct {
	ID   int32
	Name string
}

// Sentinel pseudo-levels. Neither occupies mask storage: the gate check
// answers for them before consulting any mask.
var (
	// LevelNone matches nothing when asked as an emission level, and
	// everything when used as a filter threshold.
	LevelNone = Level{ID: -1, Name: "None"}
	// LevelAll matches everything.
	LevelAll = Level{ID: math.MaxInt32, Name: "All"}
)

// Predefined severities, ids 0..8, most severe first, and the one predefined
// aspect, Timing.
var (
	LevelEmergency = Level{ID: 0, Name: "Emergency"}
	LevelAlert     = Level{ID: 1, Name: "Alert"}
	LevelCritical  = Level{ID: 2, Name: "Critical"}
	LevelError     = Level{ID: 3, Name: "Error"}
	LevelWarning   = Level{ID: 4, Name: "Warning"}
	LevelNotice    = Level{ID: 5, Name: "Notice"}
	LevelInfo      = Level{ID: 6, Name: "Info"}
	LevelDebug     = Level{ID: 7, Name: "Debug"}
	LevelTrace     = Level{ID: 8, Name: "Trace"}

	LevelTiming = Level{ID: FirstAspectID, Name: "Timing"}
)

const (
	// SeverityCount is the number of predefined severities.
	SeverityCount = 9
	// FirstAspectID is the id of the first non-severity predefined level.
	FirstAspectID int32 = 9
	// firstDynamicID is where runtime aspect registration starts.
	firstDynamicID int32 = 10
)

// DefaultThreshold is the severity floor of the built-in policy that is
// active until the first InstallConfiguration call.
var DefaultThreshold = LevelNotice

// predefined lists the compiled-in levels in id order, sentinels excluded.
var predefined = []Level{
	LevelEmergency, LevelAlert, LevelCritical, LevelError, LevelWarning,
	LevelNotice, LevelInfo, LevelDebug, LevelTrace, LevelTiming,
}

// Severity reports whether l is one of the predefined severities.
func (l Level) Severity() bool { return l.ID >= 0 && l.ID < SeverityCount }

// Aspect reports whether l is an aspect level, predefined or dynamic.
func (l Level) Aspect() bool { return l.ID >= FirstAspectID && l != LevelAll }

// Sentinel reports whether l is one of the None/All pseudo-levels.
func (l Level) Sentinel() bool { return l == LevelNone || l == LevelAll }

func (l Level) String() string { return l.Name }

// forbiddenNameChars are the line and paragraph separators a name may not
// contain. Any other character is allowed, including digits and punctuation.
const forbiddenNameChars = "\n\r\f\u2028\u2029"

// CheckName validates a level or writer name: non-empty, not whitespace
// only, free of line break characters. Both registries share this contract.
func CheckName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrBlankName
	}
	if strings.ContainsAny(name, forbiddenNameChars) {
		return ErrNameLineBreak
	}
	return nil
}

// MaskOf builds the smallest mask with the given levels' bits set.
// LevelAll yields Ones; LevelNone contributes nothing.
func MaskOf(levels ...Level) BitMask {
	maxID := -1
	for _, l := range levels {
		if l == LevelAll {
			return Ones
		}
		if l == LevelNone {
			continue
		}
		if int(l.ID) > maxID {
			maxID = int(l.ID)
		}
	}
	if maxID < 0 {
		return Zeros
	}
	m, err := NewBitMask(maxID+1, false, false)
	if err != nil {
		return Zeros
	}
	for _, l := range levels {
		if l.Sentinel() {
			continue
		}
		_ = m.SetBit(int(l.ID))
	}
	return m
}
