package xgate

// Configuration decides which levels are active for each writer. The Gate
// calls Compute once when a writer is created and once per known writer when
// the configuration is installed; the returned mask is cached until the next
// install. The Gate does not copy the mask, so implementations must not
// retain and mutate it.
//
// Implementations MUST be safe for concurrent use and MUST NOT call back
// into the Gate they are installed on.
type Configuration interface {
	Compute(w *Writer) BitMask
}

// ConfigurationFunc adapts a plain function to a Configuration.
type ConfigurationFunc func(w *Writer) BitMask

func (f ConfigurationFunc) Compute(w *Writer) BitMask { return f(w) }

// NewThresholdConfiguration returns the policy that activates, for every
// writer alike, the severities at or above min and nothing else.
func NewThresholdConfiguration(min Level) Configuration {
	mask := ThresholdMask(min)
	return ConfigurationFunc(func(*Writer) BitMask { return mask })
}

// ThresholdMask returns the mask with bits 0 through min.ID set: min and
// everything more severe. LevelNone yields Zeros, LevelAll yields Ones.
func ThresholdMask(min Level) BitMask {
	switch min.ID {
	case LevelAll.ID:
		return Ones
	case LevelNone.ID:
		return Zeros
	}
	m, err := NewBitMask(int(min.ID)+1, false, false)
	if err != nil {
		return Zeros
	}
	if err := m.SetBits(0, int(min.ID)+1); err != nil {
		return Zeros
	}
	return m
}
