package xgate

// GateConfig for constructing a Gate (Factory data structure).
type GateConfig struct {
	Configuration   Configuration // optional; defaults to the Notice threshold
	LevelObservers  []LevelObserver
	WriterObservers []WriterObserver
	TagObservers    []TagObserver
}

// Builder separates construction from representation (Builder pattern).
type Builder struct {
	cfg GateConfig
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) WithConfiguration(c Configuration) *Builder {
	b.cfg.Configuration = c
	return b
}

func (b *Builder) AddLevelObserver(o LevelObserver) *Builder {
	b.cfg.LevelObservers = append(b.cfg.LevelObservers, o)
	return b
}

func (b *Builder) AddWriterObserver(o WriterObserver) *Builder {
	b.cfg.WriterObservers = append(b.cfg.WriterObservers, o)
	return b
}

func (b *Builder) AddTagObserver(o TagObserver) *Builder {
	b.cfg.TagObservers = append(b.cfg.TagObservers, o)
	return b
}

// Build constructs the Gate (Factory + Builder). Observers attach before
// the initial configuration installs, so nothing registered afterwards is
// missed.
func (b *Builder) Build() *Gate {
	g := New()
	for _, o := range b.cfg.LevelObservers {
		g.levels.AddObserver(o)
	}
	for _, o := range b.cfg.WriterObservers {
		g.writers.AddObserver(o)
	}
	for _, o := range b.cfg.TagObservers {
		g.writers.AddTagObserver(o)
	}
	if b.cfg.Configuration != nil {
		_, _ = g.InstallConfiguration(b.cfg.Configuration)
	}
	return g
}
