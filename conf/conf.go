// Package conf loads declarative gating policy from configuration files
// and compiles it into an xgate.Configuration.
//
// A policy file names a default severity threshold plus any number of
// rules; each rule widens the active set for the writers it matches by
// name pattern or tag. Level names resolve against the gate's registry,
// severities case-insensitively; unknown names register as aspects.
package conf

import (
	"fmt"
	"path"
	"strings"

	"github.com/spf13/viper"

	"github.com/trickstertwo/xgate"
)

// Settings is the file form of a gating policy.
type Settings struct {
	// Default names the severity threshold applied to every writer before
	// rules are considered. Empty means xgate.DefaultThreshold.
	Default string `mapstructure:"default"`
	// Rules widen the active set; they never narrow it.
	Rules []Rule `mapstructure:"rules"`
}

// Rule activates additional levels for the writers it matches.
type Rule struct {
	// Writers holds path.Match patterns tested against writer names.
	Writers []string `mapstructure:"writers"`
	// Tags selects writers carrying any of the listed tags.
	Tags []string `mapstructure:"tags"`
	// Levels lists individual level names the rule activates.
	Levels []string `mapstructure:"levels"`
	// Threshold names a level; the rule activates it and everything more
	// severe.
	Threshold string `mapstructure:"threshold"`
}

// Load reads the policy file at pathname into Settings. The decoder follows
// the file extension (yaml, toml, json).
func Load(pathname string) (*Settings, error) {
	v := viper.New()
	v.SetConfigFile(pathname)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("conf: read %s: %w", pathname, err)
	}
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("conf: decode %s: %w", pathname, err)
	}
	return &s, nil
}

// Configuration compiles s against g's level registry and returns the
// resulting policy. All level names resolve now, so the returned policy
// never touches the registry from Compute.
func (s *Settings) Configuration(g *xgate.Gate) (xgate.Configuration, error) {
	base := xgate.DefaultThreshold
	if s.Default != "" {
		lvl, err := resolve(g, s.Default)
		if err != nil {
			return nil, err
		}
		base = lvl
	}
	baseMask := xgate.ThresholdMask(base)

	rules := make([]compiledRule, 0, len(s.Rules))
	for i := range s.Rules {
		cr, err := compileRule(g, &s.Rules[i])
		if err != nil {
			return nil, err
		}
		rules = append(rules, cr)
	}

	return xgate.ConfigurationFunc(func(w *xgate.Writer) xgate.BitMask {
		mask := baseMask
		for _, r := range rules {
			if r.matches(w) {
				mask = mask.Or(r.mask)
			}
		}
		return mask
	}), nil
}

// compiledRule is a Rule with its level selection baked into one mask.
type compiledRule struct {
	patterns []string
	tags     map[string]struct{}
	mask     xgate.BitMask
}

func compileRule(g *xgate.Gate, r *Rule) (compiledRule, error) {
	cr := compiledRule{patterns: r.Writers}
	if len(r.Tags) > 0 {
		cr.tags = make(map[string]struct{}, len(r.Tags))
		for _, t := range r.Tags {
			cr.tags[t] = struct{}{}
		}
	}

	mask := xgate.Zeros
	if r.Threshold != "" {
		lvl, err := resolve(g, r.Threshold)
		if err != nil {
			return compiledRule{}, err
		}
		mask = mask.Or(xgate.ThresholdMask(lvl))
	}
	for _, name := range r.Levels {
		lvl, err := resolve(g, name)
		if err != nil {
			return compiledRule{}, err
		}
		mask = mask.Or(xgate.MaskOf(lvl))
	}
	cr.mask = mask
	return cr, nil
}

func (r *compiledRule) matches(w *xgate.Writer) bool {
	for _, pat := range r.patterns {
		if ok, err := path.Match(pat, w.Name()); err == nil && ok {
			return true
		}
	}
	if len(r.tags) > 0 {
		for _, t := range w.Tags() {
			if _, ok := r.tags[t]; ok {
				return true
			}
		}
	}
	return false
}

// resolve finds a level by name. Exact matches (sentinels included) win;
// predefined levels also match case-insensitively; anything else registers
// as an aspect on g.
func resolve(g *xgate.Gate, name string) (xgate.Level, error) {
	if lvl, ok := g.Levels().ByName(name); ok {
		return lvl, nil
	}
	for _, lvl := range g.Levels().Predefined() {
		if strings.EqualFold(lvl.Name, name) {
			return lvl, nil
		}
	}
	if strings.EqualFold(name, xgate.LevelNone.Name) {
		return xgate.LevelNone, nil
	}
	if strings.EqualFold(name, xgate.LevelAll.Name) {
		return xgate.LevelAll, nil
	}
	lvl, err := g.RegisterAspect(name)
	if err != nil {
		return xgate.Level{}, fmt.Errorf("conf: level %q: %w", name, err)
	}
	return lvl, nil
}
