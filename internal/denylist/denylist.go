package denylist

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/contentguard/internal/model"
)

// KeywordTiers holds the keyword additions introduced at each level.
type KeywordTiers struct {
	Light  []string `yaml:"light"`
	Strong []string `yaml:"strong"`
	Strict []string `yaml:"strict"`
}

// Lists holds the raw category lists the lattice is composed from.
type Lists struct {
	Adult     []string     `yaml:"adult"`
	Dating    []string     `yaml:"dating"`
	Gambling  []string     `yaml:"gambling"`
	Proxy     []string     `yaml:"proxy"`
	Gaming    []string     `yaml:"gaming"`
	Streaming []string     `yaml:"streaming"`
	Social    []string     `yaml:"social"`
	Vital     []string     `yaml:"vital"`
	Keywords  KeywordTiers `yaml:"keywords"`
}

// Lattice maps each protection level to its effective domain and keyword
// sets. Each level is built by appending to the level below it, so
// Domains(a) ⊆ Domains(b) whenever a ≤ b.
type Lattice struct {
	domains  map[model.ProtectionLevel][]string
	keywords map[model.ProtectionLevel][]string
	vital    []string
	raw      Lists
}

// New composes a Lattice from raw lists. Entries are lowercased and blanks
// dropped.
func New(l Lists) *Lattice {
	lat := &Lattice{
		domains:  make(map[model.ProtectionLevel][]string, len(model.Levels)),
		keywords: make(map[model.ProtectionLevel][]string, len(model.Levels)),
		raw:      l,
	}

	light := grow(nil, l.Adult)
	strong := grow(light, l.Dating, l.Gambling, l.Proxy)
	strict := grow(strong, l.Gaming, l.Streaming, l.Social)

	lat.domains[model.LevelOff] = []string{}
	lat.domains[model.LevelLight] = light
	lat.domains[model.LevelStrong] = strong
	lat.domains[model.LevelStrict] = strict

	kLight := grow(nil, l.Keywords.Light)
	kStrong := grow(kLight, l.Keywords.Strong)
	kStrict := grow(kStrong, l.Keywords.Strict)

	lat.keywords[model.LevelOff] = []string{}
	lat.keywords[model.LevelLight] = kLight
	lat.keywords[model.LevelStrong] = kStrong
	lat.keywords[model.LevelStrict] = kStrict

	lat.vital = grow(nil, l.Adult, l.Vital)

	return lat
}

// NewDefault creates a Lattice from the built-in lists.
func NewDefault() *Lattice {
	return New(DefaultLists)
}

// Load reads category lists from a YAML file. Categories the file names
// replace the built-in ones; the rest keep their defaults. Falls back to
// defaults if the file doesn't exist.
func Load(path string) (*Lattice, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return NewDefault(), nil
		}
		path = filepath.Join(home, ".contentguard", "denylist.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewDefault(), nil
		}
		return nil, fmt.Errorf("denylist: read %s: %w", path, err)
	}

	l := DefaultLists
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("denylist: parse %s: %w", path, err)
	}

	return New(l), nil
}

// Domains returns the domains blocked at level. Unknown levels block nothing.
// The returned slice must not be modified.
func (l *Lattice) Domains(level model.ProtectionLevel) []string {
	if d, ok := l.domains[level]; ok {
		return d
	}
	return []string{}
}

// Keywords returns the keywords blocked at level.
// The returned slice must not be modified.
func (l *Lattice) Keywords(level model.ProtectionLevel) []string {
	if k, ok := l.keywords[level]; ok {
		return k
	}
	return []string{}
}

// VitalDomains returns the adult list plus the vital extras.
func (l *Lattice) VitalDomains() []string {
	return l.vital
}

// Lists returns the raw lists the lattice was built from.
func (l *Lattice) Lists() Lists {
	return l.raw
}

// grow returns a new slice holding base followed by every non-blank entry
// of adds, lowercased. base is never aliased.
func grow(base []string, adds ...[]string) []string {
	n := len(base)
	for _, a := range adds {
		n += len(a)
	}
	out := make([]string, 0, n)
	out = append(out, base...)
	for _, a := range adds {
		for _, s := range a {
			s = strings.ToLower(strings.TrimSpace(s))
			if s == "" {
				continue
			}
			out = append(out, s)
		}
	}
	return out
}

var defaultLattice = NewDefault()

// Default returns the lattice built from the built-in lists.
func Default() *Lattice {
	return defaultLattice
}

// BlocklistForLevel returns the default domain set for level.
func BlocklistForLevel(level model.ProtectionLevel) []string {
	return defaultLattice.Domains(level)
}

// KeywordsForLevel returns the default keyword set for level.
func KeywordsForLevel(level model.ProtectionLevel) []string {
	return defaultLattice.Keywords(level)
}

// VitalDomains returns the default vital domain set.
func VitalDomains() []string {
	return defaultLattice.VitalDomains()
}

// LevelRank returns the lattice position of level.
func LevelRank(level model.ProtectionLevel) int {
	return level.Rank()
}

// IsDowngrade reports whether moving from one level to another lowers protection.
func IsDowngrade(from, to model.ProtectionLevel) bool {
	return model.IsDowngrade(from, to)
}
