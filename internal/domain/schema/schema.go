// Package schema defines the versioned feature list shared by the bulk and
// single-matchup build paths. A schema is constructed explicitly and passed
// into both paths; there is no module-level feature list, so a training/
// serving version skew surfaces at construction time instead of as silently
// shifted columns.
package schema

import (
	"fmt"

	"github.com/rinkrat/featurecast/internal/domain/model"
)

// Kind identifies how a feature is computed.
type Kind int

const (
	// KindRollingDiff is a home-minus-away rolling average differential.
	KindRollingDiff Kind = iota
	// KindSeasonDiff is a home-minus-away season-to-date differential.
	KindSeasonDiff
	// KindSituational is a matchup-context flag.
	KindSituational
	// KindInteraction multiplies a base feature by a situational flag.
	KindInteraction
	// KindCalibration is a 0/1 indicator for a watch-list team.
	KindCalibration
)

// Situational flag names usable as features and interaction modifiers.
const (
	FlagRestDaysHome   = "rest_days_home"
	FlagRestDaysAway   = "rest_days_away"
	FlagRestDiff       = "rest_diff"
	FlagBackToBackHome = "back_to_back_home"
	FlagBackToBackAway = "back_to_back_away"
	FlagDivisional     = "divisional"
	FlagTravelKm       = "travel_km"
	FlagPostBreakHome  = "post_break_home"
	FlagPostBreakAway  = "post_break_away"
)

// Side selects which team a calibration indicator watches.
type Side int

const (
	// SideHome fires when the watched team is at home.
	SideHome Side = iota
	// SideAway fires when the watched team is away.
	SideAway
	// SideEither fires when the watched team is in the matchup at all.
	SideEither
)

// Recipe describes how to compute one feature. Exactly the fields relevant
// to its Kind are set.
type Recipe struct {
	Kind   Kind
	Stat   string // rolling and season diffs
	Window int    // rolling diffs
	Flag   string // situational features and interaction modifiers
	Base   string // interaction base feature name
	Team   string // calibration target
	Side   Side   // calibration side
}

// Schema is an immutable, ordered, versioned feature list.
type Schema struct {
	version string
	names   []string
	recipes map[string]Recipe
}

// Builder accumulates named recipes in order.
type Builder struct {
	version string
	names   []string
	recipes map[string]Recipe
	err     error
}

// NewBuilder starts a schema with the given version tag.
func NewBuilder(version string) *Builder {
	return &Builder{
		version: version,
		recipes: make(map[string]Recipe),
	}
}

// Add appends a named recipe. Errors are held and reported by Build so call
// sites can chain adds.
func (b *Builder) Add(name string, r Recipe) *Builder {
	if b.err != nil {
		return b
	}
	if name == "" {
		b.err = fmt.Errorf("empty feature name")
		return b
	}
	if _, dup := b.recipes[name]; dup {
		b.err = fmt.Errorf("duplicate feature %q", name)
		return b
	}
	if err := validate(name, r); err != nil {
		b.err = err
		return b
	}
	b.names = append(b.names, name)
	b.recipes[name] = r
	return b
}

// Build finalizes the schema. Interaction bases must reference an already
// added non-interaction feature, so evaluation can never recurse.
func (b *Builder) Build() (*Schema, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.version == "" {
		return nil, fmt.Errorf("schema version must not be empty")
	}
	if len(b.names) == 0 {
		return nil, fmt.Errorf("schema %q has no features", b.version)
	}
	for name, r := range b.recipes {
		if r.Kind != KindInteraction {
			continue
		}
		base, ok := b.recipes[r.Base]
		if !ok {
			return nil, fmt.Errorf("interaction %q: %w: base %q", name, ErrUnknownFeature, r.Base)
		}
		if base.Kind == KindInteraction {
			return nil, fmt.Errorf("interaction %q: base %q is itself an interaction", name, r.Base)
		}
	}
	s := &Schema{
		version: b.version,
		names:   make([]string, len(b.names)),
		recipes: b.recipes,
	}
	copy(s.names, b.names)
	return s, nil
}

func validate(name string, r Recipe) error {
	switch r.Kind {
	case KindRollingDiff:
		if !model.HasStat(r.Stat) {
			return fmt.Errorf("feature %q: %w", name, model.ErrUnknownStat)
		}
		if r.Window <= 0 {
			return fmt.Errorf("feature %q: window must be positive", name)
		}
	case KindSeasonDiff:
		if !model.HasStat(r.Stat) {
			return fmt.Errorf("feature %q: %w", name, model.ErrUnknownStat)
		}
	case KindSituational:
		if !knownFlag(r.Flag) {
			return fmt.Errorf("feature %q: %w: flag %q", name, ErrUnknownFeature, r.Flag)
		}
	case KindInteraction:
		if r.Base == "" || !knownFlag(r.Flag) {
			return fmt.Errorf("feature %q: interaction needs base and flag", name)
		}
	case KindCalibration:
		if r.Team == "" {
			return fmt.Errorf("feature %q: calibration needs a team", name)
		}
	default:
		return fmt.Errorf("feature %q: unknown recipe kind %d", name, r.Kind)
	}
	return nil
}

func knownFlag(flag string) bool {
	switch flag {
	case FlagRestDaysHome, FlagRestDaysAway, FlagRestDiff,
		FlagBackToBackHome, FlagBackToBackAway,
		FlagDivisional, FlagTravelKm,
		FlagPostBreakHome, FlagPostBreakAway:
		return true
	}
	return false
}

// Version returns the schema's version tag.
func (s *Schema) Version() string { return s.version }

// Names returns the feature names in schema order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of features.
func (s *Schema) Len() int { return len(s.names) }

// Recipe resolves a feature name, or ErrUnknownFeature.
func (s *Schema) Recipe(name string) (Recipe, error) {
	r, ok := s.recipes[name]
	if !ok {
		return Recipe{}, fmt.Errorf("%w: %s", ErrUnknownFeature, name)
	}
	return r, nil
}

// Index returns each feature's position in schema order.
func (s *Schema) Index() map[string]int {
	idx := make(map[string]int, len(s.names))
	for i, name := range s.names {
		idx[name] = i
	}
	return idx
}

// DefaultParams configures the stock schema layout.
type DefaultParams struct {
	// RollingStats are rolled up over each window in Windows.
	RollingStats []string
	Windows      []int
	// SeasonStats get season-to-date differentials.
	SeasonStats []string
	// WatchTeams each get home/away/either calibration indicators.
	WatchTeams []string
}

// Default assembles the stock schema: rolling diffs per stat and window,
// season diffs, the full situational block, divisional and back-to-back
// interactions on the widest rolling goal differential, and calibration
// indicators for the watch list.
func Default(version string, p DefaultParams) (*Schema, error) {
	b := NewBuilder(version)

	for _, stat := range p.RollingStats {
		for _, w := range p.Windows {
			name := fmt.Sprintf("rolling_%s_%d_diff", stat, w)
			b.Add(name, Recipe{Kind: KindRollingDiff, Stat: stat, Window: w})
		}
	}
	for _, stat := range p.SeasonStats {
		b.Add(fmt.Sprintf("season_%s_diff", stat), Recipe{Kind: KindSeasonDiff, Stat: stat})
	}

	for _, flag := range []string{
		FlagRestDaysHome, FlagRestDaysAway, FlagRestDiff,
		FlagBackToBackHome, FlagBackToBackAway,
		FlagDivisional, FlagTravelKm,
		FlagPostBreakHome, FlagPostBreakAway,
	} {
		b.Add(flag, Recipe{Kind: KindSituational, Flag: flag})
	}

	if base := widestRollingGoalDiff(p); base != "" {
		b.Add(base+"_x_divisional", Recipe{Kind: KindInteraction, Base: base, Flag: FlagDivisional})
		b.Add(base+"_x_b2b_away", Recipe{Kind: KindInteraction, Base: base, Flag: FlagBackToBackAway})
	}

	for _, team := range p.WatchTeams {
		b.Add(fmt.Sprintf("cal_%s_home", team), Recipe{Kind: KindCalibration, Team: team, Side: SideHome})
		b.Add(fmt.Sprintf("cal_%s_away", team), Recipe{Kind: KindCalibration, Team: team, Side: SideAway})
		b.Add(fmt.Sprintf("cal_%s_any", team), Recipe{Kind: KindCalibration, Team: team, Side: SideEither})
	}

	return b.Build()
}

func widestRollingGoalDiff(p DefaultParams) string {
	hasGoalDiff := false
	for _, stat := range p.RollingStats {
		if stat == "goal_diff" {
			hasGoalDiff = true
			break
		}
	}
	if !hasGoalDiff || len(p.Windows) == 0 {
		return ""
	}
	widest := p.Windows[0]
	for _, w := range p.Windows[1:] {
		if w > widest {
			widest = w
		}
	}
	return fmt.Sprintf("rolling_goal_diff_%d_diff", widest)
}
