package model

import (
	"errors"
	"fmt"
)

// SeasonList assigns integer ordinals to season identifiers from an
// explicitly supplied chronological sequence. Season IDs are opaque strings
// here; their order is never inferred from string comparison.
type SeasonList struct {
	ids     []string
	ordinal map[string]int
}

// NewSeasonList builds a SeasonList from seasons listed oldest first.
func NewSeasonList(ids []string) (*SeasonList, error) {
	if len(ids) == 0 {
		return nil, errors.New("season list must not be empty")
	}
	s := &SeasonList{
		ids:     make([]string, len(ids)),
		ordinal: make(map[string]int, len(ids)),
	}
	copy(s.ids, ids)
	for i, id := range ids {
		if _, dup := s.ordinal[id]; dup {
			return nil, fmt.Errorf("duplicate season %q", id)
		}
		s.ordinal[id] = i
	}
	return s, nil
}

// Ordinal returns the chronological index of id, oldest season first.
func (s *SeasonList) Ordinal(id string) (int, error) {
	ord, ok := s.ordinal[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrSeasonUnknown, id)
	}
	return ord, nil
}

// Contains reports whether id is a known season.
func (s *SeasonList) Contains(id string) bool {
	_, ok := s.ordinal[id]
	return ok
}

// IDs returns the seasons oldest first.
func (s *SeasonList) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Len returns the number of seasons.
func (s *SeasonList) Len() int { return len(s.ids) }
