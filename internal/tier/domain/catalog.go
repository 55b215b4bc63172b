package domain

import (
	"sort"

	"github.com/bwmarrin/snowflake"
)

// Catalog is an immutable, rank-ordered tier ladder. Build one with
// NewCatalog; never mutate the backing slice after construction.
type Catalog struct {
	tiers []Tier
}

// NewCatalog validates and orders the ladder. The catalog must contain a
// zero-threshold baseline tier, ranks and thresholds must be unique, and
// thresholds must increase with rank.
func NewCatalog(tiers []Tier) (Catalog, error) {
	if len(tiers) == 0 {
		return Catalog{}, ErrCatalogEmpty
	}

	ordered := make([]Tier, len(tiers))
	copy(ordered, tiers)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Rank < ordered[j].Rank })

	if ordered[0].QualifyingThreshold != 0 {
		return Catalog{}, ErrNoBaselineTier
	}

	for i := 1; i < len(ordered); i++ {
		if ordered[i].Rank == ordered[i-1].Rank {
			return Catalog{}, ErrDuplicateRank
		}
		if ordered[i].QualifyingThreshold == ordered[i-1].QualifyingThreshold {
			return Catalog{}, ErrDuplicateThresh
		}
		if ordered[i].QualifyingThreshold < ordered[i-1].QualifyingThreshold {
			// Monotonic ladder assumed; a threshold below a lower rank's
			// would make the higher rank unreachable by rank order.
			return Catalog{}, ErrDuplicateThresh
		}
	}

	return Catalog{tiers: ordered}, nil
}

// Tiers returns the ladder rank-ascending. Callers must not modify it.
func (c Catalog) Tiers() []Tier {
	return c.tiers
}

// Len reports the number of tiers.
func (c Catalog) Len() int { return len(c.tiers) }

// Baseline returns the zero-threshold tier.
func (c Catalog) Baseline() Tier {
	return c.tiers[0]
}

// Evaluate maps a qualifying metric onto the ladder. Among tiers whose
// threshold is at or below the metric the highest rank wins; if none
// qualify the baseline tier is returned. NextTier is the lowest-rank tier
// with a threshold above the metric, nil at the top of the ladder.
func (c Catalog) Evaluate(metric int64) Evaluation {
	current := c.tiers[0]
	var next *Tier

	for i := range c.tiers {
		t := c.tiers[i]
		if t.QualifyingThreshold <= metric {
			current = t
			continue
		}
		next = &c.tiers[i]
		break
	}

	var pointsToNext int64
	if next != nil {
		pointsToNext = next.QualifyingThreshold - metric
	}

	return Evaluation{
		Tier:         current,
		NextTier:     next,
		PointsToNext: pointsToNext,
	}
}

// FindByID returns the tier with the given id, or false.
func (c Catalog) FindByID(id snowflake.ID) (Tier, bool) {
	for _, t := range c.tiers {
		if t.ID == id {
			return t, true
		}
	}
	return Tier{}, false
}
