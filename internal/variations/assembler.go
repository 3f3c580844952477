package variations

import (
	"github.com/google/uuid"

	"github.com/headline-goat/variant-chrome/internal/store"
)

// Descriptor is one entry of the testVariations chrome payload.
type Descriptor struct {
	GUID     string   `json:"guid"`
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	IsActive bool     `json:"isActive"`
	Score    *float64 `json:"score,omitempty"`
}

// Scorer supplies engagement scores per variant.
type Scorer interface {
	ScoreFor(id uuid.UUID) float64
}

// Assemble lists the variants of tv in declared order. Scores are attached
// only when scorer is non-nil. The result is never nil.
func Assemble(tv *store.TestValue, scorer Scorer) []Descriptor {
	variants := tv.Variable().Variants
	out := make([]Descriptor, 0, len(variants))

	for _, v := range variants {
		d := Descriptor{
			GUID:     v.ID.String(),
			ID:       v.ShortID(),
			Name:     v.Name,
			IsActive: v.ID == tv.ActiveVariantID,
		}
		if scorer != nil {
			score := scorer.ScoreFor(v.ID)
			d.Score = &score
		}
		out = append(out, d)
	}

	return out
}
