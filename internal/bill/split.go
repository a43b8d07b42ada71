package bill

import (
	"errors"
	"math"
)

// ErrNoParticipants is returned when a split is requested for an empty
// participant set.
var ErrNoParticipants = errors.New("at least one participant is required")

// Split is the computed per-person result. Individual covers item shares
// only; Final adds each person's even share of tax and tip. Amounts are
// dollars rounded to two decimal places.
type Split struct {
	Individual     map[string]float64 `json:"individual"`
	Final          map[string]float64 `json:"final"`
	PerPersonShare float64            `json:"per_person_share"`
}

// ComputeSplit divides each item's price evenly among its sharers and
// spreads tax and tip evenly across all participants, whether or not they
// were allocated any item. Items with no sharers contribute to no one.
// Accumulation is unrounded; rounding happens once on the returned values.
func ComputeSplit(b *Bill, allocations map[string][]string, participants []string) (*Split, error) {
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}

	individual := make(map[string]float64, len(participants))
	for _, p := range participants {
		individual[p] = 0
	}

	for _, item := range b.Items {
		sharers := allocations[item.ID]
		if len(sharers) == 0 {
			continue
		}
		share := float64(item.PriceCents) / 100 / float64(len(sharers))
		for _, p := range sharers {
			// Stale sharers from a replaced participant list are skipped.
			if _, ok := individual[p]; ok {
				individual[p] += share
			}
		}
	}

	perPerson := float64(b.TaxCents+b.TipCents) / 100 / float64(len(participants))

	final := make(map[string]float64, len(participants))
	for p, cost := range individual {
		final[p] = round2(cost + perPerson)
		individual[p] = round2(cost)
	}

	return &Split{
		Individual:     individual,
		Final:          final,
		PerPersonShare: round2(perPerson),
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
