package services

import (
	"sort"

	"bid-coordinator/internal/domain"
)

// DefaultIncrementTiers is the house increment table.
var DefaultIncrementTiers = []domain.IncrementTier{
	{UpTo: 100, Increment: 5},
	{UpTo: 500, Increment: 10},
	{UpTo: 1000, Increment: 25},
	{UpTo: 5000, Increment: 50},
	{UpTo: 10000, Increment: 100},
	{UpTo: 0, Increment: 250},
}

var defaultSchedule = NewIncrementSchedule(DefaultIncrementTiers)

// CalculateMinIncrement returns the minimum raise over currentPrice under
// the default table.
func CalculateMinIncrement(currentPrice float64) float64 {
	return defaultSchedule.MinIncrement(currentPrice)
}

type IncrementSchedule struct {
	tiers []domain.IncrementTier
}

// NewIncrementSchedule orders the bounded tiers ascending and keeps the
// open-ended tier last. Without an open-ended tier the last bounded
// increment applies above every bound.
func NewIncrementSchedule(tiers []domain.IncrementTier) *IncrementSchedule {
	bounded := make([]domain.IncrementTier, 0, len(tiers))
	var top *domain.IncrementTier
	for i := range tiers {
		if tiers[i].UpTo <= 0 {
			t := tiers[i]
			top = &t
			continue
		}
		bounded = append(bounded, tiers[i])
	}
	sort.Slice(bounded, func(i, j int) bool { return bounded[i].UpTo < bounded[j].UpTo })
	if top != nil {
		bounded = append(bounded, *top)
	}
	return &IncrementSchedule{tiers: bounded}
}

func (s *IncrementSchedule) MinIncrement(price float64) float64 {
	if len(s.tiers) == 0 {
		return DefaultIncrementTiers[0].Increment
	}
	for _, t := range s.tiers {
		if t.UpTo <= 0 || price < t.UpTo {
			return t.Increment
		}
	}
	return s.tiers[len(s.tiers)-1].Increment
}

func (s *IncrementSchedule) MinimumBid(price float64) float64 {
	return price + s.MinIncrement(price)
}

func (s *IncrementSchedule) Tiers() []domain.IncrementTier {
	out := make([]domain.IncrementTier, len(s.tiers))
	copy(out, s.tiers)
	return out
}
