package services

import "math"

const distributionSensitivity = 2.0

// DistributionBalancer nudges rarely recommended fragrances upward so the catalog rotates.
type DistributionBalancer struct {
	stats StatsStore
}

// NewDistributionBalancer reads usage counts from stats.
func NewDistributionBalancer(stats StatsStore) *DistributionBalancer {
	return &DistributionBalancer{stats: stats}
}

// Bonus returns max(0, (average usage - usage of fragranceID) * 2).
func (b *DistributionBalancer) Bonus(fragranceID int) float64 {
	if b == nil || b.stats == nil {
		return 0
	}
	return usageBonus(b.stats.Average(), b.stats.Count(fragranceID))
}

// Adjust adds the usage bonus to base. The result is not clamped and may exceed 100.
func (b *DistributionBalancer) Adjust(fragranceID int, base float64) float64 {
	return base + b.Bonus(fragranceID)
}

func usageBonus(average float64, count int) float64 {
	return math.Max(0, (average-float64(count))*distributionSensitivity)
}
