package service

import (
	"sort"

	"github.com/noah-isme/drrm-training-api/internal/models"
)

// AggregateCoverage counts applicants per municipality and barangay and rates each
// against the population reference. It never fails; missing data degrades to
// "N/A" populations and 0% coverage.
func AggregateCoverage(applicants []models.ApplicantLocation, ref models.PopulationReference, cfg models.CoverageConfig) map[string]models.CoverageStat {
	stats := make(map[string]models.CoverageStat)

	for _, applicant := range applicants {
		municipality := orDefault(applicant.Municipality, models.UnknownMunicipality)
		barangay := orDefault(applicant.Barangay, models.UnknownBarangay)

		stat, ok := stats[municipality]
		if !ok {
			population, _ := ref.Municipality(municipality)
			stat = models.CoverageStat{
				TotalPopulation: population.TotalPopulation,
				Barangays:       make(map[string]models.BarangayCoverage),
			}
		}
		stat.TotalApplicants++

		entry, ok := stat.Barangays[barangay]
		if !ok {
			population, _ := ref.Municipality(municipality)
			entry.TotalPopulation = population.Barangay(barangay)
		}
		entry.Applicants++
		stat.Barangays[barangay] = entry
		stats[municipality] = stat
	}

	for name, stat := range stats {
		stat.CoveragePercent, stat.Tier = rate(stat.TotalApplicants, stat.TotalPopulation, cfg.Municipality)
		for barangay, entry := range stat.Barangays {
			entry.CoveragePercent, entry.Tier = rate(entry.Applicants, entry.TotalPopulation, cfg.Barangay)
			stat.Barangays[barangay] = entry
		}
		stats[name] = stat
	}
	return stats
}

// ClassifyCoverage returns the message of the highest threshold not above pct,
// or "" when every threshold is higher.
func ClassifyCoverage(pct float64, tiers []models.CoverageTier) string {
	sorted := append([]models.CoverageTier(nil), tiers...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Threshold > sorted[j].Threshold })
	for _, tier := range sorted {
		if tier.Threshold <= pct {
			return tier.Message
		}
	}
	return ""
}

func rate(applicants int, population models.PopulationCount, tiers []models.CoverageTier) (float64, string) {
	if !population.Positive() {
		return 0, models.TierPopulationNotSet
	}
	pct := float64(applicants) / population.Value * 100
	return pct, ClassifyCoverage(pct, tiers)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
