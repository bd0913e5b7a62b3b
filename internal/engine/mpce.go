package engine

import (
	"sync"
	"time"
)

// CalculateInput is C6's public call shape (spec §4.6, §6).
type CalculateInput struct {
	Config   *Config
	RegionID RegionID
	StatusID StatusID

	Primary  *HouseholdMember
	Spouse   *HouseholdMember
	Children []HouseholdMember

	// PerPlanOptions is keyed by plan-id; a missing entry defaults to the
	// zero PlanCallOptions (no rollover, match, voluntary contribution, or
	// premium adjustment).
	PerPlanOptions map[PlanID]PlanCallOptions
}

// CalculateResult is C6's output: one PlanResult per plan offered in the
// requested region, in region order, plus the measured elapsed time.
type CalculateResult struct {
	Plans       []PlanResult
	ElapsedMsec float64
}

var markerCache = struct {
	mu    sync.Mutex
	marks map[*Config]*MarkedConfig
}{marks: map[*Config]*MarkedConfig{}}

// maybeMarkupConfig performs C2 at most once per distinct *Config, under a
// package-level lock, matching spec §5's "must be performed under exclusion
// if the configuration is to be shared across concurrent first-time calls".
// Once marked, the returned MarkedConfig is immutable and safe to share.
func maybeMarkupConfig(cfg *Config) (*MarkedConfig, error) {
	markerCache.mu.Lock()
	defer markerCache.mu.Unlock()

	if mc, ok := markerCache.marks[cfg]; ok {
		return mc, nil
	}
	mc, err := MarkupConfig(cfg)
	if err != nil {
		return nil, err
	}
	markerCache.marks[cfg] = mc
	return mc, nil
}

// Calculate implements C6: it validates the call-time inputs, resolves the
// active coverage level, assembles the ordered household, and evaluates
// every plan offered in the requested region.
//
// Children is a plain Go slice, so the "non-sequence children" call error
// of spec §4.6/§7 has no runtime analogue here — the type system rejects
// it at compile time.
func Calculate(input CalculateInput) (*CalculateResult, error) {
	start := time.Now()

	mc, err := maybeMarkupConfig(input.Config)
	if err != nil {
		return nil, err
	}

	if _, ok := input.Config.Regions[input.RegionID]; !ok {
		return nil, callError(ErrUnknownRegion, "unknown region %q", input.RegionID)
	}
	if _, ok := input.Config.Statuses[input.StatusID]; !ok {
		return nil, callError(ErrUnknownStatus, "unknown status %q", input.StatusID)
	}
	if input.Primary == nil {
		return nil, callError(ErrMissingPrimary, "primary household member is required")
	}

	level, err := ResolveCoverageLevel(input.Config, input.Spouse != nil, len(input.Children))
	if err != nil {
		return nil, err
	}
	logger.Debugw("resolved coverage level", "region", input.RegionID, "status", input.StatusID, "level", level)

	household := make([]HouseholdMember, 0, 2+len(input.Children))
	household = append(household, *input.Primary)
	if input.Spouse != nil {
		household = append(household, *input.Spouse)
	}
	household = append(household, input.Children...)

	region := input.Config.Regions[input.RegionID]
	results := make([]PlanResult, 0, len(region.Plans))
	for _, planID := range region.Plans {
		opts := input.PerPlanOptions[planID]
		results = append(results, EvaluatePlan(mc, planID, input.RegionID, input.StatusID, level, household, opts))
	}

	elapsed := float64(time.Since(start).Microseconds()) / 1000.0
	logger.Infow("calculate complete", "region", input.RegionID, "status", input.StatusID,
		"householdSize", len(household), "plans", len(results), "elapsedMsec", elapsed)

	return &CalculateResult{
		Plans:       results,
		ElapsedMsec: elapsed,
	}, nil
}
