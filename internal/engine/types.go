// Package engine implements the Medical Plan Cost Engine (MPCE): the
// data-driven per-plan cost calculator described by the configuration model
// below. The engine is a pure function of (configuration, household,
// utilization) — see Calculate in mpce.go.
package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Identifiers are opaque strings in a single consistent casing scheme.
type (
	RegionID        string
	PlanID          string
	StatusID        string
	CoverageLevelID string
	CategoryID      string
	ServiceID       string
	GroupID         string
	CombinedLimitID string
	HealthStatusID  string
)

// GeneralGroup is the distinguished catch-all group every limit-group family
// either omits entirely or includes alongside its named subsets.
const GeneralGroup GroupID = "general"

// Unlimited represents "+∞" for CoverageLevel.MaxNumChildren.
const Unlimited = math.MaxInt32

// Config is the full, unvalidated configuration value described by spec §3.
// Every <X>/<X>Order pair is represented as two sibling fields; C1 checks
// that their key sets match.
type Config struct {
	Regions      map[RegionID]Region `json:"regions"`
	RegionsOrder []RegionID          `json:"regionsOrder"`

	Plans      map[PlanID]Plan `json:"plans"`
	PlansOrder []PlanID        `json:"plansOrder"`

	Statuses      map[StatusID]Status `json:"statuses"`
	StatusesOrder []StatusID          `json:"statusesOrder"`

	CoverageLevels      map[CoverageLevelID]CoverageLevel `json:"coverageLevels"`
	CoverageLevelsOrder []CoverageLevelID                 `json:"coverageLevelsOrder"`

	Categories      map[CategoryID]Category `json:"categories"`
	CategoriesOrder []CategoryID            `json:"categoriesOrder"`

	Services      map[ServiceID]Service `json:"services"`
	ServicesOrder []ServiceID           `json:"servicesOrder"`

	CombinedLimits      map[CombinedLimitID]CombinedLimit `json:"combinedLimits,omitempty"`
	CombinedLimitsOrder []CombinedLimitID                 `json:"combinedLimitsOrder,omitempty"`

	HealthStatuses      map[HealthStatusID]HealthStatus `json:"healthStatuses,omitempty"`
	HealthStatusesOrder []HealthStatusID                `json:"healthStatusesOrder,omitempty"`

	CoverageLevelCostsPerPlan map[PlanID]PremiumTable `json:"coverageLevelCostsPerPlan,omitempty"`
}

// Region is one rating region: a display label plus the ordered set of
// plan-ids offered in it.
type Region struct {
	Description string   `json:"description"`
	Plans       []PlanID `json:"plans"`
}

// Status is an employment status (e.g. full-time).
type Status struct {
	Description string `json:"description"`
}

// CoverageLevel is a household-composition tier (spec §3). MaxNumChildren
// may be "+∞"; it is parsed to Unlimited.
type CoverageLevel struct {
	Description    string `json:"description"`
	Spouse         bool   `json:"spouse"`
	MaxNumChildren int    `json:"-"`
}

func (c *CoverageLevel) UnmarshalJSON(data []byte) error {
	var raw struct {
		Description    string          `json:"description"`
		Spouse         bool            `json:"spouse"`
		MaxNumChildren json.RawMessage `json:"maxNumChildren"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Description = raw.Description
	c.Spouse = raw.Spouse
	n, err := parseMaxChildren(raw.MaxNumChildren)
	if err != nil {
		return err
	}
	c.MaxNumChildren = n
	return nil
}

func parseMaxChildren(raw json.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("maxNumChildren is required")
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		switch strings.ToLower(strings.TrimSpace(asString)) {
		case "infinity", "+infinity", "unlimited", "+∞", "∞":
			return Unlimited, nil
		default:
			return 0, fmt.Errorf("invalid maxNumChildren string: %q", asString)
		}
	}
	var asNumber float64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		if math.IsInf(asNumber, 1) {
			return Unlimited, nil
		}
		return int(asNumber), nil
	}
	return 0, fmt.Errorf("invalid maxNumChildren value: %s", string(raw))
}

// Category groups service-ids for display and for fund-eligibility and
// limit-group category claims. Every service belongs to exactly one.
type Category struct {
	Description     string      `json:"description"`
	OrderedContents []ServiceID `json:"orderedContents"`
}

// HealthStatus is a presentation helper: a named bundle of service counts.
type HealthStatus struct {
	Description string             `json:"description"`
	Contents    map[ServiceID]int  `json:"contents"`
}

// CombinedLimit caps total plan reimbursement across a set of services tied
// by CombinedLimitID, independent of deductibles and OOP maxima.
type CombinedLimit struct {
	Description          string   `json:"description"`
	PersonReimburseLimit *float64 `json:"personReimburseLimit,omitempty"`
	FamilyReimburseLimit *float64 `json:"familyReimburseLimit,omitempty"`
}

// LimitEntry is one named group within a deductible/OOP limit-group family:
// either a flat scalar amount or a polymorphic lookup table, plus (for
// non-general groups) the subset of categories it claims.
type LimitEntry struct {
	Categories []CategoryID `json:"categories,omitempty"`
	Amount     *float64     `json:"amount,omitempty"`
	AmountMap  *AmountMap   `json:"amountMap,omitempty"`
}

// Plan is one insurance plan's configuration.
type Plan struct {
	Description Localized `json:"description"`

	PersonDeductibles map[GroupID]LimitEntry `json:"personDeductibles,omitempty"`
	FamilyDeductibles map[GroupID]LimitEntry `json:"familyDeductibles,omitempty"`
	PersonOOPMaximums map[GroupID]LimitEntry `json:"personOutOfPocketMaximums,omitempty"`
	FamilyOOPMaximums map[GroupID]LimitEntry `json:"familyOutOfPocketMaximums,omitempty"`

	FundAmountMap           *AmountMap         `json:"fundAmountMap,omitempty"`
	CategoriesFundAppliesTo map[CategoryID]bool `json:"categoriesFundAppliesTo,omitempty"`
	FundAllowsContributions *bool              `json:"fundAllowsContributions,omitempty"`

	CostsObjectID string `json:"costsObjectId,omitempty"`
}

// EffectiveCostsObjectID returns the configured costsObjectId or the "costs"
// default.
func (p Plan) EffectiveCostsObjectID() string {
	if p.CostsObjectID == "" {
		return "costs"
	}
	return p.CostsObjectID
}

// Localized is either a bare display string or a language-code keyed map.
type Localized struct {
	Plain string
	ByLanguage map[string]string
}

func (l *Localized) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		l.Plain = s
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("description must be a string or language map: %w", err)
	}
	l.ByLanguage = m
	return nil
}

func (l Localized) MarshalJSON() ([]byte, error) {
	if l.ByLanguage != nil {
		return json.Marshal(l.ByLanguage)
	}
	return json.Marshal(l.Plain)
}

// Service is one billable medical service: its per-region costs and its
// per-plan coverage rule(s).
type Service struct {
	Description     string                        `json:"description"`
	Costs           map[string]map[RegionID]float64 `json:"-"`
	CostsForDisplay map[RegionID]float64          `json:"costsForDisplay,omitempty"`
	CoverageRaw     map[PlanID]json.RawMessage     `json:"coverage"`

	// CategoryID is never read from input JSON and is not populated by C2:
	// MarkupConfig leaves Config unmutated and keeps the derived category in
	// MarkedConfig (see MarkedConfig.CategoryOf).
	CategoryID CategoryID `json:"-"`
}

func (s *Service) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["description"]; ok {
		if err := json.Unmarshal(v, &s.Description); err != nil {
			return fmt.Errorf("service description: %w", err)
		}
	}
	if v, ok := raw["costsForDisplay"]; ok {
		if err := json.Unmarshal(v, &s.CostsForDisplay); err != nil {
			return fmt.Errorf("service costsForDisplay: %w", err)
		}
	}
	if v, ok := raw["coverage"]; ok {
		if err := json.Unmarshal(v, &s.CoverageRaw); err != nil {
			return fmt.Errorf("service coverage: %w", err)
		}
	}
	s.Costs = map[string]map[RegionID]float64{}
	for key, v := range raw {
		if key != "costs" && !strings.HasPrefix(key, "costs_") {
			continue
		}
		var byRegion map[RegionID]float64
		if err := json.Unmarshal(v, &byRegion); err != nil {
			return fmt.Errorf("service cost object %q: %w", key, err)
		}
		s.Costs[key] = byRegion
	}
	return nil
}

// CostAt returns the configured per-unit cost for costsObjectID at region,
// and whether it was found.
func (s Service) CostAt(costsObjectID string, region RegionID) (float64, bool) {
	byRegion, ok := s.Costs[costsObjectID]
	if !ok {
		return 0, false
	}
	v, ok := byRegion[region]
	return v, ok
}

// DeductibleTiming is the normalized form of CoverageRule's stringly-typed
// "deductible" field. "afterCopay", "beforeCoinsurance", and the unset
// default all collapse to DeductibleAfterCopay (spec §3, §9).
type DeductibleTiming int

const (
	DeductibleNone DeductibleTiming = iota
	DeductibleBeforeCopay
	DeductibleAfterCopay
)

func normalizeDeductibleTiming(raw string) (DeductibleTiming, error) {
	switch raw {
	case "":
		return DeductibleAfterCopay, nil
	case "none":
		return DeductibleNone, nil
	case "beforeCopay":
		return DeductibleBeforeCopay, nil
	case "afterCopay", "beforeCoinsurance":
		return DeductibleAfterCopay, nil
	default:
		return 0, fmt.Errorf("invalid deductible timing %q", raw)
	}
}

// CoverageRule is the leaf of the data model (spec §3): either
// {notCovered:true} or any combination of copay/coinsurance/deductible/caps.
type CoverageRule struct {
	NotCovered *bool `json:"notCovered,omitempty"`

	Copay                       *float64 `json:"copay,omitempty"`
	Coinsurance                 *float64 `json:"coinsurance,omitempty"`
	CoinsuranceMinDollar        *float64 `json:"coinsuranceMinDollar,omitempty"`
	CoinsuranceMaxDollar        *float64 `json:"coinsuranceMaxDollar,omitempty"`
	CoinsuranceNotTowardsOOPMax bool     `json:"coinsuranceNotTowardsOOPMax,omitempty"`
	CopayNotTowardsOOPMax       bool     `json:"copayNotTowardsOOPMax,omitempty"`

	DeductibleRaw string           `json:"deductible,omitempty"`
	Deductible    DeductibleTiming `json:"-"`

	CoveredCount *int `json:"coveredCount,omitempty"`
	DollarLimit  *int `json:"dollarLimit,omitempty"`

	SingleUseCostMax *float64        `json:"singleUseCostMax,omitempty"`
	CombinedLimitID  CombinedLimitID `json:"combinedLimitId,omitempty"`

	// EligibleForFund is set explicitly in input, or else derived by C2 from
	// plan.categoriesFundAppliesTo[service.categoryId].
	EligibleForFund *bool `json:"eligibleForFund,omitempty"`
}

// IsNotCovered reports whether this rule is the {notCovered:true} variant.
func (r CoverageRule) IsNotCovered() bool {
	return r.NotCovered != nil && *r.NotCovered
}

func (r *CoverageRule) normalize() error {
	timing, err := normalizeDeductibleTiming(r.DeductibleRaw)
	if err != nil {
		return err
	}
	r.Deductible = timing
	return nil
}

// PremiumTable is CoverageLevelCostsPerPlan's per-plan value: a polymorphic
// lookup of coverage-level → status → annual premium, optionally keyed
// first by region. A null leaf means "not applicable" (no premium defined).
type PremiumTable struct {
	ByRegion map[RegionID]map[CoverageLevelID]map[StatusID]*float64
	Direct   map[CoverageLevelID]map[StatusID]*float64
}

func (pt *PremiumTable) UnmarshalJSON(data []byte) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return err
	}
	for firstKey, firstVal := range top {
		var mid map[string]json.RawMessage
		if err := json.Unmarshal(firstVal, &mid); err != nil {
			return fmt.Errorf("coverageLevelCostsPerPlan entry %q: %w", firstKey, err)
		}
		for _, midVal := range mid {
			var leafDirect *float64
			if err := json.Unmarshal(midVal, &leafDirect); err == nil {
				return unmarshalDirectPremium(data, pt)
			}
			var leafNested map[string]*float64
			if err := json.Unmarshal(midVal, &leafNested); err == nil {
				return unmarshalRegionPremium(data, pt)
			}
			return fmt.Errorf("coverageLevelCostsPerPlan entry %q.%s has unrecognized shape", firstKey, midVal)
		}
		// empty mid map: treat as Direct (no information either way)
		return unmarshalDirectPremium(data, pt)
	}
	pt.Direct = map[CoverageLevelID]map[StatusID]*float64{}
	return nil
}

func unmarshalDirectPremium(data []byte, pt *PremiumTable) error {
	var direct map[CoverageLevelID]map[StatusID]*float64
	if err := json.Unmarshal(data, &direct); err != nil {
		return err
	}
	pt.Direct = direct
	return nil
}

func unmarshalRegionPremium(data []byte, pt *PremiumTable) error {
	var byRegion map[RegionID]map[CoverageLevelID]map[StatusID]*float64
	if err := json.Unmarshal(data, &byRegion); err != nil {
		return err
	}
	pt.ByRegion = byRegion
	return nil
}

// Lookup resolves the annual premium at (region, coverageLevel, status),
// preferring the region-keyed shape when present.
func (pt PremiumTable) Lookup(region RegionID, level CoverageLevelID, status StatusID) (value float64, isNA bool, found bool) {
	if pt.ByRegion != nil {
		if byLevel, ok := pt.ByRegion[region]; ok {
			if byStatus, ok := byLevel[level]; ok {
				if v, ok := byStatus[status]; ok {
					if v == nil {
						return 0, true, true
					}
					return *v, false, true
				}
			}
		}
		return 0, false, false
	}
	if byStatus, ok := pt.Direct[level]; ok {
		if v, ok := byStatus[status]; ok {
			if v == nil {
				return 0, true, true
			}
			return *v, false, true
		}
	}
	return 0, false, false
}
