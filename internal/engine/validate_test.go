package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawRule(s string) map[PlanID]json.RawMessage {
	return map[PlanID]json.RawMessage{"p1": json.RawMessage(s)}
}

// minimalValidConfig builds the smallest configuration that satisfies every
// C1 check, so each test below can mutate exactly one thing and expect
// exactly one new issue.
func minimalValidConfig() *Config {
	return &Config{
		RegionsOrder: []RegionID{"r1"},
		Regions:      map[RegionID]Region{"r1": {Description: "Region 1", Plans: []PlanID{"p1"}}},

		PlansOrder: []PlanID{"p1"},
		Plans: map[PlanID]Plan{
			"p1": {
				Description:       Localized{Plain: "Plan 1"},
				PersonDeductibles: map[GroupID]LimitEntry{GeneralGroup: {}},
				FamilyDeductibles: map[GroupID]LimitEntry{GeneralGroup: {}},
				PersonOOPMaximums: map[GroupID]LimitEntry{GeneralGroup: {}},
				FamilyOOPMaximums: map[GroupID]LimitEntry{GeneralGroup: {}},
			},
		},

		StatusesOrder: []StatusID{"s1"},
		Statuses:      map[StatusID]Status{"s1": {Description: "Status 1"}},

		CoverageLevelsOrder: []CoverageLevelID{"single", "family"},
		CoverageLevels: map[CoverageLevelID]CoverageLevel{
			"single": {Description: "Single", Spouse: false, MaxNumChildren: 0},
			"family": {Description: "Family", Spouse: true, MaxNumChildren: Unlimited},
		},

		CategoriesOrder: []CategoryID{"cat1"},
		Categories:      map[CategoryID]Category{"cat1": {Description: "Category 1", OrderedContents: []ServiceID{"svc1"}}},

		ServicesOrder: []ServiceID{"svc1"},
		Services: map[ServiceID]Service{
			"svc1": {
				Description: "Service 1",
				Costs:       map[string]map[RegionID]float64{"costs": {"r1": 100}},
				CoverageRaw: rawRule(`{"copay": 20}`),
			},
		},
	}
}

func TestValidate_AcceptsMinimalConfig(t *testing.T) {
	cfg := minimalValidConfig()
	assert.NoError(t, Validate(cfg))
}

func TestValidate_RegionReferencesUnknownPlan(t *testing.T) {
	cfg := minimalValidConfig()
	cfg.Regions["r1"] = Region{Description: "Region 1", Plans: []PlanID{"p1", "ghost"}}
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown plan "ghost"`)
}

func TestValidate_ServiceNotInAnyCategory(t *testing.T) {
	cfg := minimalValidConfig()
	cfg.ServicesOrder = append(cfg.ServicesOrder, "orphan")
	cfg.Services["orphan"] = Service{Description: "Orphan", Costs: map[string]map[RegionID]float64{"costs": {"r1": 1}}}
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `not listed in any category`)
}

func TestValidate_ServiceClaimedByTwoCategories(t *testing.T) {
	cfg := minimalValidConfig()
	cfg.CategoriesOrder = append(cfg.CategoriesOrder, "cat2")
	cfg.Categories["cat2"] = Category{Description: "Category 2", OrderedContents: []ServiceID{"svc1"}}
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "appears in both category")
}

func TestValidate_GeneralGroupMustNotDeclareCategories(t *testing.T) {
	cfg := minimalValidConfig()
	p := cfg.Plans["p1"]
	p.PersonDeductibles = map[GroupID]LimitEntry{GeneralGroup: {Categories: []CategoryID{"cat1"}}}
	cfg.Plans["p1"] = p
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not declare categories")
}

func TestValidate_NonGeneralGroupRequiresCategories(t *testing.T) {
	cfg := minimalValidConfig()
	p := cfg.Plans["p1"]
	p.PersonDeductibles = map[GroupID]LimitEntry{
		GeneralGroup: {},
		"rx":         {},
	}
	cfg.Plans["p1"] = p
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must declare a non-empty categories subset")
}

func TestValidate_CategoryClaimedByTwoGroups(t *testing.T) {
	cfg := minimalValidConfig()
	cfg.CategoriesOrder = append(cfg.CategoriesOrder, "cat2")
	cfg.Categories["cat2"] = Category{Description: "Category 2", OrderedContents: nil}
	p := cfg.Plans["p1"]
	p.PersonDeductibles = map[GroupID]LimitEntry{
		GeneralGroup: {},
		"a":          {Categories: []CategoryID{"cat1"}},
		"b":          {Categories: []CategoryID{"cat1"}},
	}
	cfg.Plans["p1"] = p
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "claimed by both")
}

func TestValidate_NotCoveredMustBeTrueIfPresent(t *testing.T) {
	cfg := minimalValidConfig()
	svc := cfg.Services["svc1"]
	svc.CoverageRaw = rawRule(`{"notCovered": false}`)
	cfg.Services["svc1"] = svc
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notCovered, if present, must be true")
}

func TestValidate_CoinsuranceOutOfRange(t *testing.T) {
	cfg := minimalValidConfig()
	svc := cfg.Services["svc1"]
	svc.CoverageRaw = rawRule(`{"coinsurance": 1.5}`)
	cfg.Services["svc1"] = svc
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be in [0,1]")
}

func TestValidate_CoveredCountAndDollarLimitMutuallyExclusive(t *testing.T) {
	cfg := minimalValidConfig()
	svc := cfg.Services["svc1"]
	svc.CoverageRaw = rawRule(`{"coveredCount": 3, "dollarLimit": 100}`)
	cfg.Services["svc1"] = svc
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestValidate_CombinedLimitIdForbiddenInSequence(t *testing.T) {
	cfg := minimalValidConfig()
	cfg.CombinedLimitsOrder = []CombinedLimitID{"cl1"}
	cfg.CombinedLimits = map[CombinedLimitID]CombinedLimit{"cl1": {Description: "Combined 1"}}
	svc := cfg.Services["svc1"]
	svc.CoverageRaw = rawRule(`[{"copay": 10, "combinedLimitId": "cl1"}, {"copay": 20}]`)
	cfg.Services["svc1"] = svc
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "may not appear inside a rule sequence")
}

func TestValidate_CoverageLevelsOrderMustBeNonDecreasing(t *testing.T) {
	cfg := minimalValidConfig()
	cfg.CoverageLevelsOrder = []CoverageLevelID{"family", "single"}
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-decreasing")
}

func TestValidate_FundAmountMapMissingReachableLevel(t *testing.T) {
	cfg := minimalValidConfig()
	p := cfg.Plans["p1"]
	p.FundAmountMap = &AmountMap{Direct: map[CoverageLevelID]float64{"single": 100}}
	cfg.Plans["p1"] = p
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no entry for reachable coverage level "family"`)
}

func TestValidate_ErrorsAreDeduplicated(t *testing.T) {
	cfg := minimalValidConfig()
	cfg.Regions["r1"] = Region{Description: "Region 1", Plans: []PlanID{"ghost", "ghost"}}
	err := Validate(cfg)
	require.Error(t, err)
	ce, ok := err.(*ConfigError)
	require.True(t, ok)
	assert.Len(t, ce.Issues(), 1, "the duplicate unknown-plan issue should be reported once")
}
