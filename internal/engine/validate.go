package engine

import (
	"fmt"

	"go.uber.org/multierr"
)

// Validate performs every structural, shape, and referential check of spec
// §4.1 against cfg. It never panics and never returns partway through: every
// discovered issue is collected, then — if any exist — returned as one
// *ConfigError carrying the sorted, de-duplicated, joined message list.
// A nil return means cfg is safe to pass to MarkupConfig and Calculate.
func Validate(cfg *Config) error {
	var errs error

	errs = multierr.Append(errs, validateOrderSets(cfg))
	errs = multierr.Append(errs, validateRegions(cfg))
	errs = multierr.Append(errs, validateCategories(cfg))
	errs = multierr.Append(errs, validateLimitGroupFamilies(cfg))
	errs = multierr.Append(errs, validateCostsObjects(cfg))
	errs = multierr.Append(errs, validatePlanReferences(cfg))
	errs = multierr.Append(errs, validateServiceCoverage(cfg))
	errs = multierr.Append(errs, validateCoverageLevelsOrder(cfg))
	errs = multierr.Append(errs, validatePremiumTable(cfg))

	if errs == nil {
		return nil
	}
	return newConfigError(errs)
}

func dup(seen map[string]struct{}, id string) bool {
	if _, ok := seen[id]; ok {
		return true
	}
	seen[id] = struct{}{}
	return false
}

// validateOrderSets checks every <X>/<X>Order pair has the same key set and
// that the order sequence itself is duplicate-free.
func validateOrderSets(cfg *Config) error {
	var errs error

	checkStrings := func(family string, keys map[string]struct{}, order []string) {
		seen := map[string]struct{}{}
		for _, id := range order {
			if dup(seen, id) {
				errs = multierr.Append(errs, fmt.Errorf("%sOrder contains duplicate id %q", family, id))
			}
		}
		for id := range keys {
			if _, ok := seen[id]; !ok {
				errs = multierr.Append(errs, fmt.Errorf("%s %q is missing from %sOrder", family, id, family))
			}
		}
		for id := range seen {
			if _, ok := keys[id]; !ok {
				errs = multierr.Append(errs, fmt.Errorf("%sOrder references unknown %s %q", family, family, id))
			}
		}
	}

	regionKeys := map[string]struct{}{}
	for id := range cfg.Regions {
		regionKeys[string(id)] = struct{}{}
	}
	regionOrder := make([]string, len(cfg.RegionsOrder))
	for i, id := range cfg.RegionsOrder {
		regionOrder[i] = string(id)
	}
	checkStrings("regions", regionKeys, regionOrder)

	planKeys := map[string]struct{}{}
	for id := range cfg.Plans {
		planKeys[string(id)] = struct{}{}
	}
	planOrder := make([]string, len(cfg.PlansOrder))
	for i, id := range cfg.PlansOrder {
		planOrder[i] = string(id)
	}
	checkStrings("plans", planKeys, planOrder)

	statusKeys := map[string]struct{}{}
	for id := range cfg.Statuses {
		statusKeys[string(id)] = struct{}{}
	}
	statusOrder := make([]string, len(cfg.StatusesOrder))
	for i, id := range cfg.StatusesOrder {
		statusOrder[i] = string(id)
	}
	checkStrings("statuses", statusKeys, statusOrder)

	levelKeys := map[string]struct{}{}
	for id := range cfg.CoverageLevels {
		levelKeys[string(id)] = struct{}{}
	}
	levelOrder := make([]string, len(cfg.CoverageLevelsOrder))
	for i, id := range cfg.CoverageLevelsOrder {
		levelOrder[i] = string(id)
	}
	checkStrings("coverageLevels", levelKeys, levelOrder)

	catKeys := map[string]struct{}{}
	for id := range cfg.Categories {
		catKeys[string(id)] = struct{}{}
	}
	catOrder := make([]string, len(cfg.CategoriesOrder))
	for i, id := range cfg.CategoriesOrder {
		catOrder[i] = string(id)
	}
	checkStrings("categories", catKeys, catOrder)

	svcKeys := map[string]struct{}{}
	for id := range cfg.Services {
		svcKeys[string(id)] = struct{}{}
	}
	svcOrder := make([]string, len(cfg.ServicesOrder))
	for i, id := range cfg.ServicesOrder {
		svcOrder[i] = string(id)
	}
	checkStrings("services", svcKeys, svcOrder)

	if len(cfg.CombinedLimits) > 0 || len(cfg.CombinedLimitsOrder) > 0 {
		clKeys := map[string]struct{}{}
		for id := range cfg.CombinedLimits {
			clKeys[string(id)] = struct{}{}
		}
		clOrder := make([]string, len(cfg.CombinedLimitsOrder))
		for i, id := range cfg.CombinedLimitsOrder {
			clOrder[i] = string(id)
		}
		checkStrings("combinedLimits", clKeys, clOrder)
	}

	if len(cfg.HealthStatuses) > 0 || len(cfg.HealthStatusesOrder) > 0 {
		hsKeys := map[string]struct{}{}
		for id := range cfg.HealthStatuses {
			hsKeys[string(id)] = struct{}{}
		}
		hsOrder := make([]string, len(cfg.HealthStatusesOrder))
		for i, id := range cfg.HealthStatusesOrder {
			hsOrder[i] = string(id)
		}
		checkStrings("healthStatuses", hsKeys, hsOrder)
	}

	return errs
}

// validateRegions checks every plan-id a region lists actually exists.
func validateRegions(cfg *Config) error {
	var errs error
	for regionID, region := range cfg.Regions {
		for _, planID := range region.Plans {
			if _, ok := cfg.Plans[planID]; !ok {
				errs = multierr.Append(errs, fmt.Errorf("region %q references unknown plan %q", regionID, planID))
			}
		}
	}
	return errs
}

// validateCategories checks every service-id appears in exactly one
// category's orderedContents, and that the union covers the service set.
func validateCategories(cfg *Config) error {
	var errs error
	owner := map[ServiceID]CategoryID{}
	for catID, cat := range cfg.Categories {
		for _, svcID := range cat.OrderedContents {
			if _, ok := cfg.Services[svcID]; !ok {
				errs = multierr.Append(errs, fmt.Errorf("category %q references unknown service %q", catID, svcID))
				continue
			}
			if prior, ok := owner[svcID]; ok {
				errs = multierr.Append(errs, fmt.Errorf("service %q appears in both category %q and %q", svcID, prior, catID))
				continue
			}
			owner[svcID] = catID
		}
	}
	for svcID := range cfg.Services {
		if _, ok := owner[svcID]; !ok {
			errs = multierr.Append(errs, fmt.Errorf("service %q is not listed in any category's orderedContents", svcID))
		}
	}
	return errs
}

// validateLimitGroupFamilies enforces the "general" catch-all invariant for
// each of the four limit-group families on every plan.
func validateLimitGroupFamilies(cfg *Config) error {
	var errs error
	for planID, plan := range cfg.Plans {
		checkFamily(planID, "personDeductibles", plan.PersonDeductibles, cfg, &errs)
		checkFamily(planID, "familyDeductibles", plan.FamilyDeductibles, cfg, &errs)
		checkFamily(planID, "personOutOfPocketMaximums", plan.PersonOOPMaximums, cfg, &errs)
		checkFamily(planID, "familyOutOfPocketMaximums", plan.FamilyOOPMaximums, cfg, &errs)
	}
	return errs
}

func checkFamily(planID PlanID, familyName string, family map[GroupID]LimitEntry, cfg *Config, errs *error) {
	if len(family) == 0 {
		return
	}
	general, hasGeneral := family[GeneralGroup]
	if !hasGeneral {
		*errs = multierr.Append(*errs, fmt.Errorf("plan %q %s has no %q catch-all group", planID, familyName, GeneralGroup))
	} else if len(general.Categories) != 0 {
		*errs = multierr.Append(*errs, fmt.Errorf("plan %q %s.%s must not declare categories", planID, familyName, GeneralGroup))
	}

	claimed := map[CategoryID]GroupID{}
	for groupID, entry := range family {
		if groupID == GeneralGroup {
			continue
		}
		if len(entry.Categories) == 0 {
			*errs = multierr.Append(*errs, fmt.Errorf("plan %q %s.%s must declare a non-empty categories subset", planID, familyName, groupID))
		}
		for _, catID := range entry.Categories {
			if _, ok := cfg.Categories[catID]; !ok {
				*errs = multierr.Append(*errs, fmt.Errorf("plan %q %s.%s references unknown category %q", planID, familyName, groupID, catID))
				continue
			}
			if prior, ok := claimed[catID]; ok {
				*errs = multierr.Append(*errs, fmt.Errorf("plan %q %s: category %q claimed by both %q and %q", planID, familyName, catID, prior, groupID))
				continue
			}
			claimed[catID] = groupID
		}
	}
}

// validateCostsObjects checks every plan's costsObjectId is well-formed and
// that every service carries a cost object for every costsObjectId any
// plan requires.
func validateCostsObjects(cfg *Config) error {
	var errs error
	required := map[string]struct{}{}
	for planID, plan := range cfg.Plans {
		id := plan.CostsObjectID
		if id != "" && id != "costs" && !hasCostsPrefix(id) {
			errs = multierr.Append(errs, fmt.Errorf("plan %q costsObjectId %q must be \"costs\" or begin with \"costs_\"", planID, id))
			continue
		}
		required[plan.EffectiveCostsObjectID()] = struct{}{}
	}
	for svcID, svc := range cfg.Services {
		for id := range required {
			if _, ok := svc.Costs[id]; !ok {
				errs = multierr.Append(errs, fmt.Errorf("service %q is missing cost object %q required by a plan", svcID, id))
			}
		}
	}
	return errs
}

func hasCostsPrefix(id string) bool {
	return len(id) > len("costs_") && id[:len("costs_")] == "costs_"
}

// validatePlanReferences checks plan.categoriesFundAppliesTo references and
// every limit-group's amountMap/fundAmountMap keys resolve against known
// regions, statuses, or coverage levels. Per spec §9, a fundAmountMap that
// would miss at a reachable coverage level is rejected here rather than
// silently defaulting to zero at calculation time.
func validatePlanReferences(cfg *Config) error {
	var errs error
	for planID, plan := range cfg.Plans {
		for catID := range plan.CategoriesFundAppliesTo {
			if _, ok := cfg.Categories[catID]; !ok {
				errs = multierr.Append(errs, fmt.Errorf("plan %q categoriesFundAppliesTo references unknown category %q", planID, catID))
			}
		}
		checkAmountMapKeys(fmt.Sprintf("plan %q fundAmountMap", planID), plan.FundAmountMap, cfg, &errs)
		for groupID, entry := range plan.PersonDeductibles {
			checkAmountMapKeys(fmt.Sprintf("plan %q personDeductibles.%s", planID, groupID), entry.AmountMap, cfg, &errs)
		}
		for groupID, entry := range plan.FamilyDeductibles {
			checkAmountMapKeys(fmt.Sprintf("plan %q familyDeductibles.%s", planID, groupID), entry.AmountMap, cfg, &errs)
		}
		for groupID, entry := range plan.PersonOOPMaximums {
			checkAmountMapKeys(fmt.Sprintf("plan %q personOutOfPocketMaximums.%s", planID, groupID), entry.AmountMap, cfg, &errs)
		}
		for groupID, entry := range plan.FamilyOOPMaximums {
			checkAmountMapKeys(fmt.Sprintf("plan %q familyOutOfPocketMaximums.%s", planID, groupID), entry.AmountMap, cfg, &errs)
		}
		if plan.FundAmountMap != nil {
			regions := regionsOfferingPlan(cfg, planID)
			for _, levelID := range cfg.CoverageLevelsOrder {
				if !fundAmountMapCoversLevel(plan.FundAmountMap, cfg, regions, levelID) {
					// only an error if some region actually offers this plan,
					// since an unreachable plan/level combination is harmless.
					if planReachable(cfg, planID) {
						errs = multierr.Append(errs, fmt.Errorf("plan %q fundAmountMap has no entry for reachable coverage level %q", planID, levelID))
					}
				}
			}
		}
	}
	return errs
}

func planReachable(cfg *Config, planID PlanID) bool {
	for _, region := range cfg.Regions {
		for _, p := range region.Plans {
			if p == planID {
				return true
			}
		}
	}
	return false
}

// regionsOfferingPlan returns every region-id whose plan list includes
// planID, so a region-keyed fundAmountMap can be checked against the
// regions that can actually reach it.
func regionsOfferingPlan(cfg *Config, planID PlanID) []RegionID {
	var regions []RegionID
	for regionID, region := range cfg.Regions {
		for _, p := range region.Plans {
			if p == planID {
				regions = append(regions, regionID)
				break
			}
		}
	}
	return regions
}

// fundAmountMapCoversLevel reports whether am has an entry for level, trying
// the plan's offering regions and then every status, since spec §3 permits
// fundAmountMap to be keyed by either region or status.
func fundAmountMapCoversLevel(am *AmountMap, cfg *Config, regions []RegionID, level CoverageLevelID) bool {
	if !am.isTwoLevel {
		_, ok := am.Direct[level]
		return ok
	}
	for _, regionID := range regions {
		if byLevel, ok := am.TwoLevel[string(regionID)]; ok {
			if _, ok := byLevel[level]; ok {
				return true
			}
		}
	}
	for _, statusID := range cfg.StatusesOrder {
		if byLevel, ok := am.TwoLevel[string(statusID)]; ok {
			if _, ok := byLevel[level]; ok {
				return true
			}
		}
	}
	return false
}

func checkAmountMapKeys(context string, am *AmountMap, cfg *Config, errs *error) {
	if am == nil {
		return
	}
	checkLevel := func(id CoverageLevelID) {
		if _, ok := cfg.CoverageLevels[id]; !ok {
			*errs = multierr.Append(*errs, fmt.Errorf("%s references unknown coverage level %q", context, id))
		}
	}
	if am.isTwoLevel {
		for outerKey, byLevel := range am.TwoLevel {
			_, isRegion := cfg.Regions[RegionID(outerKey)]
			_, isStatus := cfg.Statuses[StatusID(outerKey)]
			if !isRegion && !isStatus {
				*errs = multierr.Append(*errs, fmt.Errorf("%s outer key %q is neither a known region nor status", context, outerKey))
			}
			for level := range byLevel {
				checkLevel(level)
			}
		}
		return
	}
	for level := range am.Direct {
		checkLevel(level)
	}
}

// validateServiceCoverage checks every service.coverage key is a known
// plan, that the raw coverage JSON parses as either a single rule or an
// array of rules, and that every rule is individually well-formed (spec
// §4.1's per-rule shape checks), and that combinedLimitId references a
// known combined limit and is absent from any multi-rule sequence.
func validateServiceCoverage(cfg *Config) error {
	var errs error
	for svcID, svc := range cfg.Services {
		for planID, raw := range svc.CoverageRaw {
			if _, ok := cfg.Plans[planID]; !ok {
				errs = multierr.Append(errs, fmt.Errorf("service %q coverage references unknown plan %q", svcID, planID))
				continue
			}
			rules, err := parseCoverageRules(raw)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("service %q plan %q coverage: %w", svcID, planID, err))
				continue
			}
			if len(rules) > 1 {
				for i, rule := range rules {
					if rule.CombinedLimitID != "" {
						errs = multierr.Append(errs, fmt.Errorf("service %q plan %q rule %d: combinedLimitId may not appear inside a rule sequence", svcID, planID, i))
					}
				}
			}
			for i, rule := range rules {
				validateRule(fmt.Sprintf("service %q plan %q rule %d", svcID, planID, i), rule, cfg, &errs)
			}
		}
	}
	return errs
}

func validateRule(context string, rule CoverageRule, cfg *Config, errs *error) {
	if rule.Coinsurance != nil && (*rule.Coinsurance < 0 || *rule.Coinsurance > 1) {
		*errs = multierr.Append(*errs, fmt.Errorf("%s: coinsurance %v must be in [0,1]", context, *rule.Coinsurance))
	}
	for name, v := range map[string]*float64{
		"coinsuranceMinDollar": rule.CoinsuranceMinDollar,
		"coinsuranceMaxDollar": rule.CoinsuranceMaxDollar,
		"copay":                rule.Copay,
		"singleUseCostMax":     rule.SingleUseCostMax,
	} {
		if v != nil && *v < 0 {
			*errs = multierr.Append(*errs, fmt.Errorf("%s: %s must be >= 0", context, name))
		}
	}
	if rule.CoveredCount != nil && *rule.CoveredCount < 0 {
		*errs = multierr.Append(*errs, fmt.Errorf("%s: coveredCount must be >= 0", context))
	}
	if rule.DollarLimit != nil && *rule.DollarLimit < 0 {
		*errs = multierr.Append(*errs, fmt.Errorf("%s: dollarLimit must be >= 0", context))
	}
	if rule.CoveredCount != nil && rule.DollarLimit != nil {
		*errs = multierr.Append(*errs, fmt.Errorf("%s: coveredCount and dollarLimit are mutually exclusive", context))
	}
	if rule.Copay != nil && rule.DollarLimit != nil {
		*errs = multierr.Append(*errs, fmt.Errorf("%s: copay and dollarLimit are mutually exclusive", context))
	}
	if rule.NotCovered != nil && !*rule.NotCovered {
		*errs = multierr.Append(*errs, fmt.Errorf("%s: notCovered, if present, must be true", context))
	}
	if _, err := normalizeDeductibleTiming(rule.DeductibleRaw); err != nil {
		*errs = multierr.Append(*errs, fmt.Errorf("%s: %w", context, err))
	}
	if rule.CombinedLimitID != "" {
		if _, ok := cfg.CombinedLimits[rule.CombinedLimitID]; !ok {
			*errs = multierr.Append(*errs, fmt.Errorf("%s: combinedLimitId references unknown combined limit %q", context, rule.CombinedLimitID))
		}
	}
}

// validateCoverageLevelsOrder checks the ordering invariant of spec §3:
// coverageLevelsOrder must be non-decreasing in (spouse, maxNumChildren).
func validateCoverageLevelsOrder(cfg *Config) error {
	var errs error
	for i := 1; i < len(cfg.CoverageLevelsOrder); i++ {
		prev, ok1 := cfg.CoverageLevels[cfg.CoverageLevelsOrder[i-1]]
		cur, ok2 := cfg.CoverageLevels[cfg.CoverageLevelsOrder[i]]
		if !ok1 || !ok2 {
			continue // already reported by validateOrderSets
		}
		if levelKey(prev).less(levelKey(cur)) {
			continue
		}
		if levelKey(cur).less(levelKey(prev)) {
			errs = multierr.Append(errs, fmt.Errorf(
				"coverageLevelsOrder is not non-decreasing in (spouse, maxNumChildren) at position %d (%q after %q)",
				i, cfg.CoverageLevelsOrder[i], cfg.CoverageLevelsOrder[i-1]))
		}
	}
	return errs
}

type levelOrderKey struct {
	spouse         bool
	maxNumChildren int
}

func levelKey(l CoverageLevel) levelOrderKey {
	return levelOrderKey{spouse: l.Spouse, maxNumChildren: l.MaxNumChildren}
}

func (k levelOrderKey) less(other levelOrderKey) bool {
	if k.spouse != other.spouse {
		return !k.spouse && other.spouse
	}
	return k.maxNumChildren < other.maxNumChildren
}

// validatePremiumTable checks coverageLevelCostsPerPlan keys resolve.
func validatePremiumTable(cfg *Config) error {
	var errs error
	for planID, table := range cfg.CoverageLevelCostsPerPlan {
		if _, ok := cfg.Plans[planID]; !ok {
			errs = multierr.Append(errs, fmt.Errorf("coverageLevelCostsPerPlan references unknown plan %q", planID))
			continue
		}
		check := func(levelID CoverageLevelID, statusID StatusID) {
			if _, ok := cfg.CoverageLevels[levelID]; !ok {
				errs = multierr.Append(errs, fmt.Errorf("coverageLevelCostsPerPlan[%q] references unknown coverage level %q", planID, levelID))
			}
			if _, ok := cfg.Statuses[statusID]; !ok {
				errs = multierr.Append(errs, fmt.Errorf("coverageLevelCostsPerPlan[%q] references unknown status %q", planID, statusID))
			}
		}
		if table.ByRegion != nil {
			for regionID, byLevel := range table.ByRegion {
				if _, ok := cfg.Regions[regionID]; !ok {
					errs = multierr.Append(errs, fmt.Errorf("coverageLevelCostsPerPlan[%q] references unknown region %q", planID, regionID))
				}
				for levelID, byStatus := range byLevel {
					for statusID := range byStatus {
						check(levelID, statusID)
					}
				}
			}
			continue
		}
		for levelID, byStatus := range table.Direct {
			for statusID := range byStatus {
				check(levelID, statusID)
			}
		}
	}
	return errs
}
