package engine

import "fmt"

// MarkedConfig is the one-shot derived-data struct of spec §4.2 / §9: rather
// than mutating Config in place, MarkupConfig returns a parallel structure
// holding every lookup table C2 derives. It is safe to share read-only
// across concurrent Calculate calls once built (spec §5).
type MarkedConfig struct {
	cfg *Config

	// serviceCategory holds each service's category; it is populated here
	// instead of Service.CategoryID so Config itself never needs mutating.
	serviceCategory map[ServiceID]CategoryID

	// serviceCoverage[serviceID][planID] is the normalized rule sequence
	// (singletons wrapped) with EligibleForFund always resolved.
	serviceCoverage map[ServiceID]map[PlanID][]CoverageRule

	// planServiceOrder[planID] holds the two ordered passes of spec §4.2/
	// §4.5: services with at least one deductible-bearing rule first, then
	// services with none.
	planServiceOrder map[PlanID]planOrder

	// planGroupOf[planID] holds the four category→group maps of spec §4.2.
	planGroupOf map[PlanID]planGroups
}

type planOrder struct {
	WithDeductible []ServiceID
	NoDeductible   []ServiceID
}

type planGroups struct {
	PersonDeductible map[CategoryID]GroupID
	PersonOOP        map[CategoryID]GroupID
	FamilyDeductible map[CategoryID]GroupID
	FamilyOOP        map[CategoryID]GroupID
}

// MarkupConfig performs the one-time derivation of §4.2. It is idempotent
// and side-effect free: calling it twice on equal inputs yields equal
// outputs (spec §8 property 8), and it never mutates cfg.
func MarkupConfig(cfg *Config) (*MarkedConfig, error) {
	logger.Debugw("marking up config", "plans", len(cfg.Plans), "services", len(cfg.Services), "categories", len(cfg.Categories))
	mc := &MarkedConfig{
		cfg:              cfg,
		serviceCategory:  map[ServiceID]CategoryID{},
		serviceCoverage:  map[ServiceID]map[PlanID][]CoverageRule{},
		planServiceOrder: map[PlanID]planOrder{},
		planGroupOf:      map[PlanID]planGroups{},
	}

	for catID, cat := range cfg.Categories {
		for _, svcID := range cat.OrderedContents {
			mc.serviceCategory[svcID] = catID
		}
	}

	for svcID, svc := range cfg.Services {
		catID := mc.serviceCategory[svcID]
		byPlan := map[PlanID][]CoverageRule{}
		for planID, raw := range svc.CoverageRaw {
			rules, err := parseCoverageRules(raw)
			if err != nil {
				return nil, fmt.Errorf("service %q plan %q: %w", svcID, planID, err)
			}
			plan := cfg.Plans[planID]
			for i := range rules {
				if rules[i].EligibleForFund == nil {
					eligible := plan.CategoriesFundAppliesTo[catID]
					rules[i].EligibleForFund = &eligible
				}
			}
			byPlan[planID] = rules
		}
		mc.serviceCoverage[svcID] = byPlan
	}

	for planID := range cfg.Plans {
		mc.planServiceOrder[planID] = buildPlanServiceOrder(cfg, mc, planID)
		mc.planGroupOf[planID] = buildPlanGroups(cfg, planID)
	}

	logger.Infow("config marked up", "plans", len(mc.planServiceOrder))
	return mc, nil
}

func buildPlanServiceOrder(cfg *Config, mc *MarkedConfig, planID PlanID) planOrder {
	var order planOrder
	for _, svcID := range cfg.ServicesOrder {
		rules := mc.serviceCoverage[svcID][planID]
		if len(rules) == 0 {
			continue
		}
		if anyHasDeductible(rules) {
			order.WithDeductible = append(order.WithDeductible, svcID)
		} else {
			order.NoDeductible = append(order.NoDeductible, svcID)
		}
	}
	return order
}

func anyHasDeductible(rules []CoverageRule) bool {
	for _, r := range rules {
		if r.Deductible != DeductibleNone {
			return true
		}
	}
	return false
}

func buildPlanGroups(cfg *Config, planID PlanID) planGroups {
	plan := cfg.Plans[planID]
	return planGroups{
		PersonDeductible: categoryGroupMap(plan.PersonDeductibles),
		PersonOOP:        categoryGroupMap(plan.PersonOOPMaximums),
		FamilyDeductible: categoryGroupMap(plan.FamilyDeductibles),
		FamilyOOP:        categoryGroupMap(plan.FamilyOOPMaximums),
	}
}

func categoryGroupMap(family map[GroupID]LimitEntry) map[CategoryID]GroupID {
	m := map[CategoryID]GroupID{}
	for groupID, entry := range family {
		if groupID == GeneralGroup {
			continue
		}
		for _, catID := range entry.Categories {
			m[catID] = groupID
		}
	}
	return m
}

// GroupFor returns the group-id a category resolves to within one of the
// four limit-group families on a plan, defaulting to "general".
func (mc *MarkedConfig) GroupFor(planID PlanID, family func(planGroups) map[CategoryID]GroupID, catID CategoryID) GroupID {
	groups := mc.planGroupOf[planID]
	if g, ok := family(groups)[catID]; ok {
		return g
	}
	return GeneralGroup
}

// ServiceOrder returns the with-deductible-then-no-deductible ordered
// service-id sequence for planID (spec §4.2, §4.5).
func (mc *MarkedConfig) ServiceOrder(planID PlanID) (withDeductible, noDeductible []ServiceID) {
	order := mc.planServiceOrder[planID]
	return order.WithDeductible, order.NoDeductible
}

// Coverage returns the normalized, fund-eligibility-resolved rule sequence
// for a service under a plan.
func (mc *MarkedConfig) Coverage(svcID ServiceID, planID PlanID) []CoverageRule {
	return mc.serviceCoverage[svcID][planID]
}

// CategoryOf returns the category a service belongs to.
func (mc *MarkedConfig) CategoryOf(svcID ServiceID) CategoryID {
	return mc.serviceCategory[svcID]
}

// Config returns the underlying, unmutated configuration.
func (mc *MarkedConfig) Config() *Config { return mc.cfg }
