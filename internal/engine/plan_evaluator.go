package engine

import "github.com/areumfire/mpce-go/internal/money"

// HouseholdMember is one person's utilization input: a sparse map of
// service-id to non-negative unit count (absent entries are zero, per
// spec §6).
type HouseholdMember struct {
	Services map[ServiceID]int
}

// PlanCallOptions carries the four optional per-plan caller inputs of
// spec §4.6/§6: rollover and voluntary contribution feed the fund offset;
// premium adjustment and extra match feed the premium and fund-offset
// calculations respectively.
type PlanCallOptions struct {
	Rollover          float64
	Voluntary         float64
	PremiumAdjustment float64
	AdditionalMatch   float64
}

// PlanResult is C5's full per-plan output (spec §4.5), every dollar field
// rounded to cents.
type PlanResult struct {
	PlanID PlanID

	TotalDeductibles        money.Cents
	TotalCopays              money.Cents
	TotalCoinsurance         money.Cents
	TotalExpensesNotCovered  money.Cents
	TotalRawExpenses         money.Cents
	TotalFundEligibleCosts   money.Cents

	TotalFundOffset          money.Cents
	FundOffsetFromPlanFund   money.Cents
	FundOffsetFromExtraMatch money.Cents
	FundOffsetFromRollover   money.Cents
	FundOffsetFromVoluntary  money.Cents
	FundCarryoverBalance     money.Cents

	MedicalAndDrugCostsExcludingDeductibles          money.Cents
	MedicalAndDrugCostsIncludingDeductibles          money.Cents
	MedicalAndDrugCostsIncludingDeductiblesLessFund  money.Cents
	EmployerOrPlanPaidExcludingFund                  money.Cents

	AnnualPremiumRaw      money.Cents
	AnnualPremiumAdjusted money.Cents

	CarePlusPremium money.Cents
	AnnualTotal     money.Cents

	CurrentYearFundContributions money.Cents
}

// EvaluatePlan implements C5: it builds the plan's family and per-person
// budgets at the active coverage level, walks every household member's
// services through their plan's with-deductible-then-no-deductible order
// (spec §4.5), and aggregates the result into a PlanResult.
func EvaluatePlan(mc *MarkedConfig, planID PlanID, region RegionID, status StatusID, level CoverageLevelID, household []HouseholdMember, opts PlanCallOptions) PlanResult {
	cfg := mc.Config()
	plan := cfg.Plans[planID]

	familyBudgets := FamilyBudgets{
		Deductible: buildFamilyBudgets(plan.FamilyDeductibles, region, status, level),
		OOP:        buildFamilyBudgets(plan.FamilyOOPMaximums, region, status, level),
	}
	familyCombinedBudgets := buildCombinedLimitFamilyBudgets(cfg)

	withDeductible, noDeductible := mc.ServiceOrder(planID)
	costsObjectID := plan.EffectiveCostsObjectID()

	result := PlanResult{PlanID: planID}
	for _, member := range household {
		personBudgets := PersonBudgets{
			Deductible: buildFamilyBudgets(plan.PersonDeductibles, region, status, level),
			OOP:        buildFamilyBudgets(plan.PersonOOPMaximums, region, status, level),
		}
		personCombinedBudgets := buildCombinedLimitPersonBudgets(cfg)
		for _, order := range [][]ServiceID{withDeductible, noDeductible} {
			for _, svcID := range order {
				count := member.Services[svcID]
				if count <= 0 {
					continue
				}
				evaluateMemberService(mc, cfg, planID, svcID, count, region, status, costsObjectID, personBudgets, familyBudgets, personCombinedBudgets, familyCombinedBudgets, &result)
			}
		}
	}

	applyFundOffset(cfg, plan, region, status, level, opts, &result)
	applyPremium(cfg, planID, region, status, level, opts, &result)
	finalizeTotals(&result)
	return result
}

// evaluateMemberService resolves one service's per-unit cost, records its
// raw expense, and walks its coverage-rule sequence through C4, subtracting
// each rule's covered-unit claim from the remaining count before moving to
// the next rule (spec §4.5).
func evaluateMemberService(mc *MarkedConfig, cfg *Config, planID PlanID, svcID ServiceID, count int, region RegionID, status StatusID, costsObjectID string, personBudgets PersonBudgets, familyBudgets FamilyBudgets, personCombinedBudgets map[CombinedLimitID]*Budget, familyCombinedBudgets map[CombinedLimitID]*Budget, result *PlanResult) {
	svc := cfg.Services[svcID]
	cost, _ := svc.CostAt(costsObjectID, region)

	result.TotalRawExpenses = money.Add(result.TotalRawExpenses, money.MulInt(money.FromFloat(cost), count))

	catID := mc.CategoryOf(svcID)
	budgets := ServiceBudgets{
		PersonDeductible: personBudgets.Deductible[mc.GroupFor(planID, func(g planGroups) map[CategoryID]GroupID { return g.PersonDeductible }, catID)],
		FamilyDeductible: familyBudgets.Deductible[mc.GroupFor(planID, func(g planGroups) map[CategoryID]GroupID { return g.FamilyDeductible }, catID)],
		PersonOOP:        personBudgets.OOP[mc.GroupFor(planID, func(g planGroups) map[CategoryID]GroupID { return g.PersonOOP }, catID)],
		FamilyOOP:        familyBudgets.OOP[mc.GroupFor(planID, func(g planGroups) map[CategoryID]GroupID { return g.FamilyOOP }, catID)],
	}

	remaining := count
	for _, rule := range mc.Coverage(svcID, planID) {
		if remaining <= 0 {
			break
		}
		ruleBudgets := budgets
		if rule.CombinedLimitID != "" {
			ruleBudgets.CombinedLimit = &CombinedLimitBudgets{
				Person: personCombinedBudgets[rule.CombinedLimitID],
				Family: familyCombinedBudgets[rule.CombinedLimitID],
			}
		}

		eval := evaluateService(svcID, remaining, cost, rule, ruleBudgets)
		result.TotalDeductibles = money.Add(result.TotalDeductibles, eval.Deductible)
		result.TotalCopays = money.Add(result.TotalCopays, eval.Copay)
		result.TotalCoinsurance = money.Add(result.TotalCoinsurance, eval.Coinsurance)
		result.TotalExpensesNotCovered = money.Add(result.TotalExpensesNotCovered, eval.ExpensesNotCovered)

		if rule.EligibleForFund != nil && *rule.EligibleForFund {
			fundEligible := money.Add(eval.Deductible, money.Add(eval.Copay, eval.Coinsurance))
			fundEligible = money.Add(fundEligible, eval.ExpensesNotCovered)
			result.TotalFundEligibleCosts = money.Add(result.TotalFundEligibleCosts, fundEligible)
		}

		remaining -= coveredUnitCount(remaining, cost, rule)
		if eval.CombinedLimitAttained {
			break
		}
	}
}

// applyFundOffset implements spec §4.5's fund offset: plan fund, extra
// match, rollover, and voluntary contribution are consumed against
// fund-eligible costs in that strict priority order.
func applyFundOffset(cfg *Config, plan Plan, region RegionID, status StatusID, level CoverageLevelID, opts PlanCallOptions, result *PlanResult) {
	planFund := money.Zero()
	if amt, ok := ResolveAmount(plan.FundAmountMap, region, status, level); ok {
		planFund = money.FromFloat(amt)
	}
	extraMatch := money.FromFloat(opts.AdditionalMatch)
	rollover := money.FromFloat(opts.Rollover)
	voluntary := money.FromFloat(opts.Voluntary)

	buckets := []*money.Cents{&planFund, &extraMatch, &rollover, &voluntary}
	targets := []*money.Cents{
		&result.FundOffsetFromPlanFund,
		&result.FundOffsetFromExtraMatch,
		&result.FundOffsetFromRollover,
		&result.FundOffsetFromVoluntary,
	}

	need := result.TotalFundEligibleCosts
	for i, bucket := range buckets {
		take := money.Round(money.Min(need, *bucket))
		take = money.ClampNonNegative(take)
		*targets[i] = take
		need = money.ClampNonNegative(money.Sub(need, take))
		*bucket = money.ClampNonNegative(money.Sub(*bucket, take))
	}

	result.TotalFundOffset = money.Add(result.FundOffsetFromPlanFund,
		money.Add(result.FundOffsetFromExtraMatch, money.Add(result.FundOffsetFromRollover, result.FundOffsetFromVoluntary)))
	result.FundCarryoverBalance = money.Add(planFund, money.Add(extraMatch, money.Add(rollover, voluntary)))
	result.CurrentYearFundContributions = money.Add(money.FromFloat(opts.AdditionalMatch), money.FromFloat(opts.Voluntary))
	if amt, ok := ResolveAmount(plan.FundAmountMap, region, status, level); ok {
		result.CurrentYearFundContributions = money.Add(result.CurrentYearFundContributions, money.FromFloat(amt))
	}
}

// applyPremium resolves the plan's annual premium at the active coverage
// level and adds the caller-supplied adjustment, floored at zero.
func applyPremium(cfg *Config, planID PlanID, region RegionID, status StatusID, level CoverageLevelID, opts PlanCallOptions, result *PlanResult) {
	table, ok := cfg.CoverageLevelCostsPerPlan[planID]
	raw := 0.0
	if ok {
		if v, isNA, found := table.Lookup(region, level, status); found && !isNA {
			raw = v
		}
	}
	result.AnnualPremiumRaw = money.FromFloat(raw)
	adjusted := money.Add(result.AnnualPremiumRaw, money.FromFloat(opts.PremiumAdjustment))
	result.AnnualPremiumAdjusted = money.ClampNonNegative(adjusted)
}

// finalizeTotals computes the derived aggregate fields that depend on both
// the accumulated member costs and the fund offset / premium already
// resolved (spec §4.5).
func finalizeTotals(result *PlanResult) {
	excludingDeductibles := money.Add(result.TotalCopays, money.Add(result.TotalCoinsurance, result.TotalExpensesNotCovered))
	result.MedicalAndDrugCostsExcludingDeductibles = money.Round(excludingDeductibles)

	includingDeductibles := money.Add(excludingDeductibles, result.TotalDeductibles)
	result.MedicalAndDrugCostsIncludingDeductibles = money.Round(includingDeductibles)

	result.MedicalAndDrugCostsIncludingDeductiblesLessFund = money.ClampNonNegative(
		money.Round(money.Sub(includingDeductibles, result.TotalFundOffset)))

	memberCost := includingDeductibles
	result.EmployerOrPlanPaidExcludingFund = money.ClampNonNegative(
		money.Round(money.Sub(result.TotalRawExpenses, memberCost)))

	result.CarePlusPremium = money.Round(money.Add(result.MedicalAndDrugCostsIncludingDeductiblesLessFund, result.AnnualPremiumAdjusted))
	result.AnnualTotal = money.Round(money.Add(result.CarePlusPremium, result.FundOffsetFromVoluntary))
}
