package engine

import (
	"math"
	"strings"

	"github.com/areumfire/mpce-go/internal/money"
)

// additionalServicesPrefix marks the synthetic "raw dollars of additional
// medical spend" services described in spec §4.4.
const additionalServicesPrefix = "additionalServices"

// ServiceBudgets bundles the already-group-resolved budgets one C4 call
// mutates. The plan evaluator (C5) resolves which group-id each family
// (person/family deductible/OOP) maps to for the event's category before
// calling evaluateService; C4 itself never looks at groups.
type ServiceBudgets struct {
	PersonDeductible *Budget
	FamilyDeductible *Budget
	PersonOOP        *Budget
	FamilyOOP        *Budget
	CombinedLimit    *CombinedLimitBudgets // nil if the rule has no combinedLimitId
}

// ServiceEvalResult is C4's per-rule-application output (spec §4.4).
type ServiceEvalResult struct {
	Deductible            money.Cents
	Copay                 money.Cents
	Coinsurance           money.Cents
	Reimbursed            money.Cents
	ExpensesNotCovered    money.Cents
	CombinedLimitAttained bool
}

// canonicalizeAdditionalServices implements spec §4.4's special input
// canonicalization: for additionalServices* services with cost==1, (count,
// cost) are swapped so count=1 and cost=count, preserving "raw dollars of
// additional medical spend" without mutating the caller's event.
func canonicalizeAdditionalServices(svcID ServiceID, count int, cost float64) (int, float64) {
	if strings.HasPrefix(string(svcID), additionalServicesPrefix) && cost == 1 {
		return 1, float64(count)
	}
	return count, cost
}

// coveredUnitCount determines how many of n event units this rule covers,
// per spec §4.4: 0 if notCovered; min(n, coveredCount) if coveredCount is
// set; min(n, floor(dollarLimit/cost)) if dollarLimit is set; else n.
func coveredUnitCount(n int, cost float64, rule CoverageRule) int {
	switch {
	case rule.IsNotCovered():
		return 0
	case rule.CoveredCount != nil:
		return minInt(n, *rule.CoveredCount)
	case rule.DollarLimit != nil:
		if cost <= 0 {
			return 0
		}
		byDollar := int(math.Floor(float64(*rule.DollarLimit) / cost))
		return minInt(n, byDollar)
	default:
		return n
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// evaluateService implements C4: apply one coverage rule to n units of one
// service event at costPerUnit, mutating budgets and returning the
// aggregated per-rule-application totals. svcID is used only for the
// additionalServices canonicalization; the caller's event is never mutated,
// only locals here are swapped (spec §9 open question 1).
func evaluateService(svcID ServiceID, n int, costPerUnit float64, rule CoverageRule, budgets ServiceBudgets) ServiceEvalResult {
	n, costPerUnit = canonicalizeAdditionalServices(svcID, n, costPerUnit)

	var result ServiceEvalResult
	cost := money.FromFloat(costPerUnit)

	covered := coveredUnitCount(n, costPerUnit, rule)
	uncoveredUnits := n - covered

	for unit := 0; unit < covered; unit++ {
		outcome, attained := evaluateUnit(cost, rule, budgets)
		result.Deductible = money.Add(result.Deductible, outcome.Deductible)
		result.Copay = money.Add(result.Copay, outcome.Copay)
		result.Coinsurance = money.Add(result.Coinsurance, outcome.Coinsurance)
		result.Reimbursed = money.Add(result.Reimbursed, outcome.Reimbursed)
		result.ExpensesNotCovered = money.Add(result.ExpensesNotCovered, outcome.ExpensesNotCovered)
		if attained {
			result.CombinedLimitAttained = true
			uncoveredUnits += covered - unit - 1
			break
		}
	}

	if uncoveredUnits > 0 {
		result.ExpensesNotCovered = money.Add(result.ExpensesNotCovered, money.MulInt(cost, uncoveredUnits))
	}
	return result
}

type unitOutcome struct {
	Deductible         money.Cents
	Copay              money.Cents
	Coinsurance        money.Cents
	Reimbursed         money.Cents
	ExpensesNotCovered money.Cents
}

// evaluateUnit runs the eight-step per-unit algorithm of spec §4.4 over a
// single covered unit. The returned bool reports whether this unit
// exhausted a combined limit (person or family side reached zero
// available), signaling the caller to stop processing further units of
// this event.
func evaluateUnit(cost money.Cents, rule CoverageRule, budgets ServiceBudgets) (unitOutcome, bool) {
	var out unitOutcome
	costLeft := cost
	singleUseLeft := money.PosInf()
	if rule.SingleUseCostMax != nil {
		singleUseLeft = money.FromFloat(*rule.SingleUseCostMax)
	}

	if rule.Deductible == DeductibleBeforeCopay {
		paid := deductiblePass(costLeft, singleUseLeft, budgets)
		out.Deductible = paid
		costLeft = money.Sub(costLeft, paid)
		singleUseLeft = money.Sub(singleUseLeft, paid)
	}

	if rule.Copay != nil {
		paid := copayPass(costLeft, singleUseLeft, *rule.Copay, rule.CopayNotTowardsOOPMax, budgets)
		out.Copay = paid
		costLeft = money.Sub(costLeft, paid)
		singleUseLeft = money.Sub(singleUseLeft, paid)
	}

	if rule.Deductible == DeductibleAfterCopay {
		paid := deductiblePass(costLeft, singleUseLeft, budgets)
		out.Deductible = money.Add(out.Deductible, paid)
		costLeft = money.Sub(costLeft, paid)
		singleUseLeft = money.Sub(singleUseLeft, paid)
	}

	if rule.Coinsurance != nil {
		paid := coinsurancePass(costLeft, singleUseLeft, *rule.Coinsurance, rule.CoinsuranceMinDollar, rule.CoinsuranceMaxDollar, rule.CoinsuranceNotTowardsOOPMax, budgets)
		out.Coinsurance = paid
		costLeft = money.Sub(costLeft, paid)
		singleUseLeft = money.Sub(singleUseLeft, paid)
	}

	attained := false
	if rule.CombinedLimitID != "" && budgets.CombinedLimit != nil {
		avail := money.Min(budgets.CombinedLimit.Person.Available, budgets.CombinedLimit.Family.Available)
		reimbursed := money.ClampNonNegative(money.Min(costLeft, avail))
		budgets.CombinedLimit.Person.Decrement(reimbursed)
		budgets.CombinedLimit.Family.Decrement(reimbursed)
		out.Reimbursed = reimbursed
		costLeft = money.ClampNonNegative(money.Sub(costLeft, reimbursed))
		if costLeft.IsPositive() {
			out.ExpensesNotCovered = money.Add(out.ExpensesNotCovered, costLeft)
		}
		if money.IsZero(budgets.CombinedLimit.Person.Available) || money.IsZero(budgets.CombinedLimit.Family.Available) {
			attained = true
		}
	}

	return out, attained
}

func deductiblePass(costLeft, singleUseLeft money.Cents, budgets ServiceBudgets) money.Cents {
	want := money.Min(costLeft, singleUseLeft)
	want = money.Min(want, budgets.PersonDeductible.Available)
	want = money.Min(want, budgets.FamilyDeductible.Available)
	want = money.ClampNonNegative(money.Round(want))

	budgets.PersonDeductible.Decrement(want)
	budgets.FamilyDeductible.Decrement(want)
	budgets.PersonOOP.Decrement(want)
	budgets.FamilyOOP.Decrement(want)
	return want
}

func copayPass(costLeft, singleUseLeft money.Cents, nominalCopay float64, notTowardsOOP bool, budgets ServiceBudgets) money.Cents {
	potential := money.Min(costLeft, singleUseLeft)
	potential = money.Min(potential, money.FromFloat(nominalCopay))
	potential = money.ClampNonNegative(potential)

	actual := potential
	if !notTowardsOOP {
		actual = money.Min(actual, budgets.PersonOOP.Available)
		actual = money.Min(actual, budgets.FamilyOOP.Available)
		actual = money.ClampNonNegative(money.Round(actual))
		budgets.PersonOOP.Decrement(actual)
		budgets.FamilyOOP.Decrement(actual)
	}
	return money.Round(actual)
}

func coinsurancePass(costLeft, singleUseLeft money.Cents, rate float64, minDollar, maxDollar *float64, notTowardsOOP bool, budgets ServiceBudgets) money.Cents {
	amt := costLeft.Mul(money.FromFloat(rate))
	if minDollar != nil {
		amt = money.Max(amt, money.FromFloat(*minDollar))
	}
	if maxDollar != nil {
		amt = money.Min(amt, money.FromFloat(*maxDollar))
	}
	amt = money.Min(amt, costLeft)
	amt = money.Min(amt, singleUseLeft)
	amt = money.ClampNonNegative(amt)

	actual := amt
	if !notTowardsOOP {
		actual = money.Min(actual, budgets.PersonOOP.Available)
		actual = money.Min(actual, budgets.FamilyOOP.Available)
		actual = money.ClampNonNegative(money.Round(actual))
		budgets.PersonOOP.Decrement(actual)
		budgets.FamilyOOP.Decrement(actual)
	}
	return money.Round(actual)
}
