package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/areumfire/mpce-go/internal/money"
)

func unlimitedBudgets() ServiceBudgets {
	return ServiceBudgets{
		PersonDeductible: NewBudget(money.PosInf()),
		FamilyDeductible: NewBudget(money.PosInf()),
		PersonOOP:        NewBudget(money.PosInf()),
		FamilyOOP:        NewBudget(money.PosInf()),
	}
}

func TestEvaluateService_CopayOnly(t *testing.T) {
	rule := CoverageRule{Copay: floatPtr(20)}
	result := evaluateService("officeVisit", 2, 150, rule, unlimitedBudgets())

	assert.Equal(t, 40.0, money.ToFloat(result.Copay))
	assert.Equal(t, 0.0, money.ToFloat(result.Deductible))
	assert.Equal(t, 0.0, money.ToFloat(result.Coinsurance))
	assert.Equal(t, 0.0, money.ToFloat(result.ExpensesNotCovered))
}

func TestEvaluateService_CopayThenDeductibleThenCoinsurance(t *testing.T) {
	rule := CoverageRule{
		DeductibleRaw: "afterCopay",
		Copay:         floatPtr(100),
		Coinsurance:   floatPtr(0.10),
	}
	require(t, rule.normalize())

	budgets := unlimitedBudgets()
	budgets.FamilyDeductible = NewBudget(money.FromFloat(900))

	result := evaluateService("erVisit", 1, 1640.96, rule, budgets)

	assert.Equal(t, 900.0, money.ToFloat(result.Deductible))
	assert.Equal(t, 100.0, money.ToFloat(result.Copay))
	assert.InDelta(t, 64.10, money.ToFloat(result.Coinsurance), 0.01)
	assert.Equal(t, 0.0, money.ToFloat(result.ExpensesNotCovered))
}

func TestEvaluateUnit_CopayClampedByOOPBudget(t *testing.T) {
	rule := CoverageRule{Copay: floatPtr(30)}
	budgets := unlimitedBudgets()
	budgets.PersonOOP = NewBudget(money.FromFloat(10))
	budgets.FamilyOOP = NewBudget(money.PosInf())

	outcome, _ := evaluateUnit(money.FromFloat(150), rule, budgets)

	assert.Equal(t, 10.0, money.ToFloat(outcome.Copay))
	assert.Equal(t, 0.0, money.ToFloat(outcome.ExpensesNotCovered),
		"once the OOP budget is exhausted the remainder is absorbed by the plan, not billed")
	assert.Equal(t, 0.0, money.ToFloat(budgets.PersonOOP.Available))
}

func TestEvaluateUnit_CopayNotTowardsOOPMaxBypassesBudget(t *testing.T) {
	rule := CoverageRule{Copay: floatPtr(30), CopayNotTowardsOOPMax: true}
	budgets := unlimitedBudgets()
	budgets.PersonOOP = NewBudget(money.FromFloat(10))

	outcome, _ := evaluateUnit(money.FromFloat(150), rule, budgets)

	assert.Equal(t, 30.0, money.ToFloat(outcome.Copay))
	assert.Equal(t, 10.0, money.ToFloat(budgets.PersonOOP.Available),
		"a copay flagged not-towards-OOP-max must not draw down the OOP budget")
}

func TestEvaluateService_NotCoveredRuleIsAllExpensesNotCovered(t *testing.T) {
	notCovered := true
	rule := CoverageRule{NotCovered: &notCovered}

	result := evaluateService("genericDrug", 3, 30, rule, unlimitedBudgets())

	assert.Equal(t, 90.0, money.ToFloat(result.ExpensesNotCovered))
	assert.Equal(t, 0.0, money.ToFloat(result.Copay))
}

func TestEvaluateService_CoveredCountLimitsUnitsCharged(t *testing.T) {
	rule := CoverageRule{Copay: floatPtr(20), CoveredCount: intPtr(1)}

	result := evaluateService("officeVisit", 3, 150, rule, unlimitedBudgets())

	assert.Equal(t, 20.0, money.ToFloat(result.Copay))
	assert.Equal(t, 300.0, money.ToFloat(result.ExpensesNotCovered), "2 uncovered units at $150 each")
}

func TestEvaluateService_CombinedLimitStopsAtExhaustion(t *testing.T) {
	rule := CoverageRule{CombinedLimitID: "cl1"}
	budgets := unlimitedBudgets()
	budgets.CombinedLimit = &CombinedLimitBudgets{
		Person: NewBudget(money.FromFloat(120)),
		Family: NewBudget(money.PosInf()),
	}

	result := evaluateService("genericDrug", 5, 100, rule, budgets)

	assert.True(t, result.CombinedLimitAttained)
	assert.Equal(t, 120.0, money.ToFloat(result.Reimbursed))
	assert.Equal(t, 380.0, money.ToFloat(result.ExpensesNotCovered),
		"$80 leftover on the exhausting unit plus 3 fully-uncovered units at $100")
}

func TestCanonicalizeAdditionalServices(t *testing.T) {
	n, cost := canonicalizeAdditionalServices("additionalServicesFoo", 4, 1)
	assert.Equal(t, 1, n)
	assert.Equal(t, 4.0, cost)

	n2, cost2 := canonicalizeAdditionalServices("officeVisit", 4, 1)
	assert.Equal(t, 4, n2)
	assert.Equal(t, 1.0, cost2)
}

func TestCoveredUnitCount_DollarLimit(t *testing.T) {
	rule := CoverageRule{DollarLimit: intPtr(400)}
	assert.Equal(t, 2, coveredUnitCount(5, 150, rule))
}

func intPtr(i int) *int         { return &i }
func floatPtr(f float64) *float64 { return &f }

func require(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
