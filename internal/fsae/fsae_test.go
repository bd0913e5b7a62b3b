package fsae_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/areumfire/mpce-go/internal/config"
	"github.com/areumfire/mpce-go/internal/fsae"
	"github.com/areumfire/mpce-go/internal/money"
)

func defaultSchedule(t *testing.T) fsae.TaxSchedule {
	t.Helper()
	schedule, err := config.DefaultFSAESchedule()
	require.NoError(t, err)
	return *schedule
}

func dollars(t *testing.T, c money.Cents) float64 {
	t.Helper()
	return money.ToFloat(c)
}

// TestCalculate_SingleFilerLowUsage encodes the spec's S1 scenario: a single
// filer contributing their full $1000 cost to an FSA, entirely within the
// 25% federal bracket and entirely below the social security wage limit.
func TestCalculate_SingleFilerLowUsage(t *testing.T) {
	result, err := fsae.Calculate(fsae.Input{
		Schedule:           defaultSchedule(t),
		AccountTypeID:      "FSA",
		FilingStatusID:     "single",
		NumberOfDependents: 0,
		PrimaryIncome:      60000,
		SpouseIncome:       0,
		RolloverAmount:     0,
		Costs:              []float64{1000},
	})
	require.NoError(t, err)

	assert.Equal(t, 1000.0, dollars(t, result.SuggestedContribution))
	assert.Equal(t, 0.0, dollars(t, result.EmployerMatchingContribution))
	assert.Equal(t, 250.0, dollars(t, result.FederalIncomeTaxSavings))
	assert.Equal(t, 76.50, dollars(t, result.FicaTaxSavings))
	assert.Equal(t, 326.50, dollars(t, result.TotalTaxSavings))
	assert.Equal(t, 326.50, dollars(t, result.TotalMatchAndTaxSavings))
}

// TestCalculate_MarriedJointHighIncome encodes the spec's S2 scenario.
func TestCalculate_MarriedJointHighIncome(t *testing.T) {
	result, err := fsae.Calculate(fsae.Input{
		Schedule:           defaultSchedule(t),
		AccountTypeID:      "FSA",
		FilingStatusID:     "marriedFilingJoint",
		NumberOfDependents: 0,
		PrimaryIncome:      200000,
		SpouseIncome:       0,
		RolloverAmount:     0,
		Costs:              []float64{2600},
	})
	require.NoError(t, err)

	assert.Equal(t, 2600.0, dollars(t, result.SuggestedContribution))
	assert.Equal(t, 728.0, dollars(t, result.FederalIncomeTaxSavings))
	assert.Equal(t, 198.90, dollars(t, result.FicaTaxSavings))
}

func TestCalculate_HSAEmployerMatchIsCapped(t *testing.T) {
	schedule := defaultSchedule(t)
	result, err := fsae.Calculate(fsae.Input{
		Schedule:       schedule,
		AccountTypeID:  "HSA",
		FilingStatusID: "single",
		PrimaryIncome:  60000,
		Costs:          []float64{3400},
	})
	require.NoError(t, err)

	// HSA match rate is 50% up to a $500 cap; a $3400 need would want a
	// $1700 match, so the match clamps to $500 and the employee must
	// contribute enough on their own to still cover the full cost.
	assert.Equal(t, 500.0, dollars(t, result.EmployerMatchingContribution))
	assert.InDelta(t, 3400.0, dollars(t, result.SuggestedContribution)+dollars(t, result.EmployerMatchingContribution), 0.01)
}

func TestCalculate_RolloverReducesSuggestedContribution(t *testing.T) {
	schedule := defaultSchedule(t)
	withoutRollover, err := fsae.Calculate(fsae.Input{
		Schedule:      schedule,
		AccountTypeID: "FSA",
		PrimaryIncome: 60000,
		Costs:         []float64{1000},
	})
	require.NoError(t, err)

	withRollover, err := fsae.Calculate(fsae.Input{
		Schedule:       schedule,
		AccountTypeID:  "FSA",
		PrimaryIncome:  60000,
		RolloverAmount: 400,
		Costs:          []float64{1000},
	})
	require.NoError(t, err)

	assert.Equal(t,
		dollars(t, withoutRollover.SuggestedContribution)-400,
		dollars(t, withRollover.SuggestedContribution))
}

func TestCalculate_UnknownAccountTypeIsRejected(t *testing.T) {
	_, err := fsae.Calculate(fsae.Input{
		Schedule:      defaultSchedule(t),
		AccountTypeID: "ghost",
		PrimaryIncome: 10000,
		Costs:         []float64{100},
	})
	require.Error(t, err)
}

func TestCalculate_UnknownFilingStatusIsRejected(t *testing.T) {
	_, err := fsae.Calculate(fsae.Input{
		Schedule:       defaultSchedule(t),
		AccountTypeID:  "FSA",
		FilingStatusID: "ghost",
		PrimaryIncome:  10000,
		Costs:          []float64{100},
	})
	require.Error(t, err)
}

func TestCalculateFicaPayrollTaxes_MonotonicPastSSLimit(t *testing.T) {
	schedule := defaultSchedule(t)
	below := fsae.CalculateFicaPayrollTaxes(100000, schedule)
	atLimit := fsae.CalculateFicaPayrollTaxes(schedule.SocialSecurityLimit, schedule)
	above := fsae.CalculateFicaPayrollTaxes(schedule.SocialSecurityLimit+100000, schedule)

	assert.Less(t, below, atLimit)
	assert.Less(t, atLimit, above)
	// Past the SS limit only the medicare rate keeps accruing.
	assert.InDelta(t, 100000*schedule.MedicareRate, above-atLimit, 0.001)
}
