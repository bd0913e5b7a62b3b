package fsae

import (
	"math"
	"time"

	"github.com/areumfire/mpce-go/internal/money"
)

// Input is C7's public call shape (spec §4.7, §6).
type Input struct {
	Schedule           TaxSchedule
	AccountTypeID      AccountTypeID
	FilingStatusID     FilingStatusID
	NumberOfDependents int
	PrimaryIncome      float64
	SpouseIncome       float64
	RolloverAmount     float64
	Costs              []float64
}

// Result is C7's public output (spec §6), every dollar field rounded to
// cents.
type Result struct {
	AccountTypeID                AccountTypeID
	AccountTypeDescription       string
	TotalCosts                   money.Cents
	SuggestedContribution        money.Cents
	EmployerMatchingContribution money.Cents
	FederalIncomeTaxSavings      money.Cents
	FicaTaxSavings               money.Cents
	TotalTaxSavings              money.Cents
	TotalMatchAndTaxSavings      money.Cents
	ElapsedMsec                  float64
}

// CalculateContributions implements spec §4.7's suggested-contribution
// sizing: the suggestion honors the account's min/max and never lets the
// combined household-plus-employer-match payment overshoot either the
// contribution cap or the employer's match cap.
func CalculateContributions(at AccountType, totalCost, rollover float64) (suggested, employerMatch float64) {
	if totalCost == 0 {
		return 0, 0
	}
	remaining := math.Max(0, totalCost-rollover)
	limited := math.Min(at.ContributionMaximum, remaining)

	candidateCombinedCap := limited / (1 + at.EmployerMatchRate)
	candidateMatchCap := limited - at.EmployerMaxMatchAmount
	suggested = math.Max(at.ContributionMinimum, math.Max(candidateCombinedCap, candidateMatchCap))

	employerMatch = math.Min(at.EmployerMaxMatchAmount, suggested*at.EmployerMatchRate)
	return suggested, employerMatch
}

// CalculateFederalIncomeTax implements spec §4.7's progressive-bracket
// walk. Taxable income may go negative; the walk is not clamped, so a
// negative taxable income yields a proportionally negative ("refund
// credit") result, per spec.
func CalculateFederalIncomeTax(income float64, fs FilingStatus, dependents int) float64 {
	taxable := income - fs.PersonalExemption - fs.DependentExemption*float64(dependents) - fs.StandardDeduction

	tax := 0.0
	taxedSoFar := 0.0
	for _, bracket := range fs.Brackets {
		ceiling := taxable
		if !math.IsInf(bracket.Upper, 1) && bracket.Upper < ceiling {
			ceiling = bracket.Upper
		}
		slice := ceiling - taxedSoFar
		tax += slice * bracket.Rate
		taxedSoFar = ceiling
	}
	return tax
}

// CalculateFicaPayrollTaxes implements spec §4.7: Social Security tax is
// capped at the wage base, Medicare tax is not.
func CalculateFicaPayrollTaxes(income float64, schedule TaxSchedule) float64 {
	return math.Min(income, schedule.SocialSecurityLimit)*schedule.SocialSecurityRate + income*schedule.MedicareRate
}

// Calculate implements C7's orchestration: it sizes the contribution, then
// computes the federal-income-tax and FICA savings of electing it.
func Calculate(input Input) (*Result, error) {
	start := time.Now()

	at, accountTypeID, err := resolveAccountType(input.Schedule, input.AccountTypeID)
	if err != nil {
		return nil, err
	}
	fs, filingStatusID, err := resolveFilingStatus(input.Schedule, input.FilingStatusID)
	if err != nil {
		return nil, err
	}

	totalCost := 0.0
	for _, c := range input.Costs {
		totalCost += c
	}

	suggested, employerMatch := CalculateContributions(at, totalCost, input.RolloverAmount)

	householdIncome := input.PrimaryIncome
	if filingStatusID == "marriedFilingJoint" {
		householdIncome += input.SpouseIncome
	}
	taxBefore := CalculateFederalIncomeTax(householdIncome, fs, input.NumberOfDependents)
	taxAfter := CalculateFederalIncomeTax(householdIncome-suggested, fs, input.NumberOfDependents)
	federalSavings := taxBefore - taxAfter

	ficaBefore := CalculateFicaPayrollTaxes(input.PrimaryIncome, input.Schedule)
	ficaAfter := CalculateFicaPayrollTaxes(input.PrimaryIncome-suggested, input.Schedule)
	ficaSavings := ficaBefore - ficaAfter

	totalTaxSavings := federalSavings + ficaSavings
	totalMatchAndTaxSavings := totalTaxSavings + employerMatch

	logger.Infow("fsae calculate", "accountType", accountTypeID, "filingStatus", filingStatusID,
		"totalCost", totalCost, "suggestedContribution", suggested, "totalTaxSavings", totalTaxSavings)

	return &Result{
		AccountTypeID:                accountTypeID,
		AccountTypeDescription:       at.Description,
		TotalCosts:                   money.FromFloat(totalCost),
		SuggestedContribution:        money.FromFloat(suggested),
		EmployerMatchingContribution: money.FromFloat(employerMatch),
		FederalIncomeTaxSavings:      money.FromFloat(federalSavings),
		FicaTaxSavings:               money.FromFloat(ficaSavings),
		TotalTaxSavings:              money.FromFloat(totalTaxSavings),
		TotalMatchAndTaxSavings:      money.FromFloat(totalMatchAndTaxSavings),
		ElapsedMsec:                  float64(time.Since(start).Microseconds()) / 1000.0,
	}, nil
}
