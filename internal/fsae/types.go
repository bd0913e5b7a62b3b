// Package fsae implements the Flexible Spending / HSA Estimator (FSAE):
// contribution sizing and federal-bracket/FICA tax savings (spec §4.7).
package fsae

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

type AccountTypeID string
type FilingStatusID string

// AccountType is one configured account kind (e.g. "FSA", "HSA"): its
// contribution bounds and employer-match terms.
type AccountType struct {
	Description            string  `json:"description"`
	ContributionMinimum    float64 `json:"contributionMinimum"`
	ContributionMaximum    float64 `json:"contributionMaximum"`
	EmployerMatchRate      float64 `json:"employerMatchRate"`
	EmployerMaxMatchAmount float64 `json:"employerMaxMatchAmount"`
}

// TaxBracket is one bracket in a filing-status's progressive schedule.
// Upper may be "Infinity" for the top, open-ended bracket.
type TaxBracket struct {
	Upper float64 `json:"-"`
	Rate  float64 `json:"rate"`
}

func (b *TaxBracket) UnmarshalJSON(data []byte) error {
	var raw struct {
		Upper json.RawMessage `json:"upper"`
		Rate  float64         `json:"rate"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.Rate = raw.Rate
	upper, err := parseBracketUpper(raw.Upper)
	if err != nil {
		return err
	}
	b.Upper = upper
	return nil
}

func parseBracketUpper(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("bracket upper is required")
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		switch strings.ToLower(strings.TrimSpace(asString)) {
		case "infinity", "+infinity", "unlimited", "+∞", "∞":
			return math.Inf(1), nil
		default:
			return 0, fmt.Errorf("invalid bracket upper string: %q", asString)
		}
	}
	var asNumber float64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return asNumber, nil
	}
	return 0, fmt.Errorf("invalid bracket upper value: %s", string(raw))
}

// FilingStatus is one IRS filing status's exemptions, standard deduction,
// and ordered (low-to-high) bracket schedule.
type FilingStatus struct {
	Description        string       `json:"description"`
	PersonalExemption  float64      `json:"personalExemption"`
	DependentExemption float64      `json:"dependentExemption"`
	StandardDeduction  float64      `json:"standardDeduction"`
	Brackets           []TaxBracket `json:"brackets"`
}

// TaxSchedule is the full configuration C7 operates over: the set of
// account types, filing statuses, and the FICA constants.
type TaxSchedule struct {
	AccountTypes      map[AccountTypeID]AccountType `json:"accountTypes"`
	AccountTypesOrder []AccountTypeID                `json:"accountTypesOrder"`

	FilingStatuses map[FilingStatusID]FilingStatus `json:"filingStatuses"`

	SocialSecurityLimit float64 `json:"socialSecurityLimit"`
	SocialSecurityRate  float64 `json:"socialSecurityRate"`
	MedicareRate        float64 `json:"medicareRate"`
}
