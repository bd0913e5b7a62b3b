// Package httpapi translates wire-level JSON requests into the engine and
// fsae packages' native call shapes, validating boundary input with
// go-playground/validator struct tags before anything reaches C1-validated
// domain code.
package httpapi

import (
	"github.com/go-playground/validator/v10"

	"github.com/areumfire/mpce-go/internal/engine"
	"github.com/areumfire/mpce-go/internal/fsae"
)

var validate = validator.New()

// PlanOptionsRequest is the wire shape of one plan's optional per-call
// inputs (spec §6).
type PlanOptionsRequest struct {
	Rollover          float64 `json:"rollover"`
	Voluntary         float64 `json:"voluntary"`
	PremiumAdjustment float64 `json:"premiumAdjustment"`
	AdditionalMatch   float64 `json:"additionalMatch"`
}

// MPCERequest is the wire shape of a POST /mpce/calculate body.
type MPCERequest struct {
	RegionID string `json:"regionId" validate:"required"`
	StatusID string `json:"statusId" validate:"required"`

	Primary  map[string]int            `json:"primary" validate:"required"`
	Spouse   map[string]int             `json:"spouse,omitempty"`
	Children []map[string]int          `json:"children,omitempty"`

	PerPlanOptions map[string]PlanOptionsRequest `json:"perPlanOptions,omitempty"`
}

// Validate runs struct-tag validation over the request.
func (r *MPCERequest) Validate() error {
	return validate.Struct(r)
}

// ToCalculateInput translates the wire request into engine.CalculateInput
// against cfg, which the caller must already have validated (engine.Calculate
// marks it on first use).
func (r *MPCERequest) ToCalculateInput(cfg *engine.Config) engine.CalculateInput {
	input := engine.CalculateInput{
		Config:   cfg,
		RegionID: engine.RegionID(r.RegionID),
		StatusID: engine.StatusID(r.StatusID),
		Primary:  toMember(r.Primary),
	}
	if r.Spouse != nil {
		input.Spouse = toMember(r.Spouse)
	}
	for _, child := range r.Children {
		input.Children = append(input.Children, *toMember(child))
	}
	if len(r.PerPlanOptions) > 0 {
		input.PerPlanOptions = map[engine.PlanID]engine.PlanCallOptions{}
		for planID, opts := range r.PerPlanOptions {
			input.PerPlanOptions[engine.PlanID(planID)] = engine.PlanCallOptions{
				Rollover:          opts.Rollover,
				Voluntary:         opts.Voluntary,
				PremiumAdjustment: opts.PremiumAdjustment,
				AdditionalMatch:   opts.AdditionalMatch,
			}
		}
	}
	return input
}

func toMember(services map[string]int) *engine.HouseholdMember {
	m := &engine.HouseholdMember{Services: map[engine.ServiceID]int{}}
	for svcID, count := range services {
		m.Services[engine.ServiceID(svcID)] = count
	}
	return m
}

// FSAERequest is the wire shape of a POST /fsae/calculate body.
type FSAERequest struct {
	AccountTypeID      string    `json:"accountTypeId"`
	FilingStatusID     string    `json:"filingStatusId" validate:"omitempty,oneof=single marriedFilingJoint marriedFilingSeparate headOfHousehold"`
	NumberOfDependents int       `json:"numberOfDependents" validate:"gte=0"`
	PrimaryAnnualIncome float64  `json:"primaryAnnualIncome"`
	SpouseAnnualIncome  float64  `json:"spouseAnnualIncome"`
	RolloverAmount      float64  `json:"rolloverAmount"`
	Cost                *float64 `json:"cost,omitempty"`
	Costs               []float64 `json:"costs,omitempty"`
}

// Validate runs struct-tag validation over the request.
func (r *FSAERequest) Validate() error {
	return validate.Struct(r)
}

// ToInput translates the wire request into fsae.Input against schedule.
func (r *FSAERequest) ToInput(schedule fsae.TaxSchedule) fsae.Input {
	costs := r.Costs
	if r.Cost != nil {
		costs = append(costs, *r.Cost)
	}
	return fsae.Input{
		Schedule:           schedule,
		AccountTypeID:      fsae.AccountTypeID(r.AccountTypeID),
		FilingStatusID:     fsae.FilingStatusID(r.FilingStatusID),
		NumberOfDependents: r.NumberOfDependents,
		PrimaryIncome:      r.PrimaryAnnualIncome,
		SpouseIncome:       r.SpouseAnnualIncome,
		RolloverAmount:     r.RolloverAmount,
		Costs:              costs,
	}
}
