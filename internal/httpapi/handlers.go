package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/areumfire/mpce-go/internal/engine"
	"github.com/areumfire/mpce-go/internal/fsae"
	"github.com/areumfire/mpce-go/internal/money"
)

// Server holds the already-loaded, already-validated configuration every
// handler operates over; engine.Calculate marks the MPCE config on first use.
type Server struct {
	MPCEConfig    *engine.Config
	FSAESchedule  *fsae.TaxSchedule
	Logger        *zap.SugaredLogger
}

func (s *Server) log() *zap.SugaredLogger {
	if s.Logger != nil {
		return s.Logger
	}
	return zap.NewNop().Sugar()
}

// HandleHealth reports liveness plus whether configuration is loaded.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"mpceLoaded":  s.MPCEConfig != nil,
		"fsaeLoaded":  s.FSAESchedule != nil,
	})
}

// HandleMPCECalculate serves POST /mpce/calculate.
func (s *Server) HandleMPCECalculate(w http.ResponseWriter, r *http.Request) {
	if s.MPCEConfig == nil {
		writeError(w, http.StatusServiceUnavailable, "mpce configuration not loaded")
		return
	}

	var req MPCERequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := engine.Calculate(req.ToCalculateInput(s.MPCEConfig))
	if err != nil {
		s.log().Warnw("mpce calculate failed", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toMPCEResponse(result))
}

// HandleFSAECalculate serves POST /fsae/calculate.
func (s *Server) HandleFSAECalculate(w http.ResponseWriter, r *http.Request) {
	if s.FSAESchedule == nil {
		writeError(w, http.StatusServiceUnavailable, "fsae schedule not loaded")
		return
	}

	var req FSAERequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := fsae.Calculate(req.ToInput(*s.FSAESchedule))
	if err != nil {
		s.log().Warnw("fsae calculate failed", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toFSAEResponse(result))
}

func toMPCEResponse(result *engine.CalculateResult) map[string]any {
	plans := make([]map[string]any, 0, len(result.Plans))
	for _, p := range result.Plans {
		plans = append(plans, map[string]any{
			"planId":                                        string(p.PlanID),
			"totalDeductibles":                               money.ToFloat(p.TotalDeductibles),
			"totalCopays":                                     money.ToFloat(p.TotalCopays),
			"totalCoinsurance":                                money.ToFloat(p.TotalCoinsurance),
			"totalExpensesNotCovered":                         money.ToFloat(p.TotalExpensesNotCovered),
			"totalRawExpenses":                                money.ToFloat(p.TotalRawExpenses),
			"totalFundEligibleCosts":                          money.ToFloat(p.TotalFundEligibleCosts),
			"totalFundOffset":                                 money.ToFloat(p.TotalFundOffset),
			"fundOffsetFromPlanFund":                          money.ToFloat(p.FundOffsetFromPlanFund),
			"fundOffsetFromExtraMatch":                        money.ToFloat(p.FundOffsetFromExtraMatch),
			"fundOffsetFromRollover":                          money.ToFloat(p.FundOffsetFromRollover),
			"fundOffsetFromVoluntary":                         money.ToFloat(p.FundOffsetFromVoluntary),
			"fundCarryoverBalance":                            money.ToFloat(p.FundCarryoverBalance),
			"medicalAndDrugCostsExcludingDeductibles":         money.ToFloat(p.MedicalAndDrugCostsExcludingDeductibles),
			"medicalAndDrugCostsIncludingDeductibles":         money.ToFloat(p.MedicalAndDrugCostsIncludingDeductibles),
			"medicalAndDrugCostsIncludingDeductiblesLessFund": money.ToFloat(p.MedicalAndDrugCostsIncludingDeductiblesLessFund),
			"employerOrPlanPaidExcludingFund":                 money.ToFloat(p.EmployerOrPlanPaidExcludingFund),
			"annualPremiumRaw":                                money.ToFloat(p.AnnualPremiumRaw),
			"annualPremiumAdjusted":                           money.ToFloat(p.AnnualPremiumAdjusted),
			"carePlusPremium":                                 money.ToFloat(p.CarePlusPremium),
			"annualTotal":                                     money.ToFloat(p.AnnualTotal),
			"currentYearFundContributions":                    money.ToFloat(p.CurrentYearFundContributions),
		})
	}
	return map[string]any{
		"plans":       plans,
		"elapsedMsec": result.ElapsedMsec,
	}
}

func toFSAEResponse(result *fsae.Result) map[string]any {
	return map[string]any{
		"accountTypeId":                string(result.AccountTypeID),
		"accountTypeDescription":       result.AccountTypeDescription,
		"totalCosts":                   money.ToFloat(result.TotalCosts),
		"suggestedContribution":        money.ToFloat(result.SuggestedContribution),
		"employerMatchingContribution": money.ToFloat(result.EmployerMatchingContribution),
		"federalIncomeTaxSavings":      money.ToFloat(result.FederalIncomeTaxSavings),
		"ficaTaxSavings":               money.ToFloat(result.FicaTaxSavings),
		"totalTaxSavings":              money.ToFloat(result.TotalTaxSavings),
		"totalMatchAndTaxSavings":      money.ToFloat(result.TotalMatchAndTaxSavings),
		"elapsedMsec":                  result.ElapsedMsec,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
