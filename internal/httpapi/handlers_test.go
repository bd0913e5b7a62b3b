package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/areumfire/mpce-go/internal/config"
	"github.com/areumfire/mpce-go/internal/engine"
)

func loadTestConfig(t *testing.T) *engine.Config {
	t.Helper()
	cfg, err := config.LoadMPCEConfig("../../testdata/mpce_config.json")
	require.NoError(t, err)
	require.NoError(t, engine.Validate(cfg))
	return cfg
}

func TestHandleHealth_ReportsLoadedState(t *testing.T) {
	s := &Server{}
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	s.HandleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["mpceLoaded"])
}

func TestHandleMPCECalculate_RejectsMissingBody(t *testing.T) {
	s := &Server{MPCEConfig: loadTestConfig(t)}
	req := httptest.NewRequest(http.MethodPost, "/mpce/calculate", strings.NewReader("{}"))
	w := httptest.NewRecorder()

	s.HandleMPCECalculate(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleMPCECalculate_ReturnsPerPlanResults(t *testing.T) {
	s := &Server{MPCEConfig: loadTestConfig(t)}
	body := `{"regionId":"CA","statusId":"fullTime","primary":{"officeVisit":2}}`
	req := httptest.NewRequest(http.MethodPost, "/mpce/calculate", strings.NewReader(body))
	w := httptest.NewRecorder()

	s.HandleMPCECalculate(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	plans, ok := resp["plans"].([]any)
	require.True(t, ok)
	assert.Len(t, plans, 3)
}

func TestHandleMPCECalculate_ServiceUnavailableWithoutConfig(t *testing.T) {
	s := &Server{}
	req := httptest.NewRequest(http.MethodPost, "/mpce/calculate", strings.NewReader("{}"))
	w := httptest.NewRecorder()

	s.HandleMPCECalculate(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandleFSAECalculate_ReturnsSavings(t *testing.T) {
	schedule, err := config.DefaultFSAESchedule()
	require.NoError(t, err)
	s := &Server{FSAESchedule: schedule}

	body := `{"accountTypeId":"FSA","filingStatusId":"single","primaryAnnualIncome":60000,"cost":1000}`
	req := httptest.NewRequest(http.MethodPost, "/fsae/calculate", strings.NewReader(body))
	w := httptest.NewRecorder()

	s.HandleFSAECalculate(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 250.0, resp["federalIncomeTaxSavings"])
}

func TestHandleFSAECalculate_RejectsBadFilingStatus(t *testing.T) {
	schedule, err := config.DefaultFSAESchedule()
	require.NoError(t, err)
	s := &Server{FSAESchedule: schedule}

	body := `{"filingStatusId":"not-a-status","primaryAnnualIncome":60000,"cost":1000}`
	req := httptest.NewRequest(http.MethodPost, "/fsae/calculate", strings.NewReader(body))
	w := httptest.NewRecorder()

	s.HandleFSAECalculate(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
