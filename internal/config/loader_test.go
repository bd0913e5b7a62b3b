package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/areumfire/mpce-go/internal/config"
)

func TestDefaultFSAESchedule_LoadsEmbedded2017Constants(t *testing.T) {
	schedule, err := config.DefaultFSAESchedule()
	require.NoError(t, err)

	assert.Equal(t, 250000.0, schedule.SocialSecurityLimit)
	assert.Equal(t, 0.062, schedule.SocialSecurityRate)
	assert.Equal(t, 0.0145, schedule.MedicareRate)

	fsa, ok := schedule.AccountTypes["FSA"]
	require.True(t, ok)
	assert.Equal(t, 2600.0, fsa.ContributionMaximum)

	hsa, ok := schedule.AccountTypes["HSA"]
	require.True(t, ok)
	assert.Equal(t, 3400.0, hsa.ContributionMaximum)
	assert.Equal(t, 500.0, hsa.EmployerMaxMatchAmount)

	_, ok = schedule.FilingStatuses["marriedFilingJoint"]
	assert.True(t, ok)
}

func TestLoadMPCEConfig_ReadsFixtureFile(t *testing.T) {
	cfg, err := config.LoadMPCEConfig("../../testdata/mpce_config.json")
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.PlansOrder)
	assert.NotEmpty(t, cfg.RegionsOrder)
}

func TestLoadMPCEConfig_MissingFileIsAnError(t *testing.T) {
	_, err := config.LoadMPCEConfig("../../testdata/does_not_exist.json")
	assert.Error(t, err)
}

func TestLoadFSAESchedule_MissingFileIsAnError(t *testing.T) {
	_, err := config.LoadFSAESchedule("../../testdata/does_not_exist.json")
	assert.Error(t, err)
}
