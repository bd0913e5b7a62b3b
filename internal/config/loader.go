// Package config loads MPCE and FSAE configuration, either from a file path
// (JSON) or from the module's embedded default FSAE schedule — the same
// go:embed-then-unmarshal approach the teacher used for its own financial
// configs.
package config

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/areumfire/mpce-go/internal/engine"
	"github.com/areumfire/mpce-go/internal/fsae"
)

//go:embed embedded/*.json
var embeddedConfigs embed.FS

// LoadMPCEConfig reads and unmarshals an engine.Config from path. It does
// not validate the result — call engine.Validate separately (spec §4.1).
//
// Config's polymorphic fields (AmountMap, PremiumTable, Localized, ...) rely
// on encoding/json.Unmarshaler implementations that viper's mapstructure
// decoder does not invoke, and viper's own map-key canonicalization would
// lowercase every case-sensitive identifier (region, plan, service, status
// ids) along the way, so the file is read and unmarshaled directly rather
// than routed through viper.
func LoadMPCEConfig(path string) (*engine.Config, error) {
	raw, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mpce config %s: %w", path, err)
	}
	var cfg engine.Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal mpce config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadFSAESchedule reads and unmarshals a fsae.TaxSchedule from path.
func LoadFSAESchedule(path string) (*fsae.TaxSchedule, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fsae schedule %s: %w", path, err)
	}
	var schedule fsae.TaxSchedule
	if err := json.Unmarshal(data, &schedule); err != nil {
		return nil, fmt.Errorf("unmarshal fsae schedule %s: %w", path, err)
	}
	return &schedule, nil
}

// DefaultFSAESchedule returns the module's embedded 2017 tax schedule, used
// whenever the caller does not supply its own.
func DefaultFSAESchedule() (*fsae.TaxSchedule, error) {
	data, err := embeddedConfigs.ReadFile("embedded/fsae_2017.json")
	if err != nil {
		return nil, fmt.Errorf("read embedded fsae schedule: %w", err)
	}
	var schedule fsae.TaxSchedule
	if err := json.Unmarshal(data, &schedule); err != nil {
		return nil, fmt.Errorf("unmarshal embedded fsae schedule: %w", err)
	}
	return &schedule, nil
}

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
