package engine

import (
	"encoding/json"
	"fmt"
)

// AmountMap is the polymorphic lookup table described in spec §3 and named
// as a design note in spec §9: either a direct coverage-level→amount map,
// or a region-id→coverage-level→amount map, or a status-id→coverage-level→
// amount map. The shape is detected once at parse time; ResolveAmount then
// tries region, then status, then direct, in that order.
type AmountMap struct {
	Direct   map[CoverageLevelID]float64
	TwoLevel map[string]map[CoverageLevelID]float64
	isTwoLevel bool
}

func (am *AmountMap) UnmarshalJSON(data []byte) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return err
	}
	for _, v := range top {
		var asNumber float64
		if err := json.Unmarshal(v, &asNumber); err == nil {
			var direct map[CoverageLevelID]float64
			if err := json.Unmarshal(data, &direct); err != nil {
				return err
			}
			am.Direct = direct
			am.isTwoLevel = false
			return nil
		}
		var nested map[CoverageLevelID]float64
		if err := json.Unmarshal(v, &nested); err == nil {
			var twoLevel map[string]map[CoverageLevelID]float64
			if err := json.Unmarshal(data, &twoLevel); err != nil {
				return err
			}
			am.TwoLevel = twoLevel
			am.isTwoLevel = true
			return nil
		}
		return fmt.Errorf("amountMap value has unrecognized shape: %s", string(v))
	}
	// empty object: treat as an empty direct map.
	am.Direct = map[CoverageLevelID]float64{}
	return nil
}

// ResolveAmount implements the "resolveAmount(map, region, status,
// coverageLevel)" helper of spec §9: it tries the region-keyed shape, then
// the status-keyed shape, then the flat coverage-level shape, in that
// order, returning the first match.
func ResolveAmount(am *AmountMap, region RegionID, status StatusID, level CoverageLevelID) (float64, bool) {
	if am == nil {
		return 0, false
	}
	if am.isTwoLevel {
		if byLevel, ok := am.TwoLevel[string(region)]; ok {
			if v, ok := byLevel[level]; ok {
				return v, true
			}
		}
		if byLevel, ok := am.TwoLevel[string(status)]; ok {
			if v, ok := byLevel[level]; ok {
				return v, true
			}
		}
		return 0, false
	}
	v, ok := am.Direct[level]
	return v, ok
}

// ResolveLimitEntry resolves a LimitEntry's scalar Amount or its AmountMap,
// in that order (spec §3: "a limit entry carries either amount ... or
// amountMap"). Returns false if neither yields a value.
func ResolveLimitEntry(entry LimitEntry, region RegionID, status StatusID, level CoverageLevelID) (float64, bool) {
	if entry.Amount != nil {
		return *entry.Amount, true
	}
	if entry.AmountMap != nil {
		return ResolveAmount(entry.AmountMap, region, status, level)
	}
	return 0, false
}
