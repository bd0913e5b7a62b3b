package engine

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/multierr"
)

// ConfigError is C1's single fatal failure: a collated, de-duplicated,
// sorted report of every structural or referential problem the validator
// found. It is never partially recovered (spec §4.1, §7).
type ConfigError struct {
	issues []string
}

// newConfigError builds a ConfigError from an accumulated multierr chain,
// de-duplicating and sorting the individual messages so repeated runs over
// the same bad configuration always produce byte-identical output.
func newConfigError(err error) *ConfigError {
	if err == nil {
		return nil
	}
	seen := map[string]struct{}{}
	var issues []string
	for _, e := range multierr.Errors(err) {
		msg := e.Error()
		if _, ok := seen[msg]; ok {
			continue
		}
		seen[msg] = struct{}{}
		issues = append(issues, msg)
	}
	sort.Strings(issues)
	return &ConfigError{issues: issues}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration (%d issue(s)): %s", len(e.issues), strings.Join(e.issues, "; "))
}

// Issues returns the individual, sorted, de-duplicated error messages.
func (e *ConfigError) Issues() []string { return e.issues }

// CallErrorKind distinguishes the fatal call-time error conditions of spec §7.
type CallErrorKind int

const (
	ErrUnknownRegion CallErrorKind = iota
	ErrUnknownStatus
	ErrMissingPrimary
	ErrInvalidChildren
	ErrIncompatibleHousehold
	ErrUnknownAccountType
	ErrUnknownFilingStatus
)

// CallError is a single fatal issue raised by C3/C6 (spec §7): unknown
// identifier, missing required argument, or a household the coverage-level
// table cannot represent. Always fatal to the call, never retried. C7 raises
// its own fsae.CallError instead.
type CallError struct {
	Kind    CallErrorKind
	Message string
}

func (e *CallError) Error() string { return e.Message }

func callError(kind CallErrorKind, format string, args ...interface{}) *CallError {
	return &CallError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
