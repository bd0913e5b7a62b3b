package fsae

// defaultFilingStatusID is the fallback per spec §4.7: an empty
// filingStatusId defaults to "single".
const defaultFilingStatusID FilingStatusID = "single"

// resolveAccountType defaults an empty id to the schedule's first
// configured account type, per spec §4.7.
func resolveAccountType(schedule TaxSchedule, id AccountTypeID) (AccountType, AccountTypeID, error) {
	if id == "" {
		if len(schedule.AccountTypesOrder) == 0 {
			return AccountType{}, "", callError(ErrUnknownAccountType, "no account types are configured")
		}
		id = schedule.AccountTypesOrder[0]
	}
	at, ok := schedule.AccountTypes[id]
	if !ok {
		return AccountType{}, "", callError(ErrUnknownAccountType, "unknown account type %q", id)
	}
	return at, id, nil
}

// resolveFilingStatus defaults an empty id to "single", per spec §4.7.
func resolveFilingStatus(schedule TaxSchedule, id FilingStatusID) (FilingStatus, FilingStatusID, error) {
	if id == "" {
		id = defaultFilingStatusID
	}
	fs, ok := schedule.FilingStatuses[id]
	if !ok {
		return FilingStatus{}, "", callError(ErrUnknownFilingStatus, "unknown filing status %q", id)
	}
	return fs, id, nil
}
