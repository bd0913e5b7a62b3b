package engine

import "github.com/areumfire/mpce-go/internal/money"

// Budget holds one shared used/available pair. The invariant used+available
// == initial holds for its entire lifetime (spec §8 property 2); Decrement
// is the only mutator and it always clamps at zero.
type Budget struct {
	Used      money.Cents
	Available money.Cents
}

// NewBudget creates a budget with the given initial cap, all available.
func NewBudget(cap money.Cents) *Budget {
	return &Budget{Used: money.Zero(), Available: cap}
}

// Initial returns the budget's starting cap (used+available, which is
// invariant across the budget's lifetime).
func (b *Budget) Initial() money.Cents {
	return money.Add(b.Used, b.Available)
}

// Decrement consumes up to want from the budget, returning the amount
// actually consumed (clamped to what's available) and reducing Available /
// increasing Used by exactly that amount.
func (b *Budget) Decrement(want money.Cents) money.Cents {
	amt := money.Round(money.Min(want, b.Available))
	amt = money.ClampNonNegative(amt)
	b.Available = money.ClampNonNegative(money.Sub(b.Available, amt))
	b.Used = money.Add(b.Used, amt)
	return amt
}

// GroupBudgets maps a limit-group family's group-ids to their budgets.
type GroupBudgets map[GroupID]*Budget

// PersonBudgets holds one household member's deductible and OOP budgets,
// keyed by group-id within each family.
type PersonBudgets struct {
	Deductible GroupBudgets
	OOP        GroupBudgets
}

// FamilyBudgets holds the shared, plan-wide deductible and OOP budgets.
type FamilyBudgets struct {
	Deductible GroupBudgets
	OOP        GroupBudgets
}

// CombinedLimitBudgets holds the person and family budgets for one
// combinedLimitId.
type CombinedLimitBudgets struct {
	Person *Budget
	Family *Budget
}

// buildFamilyBudgets resolves every declared group in family (deductible or
// OOP) to a Budget at the active coverage level, defaulting to an uncapped
// budget for any group the plan does not declare (spec §4.5).
func buildFamilyBudgets(family map[GroupID]LimitEntry, region RegionID, status StatusID, level CoverageLevelID) GroupBudgets {
	budgets := GroupBudgets{GeneralGroup: NewBudget(money.PosInf())}
	for groupID, entry := range family {
		amount, ok := ResolveLimitEntry(entry, region, status, level)
		if !ok {
			budgets[groupID] = NewBudget(money.PosInf())
			continue
		}
		budgets[groupID] = NewBudget(money.FromFloat(amount))
	}
	return budgets
}

// buildCombinedLimitFamilyBudgets starts the shared family-side budget for
// every configured combined limit, uncapped if the limit omits a family
// side. Built once per plan evaluation and shared across the household.
func buildCombinedLimitFamilyBudgets(cfg *Config) map[CombinedLimitID]*Budget {
	out := map[CombinedLimitID]*Budget{}
	for id, cl := range cfg.CombinedLimits {
		family := money.PosInf()
		if cl.FamilyReimburseLimit != nil {
			family = money.FromFloat(*cl.FamilyReimburseLimit)
		}
		out[id] = NewBudget(family)
	}
	return out
}

// buildCombinedLimitPersonBudgets starts a fresh person-side budget for
// every configured combined limit, uncapped if the limit omits a person
// side. Built once per household member, like the other per-person budgets.
func buildCombinedLimitPersonBudgets(cfg *Config) map[CombinedLimitID]*Budget {
	out := map[CombinedLimitID]*Budget{}
	for id, cl := range cfg.CombinedLimits {
		person := money.PosInf()
		if cl.PersonReimburseLimit != nil {
			person = money.FromFloat(*cl.PersonReimburseLimit)
		}
		out[id] = NewBudget(person)
	}
	return out
}
