package billing

import (
	"time"

	"github.com/amt/backend/internal/domain/shared"
)

// maxDueDay caps the contract due day when building monthly due dates, so a
// contract signed with due day 29-31 still produces a valid date in February.
const maxDueDay = 28

// ScheduleGenerator produces the monthly billing lines for a contract's date
// range. It is a pure domain service: callers load the existing lines, run the
// generator, and persist the result inside one atomic unit.
type ScheduleGenerator struct{}

// NewScheduleGenerator creates a new ScheduleGenerator
func NewScheduleGenerator() *ScheduleGenerator {
	return &ScheduleGenerator{}
}

// ScheduleResult describes the outcome of a schedule generation run
type ScheduleResult struct {
	// ToDelete holds existing planned lines that must be removed before the
	// new ones are inserted (idempotent regeneration).
	ToDelete []*BillingLine
	// Created holds the freshly generated lines.
	Created []*BillingLine
}

// Generate builds one billing line per calendar-month-aligned period from the
// contract's start date to its end date. The contract's current rent amount is
// used verbatim for every line - partial first or last periods are never
// pro-rated. Existing non-planned lines are preserved: generation resumes the
// day after the latest invoiced period end.
func (g *ScheduleGenerator) Generate(contract *Contract, existing []*BillingLine, today time.Time) (*ScheduleResult, error) {
	if !contract.Status.CanGenerateSchedule() {
		return nil, shared.NewDomainError("INVALID_STATE",
			"Billing lines can only be generated for draft or active contracts")
	}

	result := &ScheduleResult{}

	current := truncateToDate(contract.StartDate)
	endDate := truncateToDate(contract.EndDate)

	// Planned lines are recreated from scratch; any line with payment history
	// pins the periods it already covers.
	var latestInvoiced time.Time
	for _, line := range existing {
		if line.IsPlanned() {
			result.ToDelete = append(result.ToDelete, line)
			continue
		}
		if line.PeriodEnd.After(latestInvoiced) {
			latestInvoiced = line.PeriodEnd
		}
	}
	if !latestInvoiced.IsZero() && !latestInvoiced.Before(current) {
		current = latestInvoiced.AddDate(0, 0, 1)
	}

	rent := contract.GetRentAmountMoney()

	for current.Before(endDate) {
		periodEnd := addOneMonthClamped(current).AddDate(0, 0, -1)
		if periodEnd.After(endDate) {
			periodEnd = endDate
		}

		dueDay := contract.DueDay
		if dueDay > maxDueDay {
			dueDay = maxDueDay
		}
		dueDate := time.Date(periodEnd.Year(), periodEnd.Month(), dueDay, 0, 0, 0, 0, time.UTC)

		line, err := NewBillingLine(contract.ID, current, periodEnd, dueDate, rent, UtilityTypeRent)
		if err != nil {
			return nil, err
		}
		line.Recompute(today)
		result.Created = append(result.Created, line)

		current = periodEnd.AddDate(0, 0, 1)
	}

	return result, nil
}

// Fix re-stamps planned billing lines with the contract's current rent amount,
// preserving whatever has already been paid. Lines that carry payment history
// are never touched unless force is set, which rewrites every line.
func (g *ScheduleGenerator) Fix(contract *Contract, lines []*BillingLine, today time.Time, force bool) []*BillingLine {
	var updated []*BillingLine
	for _, line := range lines {
		if !force && !line.IsPlanned() {
			continue
		}
		line.RestampBaseAmount(contract.RentAmount)
		line.Recompute(today)
		updated = append(updated, line)
	}
	return updated
}

// RefreshStatuses recomputes every non-paid line for the given as-of date.
// Overdue and due-window transitions depend on the current date, so this runs
// whenever "today" advances. Safe to call repeatedly.
func (g *ScheduleGenerator) RefreshStatuses(lines []*BillingLine, today time.Time) []*BillingLine {
	var updated []*BillingLine
	for _, line := range lines {
		if line.Status == BillingLineStatusPaid {
			continue
		}
		before := line.Status
		line.Recompute(today)
		if line.Status != before {
			updated = append(updated, line)
		}
	}
	return updated
}

// addOneMonthClamped advances a date by one calendar month, clamping to the
// last day of the target month: Jan 31 -> Feb 28 (29 in leap years), not Mar 3
// as a naive AddDate would give.
func addOneMonthClamped(d time.Time) time.Time {
	year, month := d.Year(), d.Month()+1
	if month > time.December {
		month = time.January
		year++
	}
	day := d.Day()
	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// lastDayOfMonth returns the number of days in the given month
func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
