package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

var halfDay = decimal.NewFromFloat(0.5)

// Balance is the derived ledger balance: allocated + carriedOver + adjusted - used.
func Balance(account LeaveAccount) decimal.Decimal {
	return account.Allocated.Add(account.CarriedOver).Add(account.Adjusted).Sub(account.Used)
}

// RequestDays returns the day cost of a request: 0.5 for a half-day,
// otherwise the inclusive calendar day count. Clock times never skew the
// count; both ends are normalized to their calendar date first.
func RequestDays(start, end time.Time, isHalfDay bool) (decimal.Decimal, error) {
	startDay, endDay := dateOnly(start), dateOnly(end)
	if endDay.Before(startDay) {
		return decimal.Zero, ErrInvalidRange
	}
	if isHalfDay {
		if !startDay.Equal(endDay) {
			return decimal.Zero, ErrInvalidRange
		}
		return halfDay, nil
	}
	days := int64(endDay.Sub(startDay).Hours()/24) + 1
	return decimal.NewFromInt(days), nil
}

// ValidateRequest checks the date and half-day invariants of a candidate request.
func ValidateRequest(start, end time.Time, isHalfDay bool, halfDayType string) error {
	if start.IsZero() || end.IsZero() || dateOnly(end).Before(dateOnly(start)) {
		return ErrInvalidRange
	}
	if isHalfDay {
		if !sameDate(start, end) {
			return ErrInvalidRange
		}
		if halfDayType != FirstHalf && halfDayType != SecondHalf {
			return ErrInvalidRange
		}
		return nil
	}
	if halfDayType != "" {
		return ErrInvalidRange
	}
	return nil
}

// Overlaps reports whether two closed date intervals intersect. Back-to-back
// requests sharing a boundary day overlap; same-day AM/PM pairs are not
// special-cased.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}

func sameDate(a, b time.Time) bool {
	return dateOnly(a).Equal(dateOnly(b))
}

// dateOnly truncates to midnight UTC: the calendar day is the unit of the
// whole ledger, so timestamps are flattened before any comparison or count.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
