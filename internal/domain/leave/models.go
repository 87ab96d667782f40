package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusCancelled = "CANCELLED"
)

const (
	FirstHalf  = "FIRST_HALF"
	SecondHalf = "SECOND_HALF"
)

type LeaveType struct {
	ID                  string           `json:"id"`
	Name                string           `json:"name"`
	Code                string           `json:"code"`
	DefaultDaysPerYear  decimal.Decimal  `json:"defaultDaysPerYear"`
	MaxDays             *decimal.Decimal `json:"maxDays,omitempty"`
	IsPaid              bool             `json:"isPaid"`
	RequiresApproval    bool             `json:"requiresApproval"`
	CarryForwardAllowed bool             `json:"carryForwardAllowed"`
	MaxCarryForward     *decimal.Decimal `json:"maxCarryForward,omitempty"`
	MinDaysNotice       int              `json:"minDaysNotice"`
	IsActive            bool             `json:"isActive"`
	CreatedAt           time.Time        `json:"createdAt"`
}

// LeaveAccount is one ledger row, uniquely keyed by (user, leave type, year).
// Used is maintained exclusively by request transitions; Adjusted is the only
// field that may legitimately push the derived balance negative.
type LeaveAccount struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	LeaveTypeID string          `json:"leaveTypeId"`
	Year        int             `json:"year"`
	Allocated   decimal.Decimal `json:"allocated"`
	CarriedOver decimal.Decimal `json:"carriedOver"`
	Adjusted    decimal.Decimal `json:"adjusted"`
	Used        decimal.Decimal `json:"used"`
	Notes       string          `json:"notes,omitempty"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type LeaveRequest struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	LeaveTypeID     string          `json:"leaveTypeId"`
	StartDate       time.Time       `json:"startDate"`
	EndDate         time.Time       `json:"endDate"`
	Days            decimal.Decimal `json:"days"`
	IsHalfDay       bool            `json:"isHalfDay"`
	HalfDayType     string          `json:"halfDayType,omitempty"`
	Reason          string          `json:"reason,omitempty"`
	Status          string          `json:"status"`
	ApproverID      string          `json:"approverId,omitempty"`
	ApprovedAt      *time.Time      `json:"approvedAt,omitempty"`
	RejectionReason string          `json:"rejectionReason,omitempty"`
	CancelReason    string          `json:"cancelReason,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Year returns the ledger year the request draws from.
func (r LeaveRequest) Year() int {
	return r.StartDate.Year()
}
