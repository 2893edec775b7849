package models

import "time"

// LeaveType enumerates the leave entitlement categories.
type LeaveType string

const (
	LeaveAnnual     LeaveType = "AL"
	LeaveMedical    LeaveType = "ML"
	LeaveCasual     LeaveType = "CL"
	LeaveRestricted LeaveType = "RH"
	LeaveCompOff    LeaveType = "COMOFF"
	LeaveUnpaid     LeaveType = "UNPAID"
)

// Valid returns true when the leave type is a supported value.
func (t LeaveType) Valid() bool {
	switch t {
	case LeaveAnnual, LeaveMedical, LeaveCasual, LeaveRestricted, LeaveCompOff, LeaveUnpaid:
		return true
	default:
		return false
	}
}

// LeaveStatus models the request lifecycle. APPROVED and REJECTED are
// terminal; a request is decided exactly once.
type LeaveStatus string

const (
	LeavePending  LeaveStatus = "PENDING"
	LeaveApproved LeaveStatus = "APPROVED"
	LeaveRejected LeaveStatus = "REJECTED"
)

// Terminal reports whether the status permits no further transitions.
func (s LeaveStatus) Terminal() bool {
	return s == LeaveApproved || s == LeaveRejected
}

// LeaveRequest is an employee's application for leave over an inclusive
// calendar range.
type LeaveRequest struct {
	ID          string      `db:"id" json:"id"`
	UserID      string      `db:"user_id" json:"user_id"`
	Type        LeaveType   `db:"type" json:"type"`
	StartDate   time.Time   `db:"start_date" json:"start_date"`
	EndDate     time.Time   `db:"end_date" json:"end_date"`
	Reason      string      `db:"reason" json:"reason"`
	Status      LeaveStatus `db:"status" json:"status"`
	AppliedDate time.Time   `db:"applied_date" json:"applied_date"`
	DecidedAt   *time.Time  `db:"decided_at" json:"decided_at,omitempty"`
}

// LeaveRequestFilter scopes request listings.
type LeaveRequestFilter struct {
	UserID    string
	Status    *LeaveStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// LeaveBalance holds the remaining entitlement counters for one user.
// Counters are signed; over-allocation drives them negative and is accepted.
type LeaveBalance struct {
	UserID    string    `db:"user_id" json:"user_id"`
	AL        int       `db:"al" json:"al"`
	ML        int       `db:"ml" json:"ml"`
	CL        int       `db:"cl" json:"cl"`
	RH        int       `db:"rh" json:"rh"`
	ComOff    int       `db:"comoff" json:"comoff"`
	Used      int       `db:"used" json:"used"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultLeaveBalance returns the entitlement assigned to a user that has no
// stored balance yet.
func DefaultLeaveBalance(userID string) LeaveBalance {
	return LeaveBalance{
		UserID: userID,
		AL:     15,
		ML:     10,
		CL:     8,
		RH:     2,
		ComOff: 0,
		Used:   0,
	}
}

// Debit applies an approved leave of the given type and day count and
// returns the updated balance. The matching counter is decremented without a
// floor; Used always grows by the day count. UNPAID leave decrements no
// counter but still counts toward Used.
func (b LeaveBalance) Debit(t LeaveType, days int) LeaveBalance {
	switch t {
	case LeaveAnnual:
		b.AL -= days
	case LeaveMedical:
		b.ML -= days
	case LeaveCasual:
		b.CL -= days
	case LeaveRestricted:
		b.RH -= days
	case LeaveCompOff:
		b.ComOff -= days
	}
	b.Used += days
	return b
}

// LeaveBalancePatch is a field-level patch for a balance record. Nil fields
// are left untouched.
type LeaveBalancePatch struct {
	AL     *int `json:"al,omitempty"`
	ML     *int `json:"ml,omitempty"`
	CL     *int `json:"cl,omitempty"`
	RH     *int `json:"rh,omitempty"`
	ComOff *int `json:"comoff,omitempty"`
	Used   *int `json:"used,omitempty"`
}

// Empty reports whether the patch carries no changes.
func (p LeaveBalancePatch) Empty() bool {
	return p.AL == nil && p.ML == nil && p.CL == nil &&
		p.RH == nil && p.ComOff == nil && p.Used == nil
}
