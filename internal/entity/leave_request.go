package entity

import (
	"time"

	"github.com/google/uuid"
)

type LeaveType string

const (
	LeaveAnnual     LeaveType = "annual"
	LeaveOccasional LeaveType = "occasional"
	LeaveOnDemand   LeaveType = "on_demand"
	LeaveUnpaid     LeaveType = "unpaid"
	LeaveOther      LeaveType = "other"
)

func (t LeaveType) Valid() bool {
	switch t {
	case LeaveAnnual, LeaveOccasional, LeaveOnDemand, LeaveUnpaid, LeaveOther:
		return true
	}

	return false
}

type LeaveStatus string

const (
	StatusPending  LeaveStatus = "pending"
	StatusAccepted LeaveStatus = "accepted"
	StatusRejected LeaveStatus = "rejected"
)

// DateLayout is the calendar-day format used on the wire and in leave plans.
const DateLayout = "2006-01-02"

type LeaveRequest struct {
	ID             uuid.UUID   `json:"id"`
	UserID         uuid.UUID   `json:"userId"`
	Type           LeaveType   `json:"type"`
	StartDate      time.Time   `json:"startDate"`
	EndDate        time.Time   `json:"endDate"`
	DaysRequested  int         `json:"daysRequested"`
	Replacement    *string     `json:"replacement,omitempty"`
	AdditionalInfo *string     `json:"additionalInfo,omitempty"`
	Status         LeaveStatus `json:"status"`
	UpdatedBy      *uuid.UUID  `json:"updatedBy,omitempty"`
	IsProcessed    bool        `json:"isProcessed"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// LeaveRequestView is a leave request with owner and reviewer names resolved.
type LeaveRequestView struct {
	LeaveRequest

	Owner    *UserSummary `json:"owner,omitempty"`
	Reviewer *UserSummary `json:"reviewer,omitempty"`
}

type SubmitLeaveRequest struct {
	Type           LeaveType `json:"type"`
	StartDate      string    `json:"startDate"`
	EndDate        string    `json:"endDate"`
	DaysRequested  int       `json:"daysRequested"`
	Replacement    *string   `json:"replacement"`
	AdditionalInfo *string   `json:"additionalInfo"`
}

type ChangeStatusRequest struct {
	Status LeaveStatus `json:"status"`
}
