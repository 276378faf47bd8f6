package entity

import (
	"time"

	"github.com/google/uuid"
)

type Workday struct {
	ID                uuid.UUID `json:"id"`
	UserID            uuid.UUID `json:"userId"`
	Date              time.Time `json:"date"`
	HoursWorked       *float64  `json:"hoursWorked,omitempty"`
	AdditionalWorked  *float64  `json:"additionalWorked,omitempty"`
	RealTimeDayWorked *string   `json:"realTimeDayWorked,omitempty"`
	AbsenceType       *string   `json:"absenceType,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

type WorkdayRequest struct {
	Date              string   `json:"date"`
	HoursWorked       *float64 `json:"hoursWorked"`
	AdditionalWorked  *float64 `json:"additionalWorked"`
	RealTimeDayWorked *string  `json:"realTimeDayWorked"`
	AbsenceType       *string  `json:"absenceType"`
}

type CalendarConfirmation struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"userId"`
	Month       int       `json:"month"`
	Year        int       `json:"year"`
	IsConfirmed bool      `json:"isConfirmed"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ConfirmRequest struct {
	Month       *int `json:"month"`
	Year        *int `json:"year"`
	IsConfirmed bool `json:"isConfirmed"`
}

type ConfirmationStatus struct {
	IsConfirmed bool `json:"isConfirmed"`
}
