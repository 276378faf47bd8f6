package entity

import (
	"time"

	"github.com/google/uuid"
)

type LeavePlan struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Date      string    `json:"date"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`
}

// LeavePlanEntry is one planned day joined with its owner's identity.
type LeavePlanEntry struct {
	Date      string    `json:"date"`
	UserID    uuid.UUID `json:"userId"`
	Username  string    `json:"username"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
}

type LeavePlanRequest struct {
	Date string `json:"date"`
}
