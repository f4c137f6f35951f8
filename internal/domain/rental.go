package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type UnitStatus string

const (
	UnitStatusAvailable   UnitStatus = "Available"
	UnitStatusOccupied    UnitStatus = "Occupied"
	UnitStatusMaintenance UnitStatus = "Maintenance"
)

// RentalUnit is a time-billed asset such as a console station.
type RentalUnit struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Type             string          `json:"type"`
	HourlyRate       decimal.Decimal `json:"hourly_rate"`
	Status           UnitStatus      `json:"status"`
	CurrentSessionID *string         `json:"current_session_id,omitempty"`
	Version          int64           `json:"-"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "Active"
	SessionStatusCompleted SessionStatus = "Completed"
)

type RentalSession struct {
	ID     string `json:"id"`
	UnitID string `json:"unit_id"`
	// Rate snapshot, captured from the unit when the session starts.
	// Pricing never reads the live unit rate afterwards.
	HourlyRate      decimal.Decimal `json:"hourly_rate"`
	StartTime       time.Time       `json:"start_time"`
	EndTime         *time.Time      `json:"end_time,omitempty"`
	DurationMinutes decimal.Decimal `json:"duration_minutes"`
	Price           decimal.Decimal `json:"price"`
	Status          SessionStatus   `json:"status"`
	CashierID       string          `json:"cashier_id"`
	Version         int64           `json:"-"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (s *RentalSession) Active() bool {
	return s.Status == SessionStatusActive
}
