package domain

import (
	"fmt"
	"time"
)

type TableStatus string

const (
	TableStatusAvailable TableStatus = "Available"
	TableStatusOccupied  TableStatus = "Occupied"
)

type Table struct {
	ID             string      `json:"id"`
	Number         int32       `json:"number"`
	Name           string      `json:"name"`
	Capacity       int32       `json:"capacity"`
	Status         TableStatus `json:"status"`
	CurrentOrderID *string     `json:"current_order_id,omitempty"`
	Version        int64       `json:"-"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

func (t *Table) Label() string {
	if t.Name != "" {
		return t.Name
	}
	return fmt.Sprintf("Table %d", t.Number)
}

// Snapshot freezes the table identity for a payment record.
func (t *Table) Snapshot() *TableSnapshot {
	return &TableSnapshot{
		TableID:  t.ID,
		Number:   t.Number,
		Label:    t.Label(),
		Capacity: t.Capacity,
	}
}

type TableSnapshot struct {
	TableID  string `json:"table_id"`
	Number   int32  `json:"number"`
	Label    string `json:"label"`
	Capacity int32  `json:"capacity"`
}
