package models

import (
	"github.com/jinzhu/gorm"
)

// Table represents a dining table. Status is derived from the lifecycle
// of its current order: no order means free, an order being built means
// ordering, unsettled orders mean unpaid, payment returns it to free.
type Table struct {
	gorm.Model
	Number         int          `json:"number" gorm:"unique_index"`
	Status         TableStatus  `json:"status"`
	CurrentOrderID *uint        `json:"currentOrder"`
}

// TableStatus represents the possible states of a table
type TableStatus string

const (
	TableStatusFree     TableStatus = "free"
	TableStatusOrdering TableStatus = "ordering"
	TableStatusUnpaid   TableStatus = "unpaid"
	TableStatusPaid     TableStatus = "paid"
)

// ValidTableStatus reports whether s names one of the table states.
// Used to vet manager overrides before they are applied.
func ValidTableStatus(s TableStatus) bool {
	switch s {
	case TableStatusFree, TableStatusOrdering, TableStatusUnpaid, TableStatusPaid:
		return true
	}
	return false
}
