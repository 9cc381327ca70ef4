package models

import (
	"github.com/jinzhu/gorm"
)

// User is a staff member. Credential issuance lives in the login service;
// this record only carries what the order flow needs.
type User struct {
	gorm.Model
	Name string `json:"name"`
	Role string `json:"role"` // waiter, kitchen or manager
}

// MenuItem is a menu entry. Orders capture its price at order time, so
// editing a menu item never touches existing orders.
type MenuItem struct {
	gorm.Model
	Name      string `json:"name"`
	Price     int64  `json:"price"` // cents
	Available bool   `json:"available"`
}
