package models

import (
	"time"
)

// Transaction a single expense booked by a user
type Transaction struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"size:50;not null;index"`
	Type      string    `json:"type" gorm:"size:50;not null;index"`
	Amount    float64   `json:"amount" gorm:"type:decimal(12,2);not null"`
	Date      time.Time `json:"date" gorm:"not null;index"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName table name
func (Transaction) TableName() string {
	return "transactions"
}

// TransactionView is a transaction joined with its category color.
type TransactionView struct {
	ID       uint      `json:"id"`
	Username string    `json:"username"`
	Type     string    `json:"type"`
	Amount   float64   `json:"amount"`
	Date     time.Time `json:"date"`
	Color    string    `json:"color"`
}
