package models

import (
	"time"
)

// DefaultCategoryColor is used when a category is created without a color.
const DefaultCategoryColor = "#64748b"

// Category groups transactions. Transactions reference it by Type, not by ID.
type Category struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	Type      string    `json:"type" gorm:"size:50;not null;uniqueIndex"`
	Color     string    `json:"color" gorm:"size:20;default:#64748b"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (Category) TableName() string {
	return "categories"
}
