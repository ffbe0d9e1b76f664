package models

import (
	"time"
)

// Group is a named set of users sharing their transactions.
// A user may belong to at most one group; that is checked by the handlers, not by the schema.
type Group struct {
	ID        uint          `json:"-" gorm:"primaryKey"`
	Name      string        `json:"name" gorm:"size:100;not null;uniqueIndex"`
	Members   []GroupMember `json:"members" gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time     `json:"-"`
	UpdatedAt time.Time     `json:"-"`
}

func (Group) TableName() string {
	return "groups"
}

// GroupMember keeps member order through its ID.
type GroupMember struct {
	ID      uint   `json:"-" gorm:"primaryKey"`
	GroupID uint   `json:"-" gorm:"index;not null"`
	Email   string `json:"email" gorm:"size:100;not null;index"`
	UserID  uint   `json:"-" gorm:"index;not null"`
}

func (GroupMember) TableName() string {
	return "group_members"
}

// Emails returns member emails in insertion order.
func (g Group) Emails() []string {
	emails := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		emails = append(emails, m.Email)
	}
	return emails
}
