package models

import (
	"time"

	"github.com/google/uuid"
)

// Client is a customer the desk takes orders for. Rows are never updated in place.
type Client struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null;uniqueIndex:idx_clients_name" json:"name"`
	Contact   string    `gorm:"column:contact;not null;default:''" json:"contact"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Client) TableName() string { return "clients" }
