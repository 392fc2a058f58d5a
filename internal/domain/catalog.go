package domain

import "time"

type Canteen struct {
	ID                    string
	Name                  string
	Location              string
	IsOpen                bool
	IsOnlineOrdersEnabled bool
	MaxBulkSize           int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type MenuItem struct {
	ID          string
	CanteenID   string
	Name        string
	Category    string
	Price       float64
	IsAvailable bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
