package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive   = "ACTIVE"
	StatusArchived = "ARCHIVED"
)

type Project struct {
	ID            uuid.UUID
	Name          string
	Address       string
	ClientName    string
	StartDate     time.Time
	EndDate       sql.NullTime
	Status        string
	ShareToken    sql.NullString
	SharePassword sql.NullString
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func IsValidStatus(status string) bool {
	return status == StatusActive || status == StatusArchived
}
