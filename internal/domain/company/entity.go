package company

import "time"

type Company struct {
	ID        string
	Name      string
	CreatedBy *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
