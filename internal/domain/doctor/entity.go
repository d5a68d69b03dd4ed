package doctor

import "time"

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Doctor is a roster entry scoped to one hospital.
type Doctor struct {
	ID             string    `json:"id"`
	HospitalID     string    `json:"hospital_id"`
	Name           string    `json:"name"`
	Specialization string    `json:"specialization"`
	Qualification  string    `json:"qualification"`
	Expertise      []string  `json:"expertise"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

func (d *Doctor) IsActive() bool { return d.Status == StatusActive }
