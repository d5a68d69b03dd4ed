package identity

import "context"

// Role enum
type Role string

const (
	RolePatient       Role = "patient"
	RoleHospitalAdmin Role = "hospital_admin"
	RoleSuperAdmin    Role = "super_admin"
)

// Identity is the result of the authentication capability check.
type Identity struct {
	UserID     string `json:"user_id"`
	Role       Role   `json:"role"`
	HospitalID string `json:"hospital_id,omitempty"`
	PatientID  string `json:"patient_id,omitempty"`
}

// MemberOf reports whether the identity belongs to the given hospital.
func (i Identity) MemberOf(hospitalID string) bool {
	return hospitalID != "" && i.HospitalID == hospitalID
}

// Patient returns the patient reference, falling back to the user id.
func (i Identity) Patient() string {
	if i.PatientID != "" {
		return i.PatientID
	}
	return i.UserID
}

func (i Identity) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
