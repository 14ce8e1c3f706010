package patients

import "context"

// PatientsRepo is the persistence contract for patient profiles. One
// profile exists per user.
type PatientsRepo interface {
	GetByUser(ctx context.Context, userId string) (Patient, error)
	Upsert(ctx context.Context, p Patient) error
}
