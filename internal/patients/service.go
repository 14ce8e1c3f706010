package patients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service contains business logic for patient profiles.
type Service struct {
	Repo PatientsRepo
}

// NewService constructs a Service.
func NewService(repo PatientsRepo) *Service {
	return &Service{Repo: repo}
}

// Get returns the user's profile, creating an empty one on first read.
func (s *Service) Get(ctx context.Context, userId string) (Patient, error) {
	p, err := s.Repo.GetByUser(ctx, userId)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Patient{}, err
	}

	now := time.Now().UTC()
	p = Patient{
		ID:        uuid.NewString(),
		UserID:    userId,
		Profile:   Profile{Consents: []Consent{}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Repo.Upsert(ctx, p); err != nil {
		return Patient{}, err
	}
	return p, nil
}

// Update validates and stores the profile.
func (s *Service) Update(ctx context.Context, userId string, profile Profile) (Patient, error) {
	if err := validateProfile(profile); err != nil {
		return Patient{}, err
	}

	now := time.Now().UTC()
	for i := range profile.Consents {
		if profile.Consents[i].DateRecorded.IsZero() {
			profile.Consents[i].DateRecorded = now
		}
	}
	if profile.Consents == nil {
		profile.Consents = []Consent{}
	}

	existing, err := s.Repo.GetByUser(ctx, userId)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Patient{}, err
	}

	p := Patient{
		ID:        existing.ID,
		UserID:    userId,
		Profile:   profile,
		CreatedAt: existing.CreatedAt,
		UpdatedAt: now,
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
		p.CreatedAt = now
	}
	if err := s.Repo.Upsert(ctx, p); err != nil {
		return Patient{}, err
	}
	return p, nil
}

func validateProfile(profile Profile) error {
	checks := []struct {
		field string
		value string
		valid []string
	}{
		{"gender", profile.Gender, validGenders},
		{"smokingStatus", profile.SmokingStatus, validSmoking},
		{"alcoholConsumption", profile.AlcoholConsumption, validAlcohol},
		{"exerciseFrequency", profile.ExerciseFrequency, validExercise},
		{"maritalStatus", profile.MaritalStatus, validMarital},
	}
	for _, check := range checks {
		if check.value == "" {
			continue
		}
		if !contains(check.valid, check.value) {
			return fmt.Errorf("%w: invalid value for %s", ErrInvalidInput, check.field)
		}
	}

	if profile.HeightCm != nil && *profile.HeightCm < 0 {
		return fmt.Errorf("%w: heightCm must not be negative", ErrInvalidInput)
	}
	if profile.WeightKg != nil && *profile.WeightKg < 0 {
		return fmt.Errorf("%w: weightKg must not be negative", ErrInvalidInput)
	}

	for _, consent := range profile.Consents {
		if consent.ConsentType == "" {
			return fmt.Errorf("%w: each consent requires a consentType", ErrInvalidInput)
		}
		if consent.Status != ConsentGranted && consent.Status != ConsentRevoked {
			return fmt.Errorf("%w: consent status must be %q or %q", ErrInvalidInput, ConsentGranted, ConsentRevoked)
		}
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
