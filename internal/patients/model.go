package patients

import "time"

// Consent statuses.
const (
	ConsentGranted = "granted"
	ConsentRevoked = "revoked"
)

// Consent records one grant or revocation of a consent type.
type Consent struct {
	ConsentType  string    `json:"consentType"`
	Status       string    `json:"status"`
	DateRecorded time.Time `json:"dateRecorded"`
}

// Address is the patient's mailing address.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
	Country string `json:"country,omitempty"`
}

// EmergencyContact is who to reach in an emergency.
type EmergencyContact struct {
	Name         string `json:"name,omitempty"`
	Relationship string `json:"relationship,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// Profile holds everything the patient tells us about themselves.
type Profile struct {
	FirstName   string     `json:"firstName,omitempty"`
	LastName    string     `json:"lastName,omitempty"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Gender      string     `json:"gender,omitempty"`

	Phone            string            `json:"phone,omitempty"`
	Address          *Address          `json:"address,omitempty"`
	EmergencyContact *EmergencyContact `json:"emergencyContact,omitempty"`

	HeightCm *float64 `json:"heightCm,omitempty"`
	WeightKg *float64 `json:"weightKg,omitempty"`

	Allergies          []string `json:"allergies,omitempty"`
	ChronicDiseases    []string `json:"chronicDiseases,omitempty"`
	CurrentMedications []string `json:"currentMedications,omitempty"`
	FamilyHistory      []string `json:"familyHistory,omitempty"`

	SmokingStatus      string `json:"smokingStatus,omitempty"`
	AlcoholConsumption string `json:"alcoholConsumption,omitempty"`
	ExerciseFrequency  string `json:"exerciseFrequency,omitempty"`
	MaritalStatus      string `json:"maritalStatus,omitempty"`

	Consents []Consent `json:"consents"`
}

// Patient is one user's medical profile.
type Patient struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Profile   Profile   `json:"profile"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var (
	validGenders  = []string{"male", "female", "other", "prefer-not-to-say"}
	validSmoking  = []string{"never", "former", "current"}
	validAlcohol  = []string{"none", "occasional", "moderate", "heavy"}
	validExercise = []string{"none", "rarely", "weekly", "daily"}
	validMarital  = []string{"single", "married", "divorced", "widowed", "partnered"}
)
