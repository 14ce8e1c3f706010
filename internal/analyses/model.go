package analyses

import "time"

// Entity types recognized in document text.
const (
	EntityMedication = "medication"
	EntitySymptom    = "symptom"
	EntityDate       = "date"
	EntityLab        = "lab"
	EntityCondition  = "condition"
)

// Risk severity levels.
const (
	SeverityLow      = "low"
	SeverityModerate = "moderate"
	SeverityHigh     = "high"
)

// Recommendation urgency levels.
const (
	UrgencyNormal = "normal"
	UrgencySoon   = "soon"
	UrgencyUrgent = "urgent"
)

// Entity is a clinical item found in the OCR text.
type Entity struct {
	Type       string  `json:"type"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Condition is a detected diagnosis or suspected condition.
type Condition struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// TimelineItem anchors a finding to a date mentioned in the document.
type TimelineItem struct {
	DateOrEstimate  string `json:"dateOrEstimate"`
	EvidenceSnippet string `json:"evidenceSnippet"`
	Page            int    `json:"page,omitempty"`
}

// RiskEntry describes a flagged risk and its consequence if ignored.
type RiskEntry struct {
	Risk        string `json:"risk"`
	Severity    string `json:"severity"`
	Consequence string `json:"consequence"`
}

// EvidenceHighlight points at the source text backing a finding.
type EvidenceHighlight struct {
	Quote string    `json:"quote"`
	Page  int       `json:"page"`
	BBox  []float64 `json:"bbox,omitempty"`
}

// Recommendation is a suggested next step for the patient.
type Recommendation struct {
	Text    string `json:"text"`
	Urgency string `json:"urgency"`
}

// Result is the structured output of the extraction pipeline.
type Result struct {
	Entities        []Entity            `json:"entities"`
	Conditions      []Condition         `json:"conditions"`
	Timeline        []TimelineItem      `json:"timeline"`
	Risks           []RiskEntry         `json:"risks"`
	Evidence        []EvidenceHighlight `json:"evidence"`
	Recommendations []Recommendation    `json:"recommendations"`
}

// Analysis is the completed review of one document. Exactly one exists
// per document that reached done.
type Analysis struct {
	ID              string    `json:"id"`
	DocumentID      string    `json:"documentId"`
	UserID          string    `json:"-"`
	OCRText         string    `json:"ocrText"`
	HealthScore     int       `json:"healthScore"`
	ClinicalContext string    `json:"clinicalContext"`
	Result          Result    `json:"result"`
	CreatedAt       time.Time `json:"createdAt"`
}
