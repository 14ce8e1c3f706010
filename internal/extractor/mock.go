package extractor

import (
	"context"
	"fmt"
	"hash/fnv"

	"healthspectrum-backend/internal/analyses"
)

// Mock is a deterministic extractor used when no provider is
// configured. The same file name always yields the same result, which
// keeps polling and retry behavior reproducible.
type Mock struct{}

// Name identifies the provider.
func (Mock) Name() string { return "mock" }

// Extract synthesizes a representative clinical review. PDF text is
// used as the OCR output when the document carries any; everything
// else gets a canned report.
func (Mock) Extract(ctx context.Context, in Input) (Output, error) {
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}

	ocrText := ""
	if IsPDF(in.MimeType) {
		if text, err := TextFromPDF(in.Raw); err == nil && text != "" {
			ocrText = text
		}
	}
	if ocrText == "" {
		ocrText = sampleReport(in.FileName)
	}

	return Output{
		OCRText:         ocrText,
		HealthScore:     60 + int(seed(in.FileName)%31),
		ClinicalContext: "This medical report shows a patient with diabetes and high blood pressure that needs better management. The diabetes is not well controlled based on the HbA1c level, and blood pressure is elevated. The doctor has adjusted medications and scheduled follow-up care.",
		Findings: analyses.Result{
			Entities: []analyses.Entity{
				{Type: analyses.EntityMedication, Value: "Metformin 500mg", Confidence: 0.9},
				{Type: analyses.EntityMedication, Value: "Lisinopril 10mg", Confidence: 0.85},
				{Type: analyses.EntityCondition, Value: "Diabetes mellitus", Confidence: 0.88},
				{Type: analyses.EntityLab, Value: "HbA1c: 7.2%", Confidence: 0.92},
				{Type: analyses.EntityDate, Value: "2024-08-15", Confidence: 0.95},
			},
			Conditions: []analyses.Condition{
				{Name: "Hypertension", Confidence: 0.85},
				{Name: "Type 2 Diabetes", Confidence: 0.72},
				{Name: "High Cholesterol", Confidence: 0.68},
			},
			Timeline: []analyses.TimelineItem{
				{DateOrEstimate: "2024-08-15", EvidenceSnippet: "Blood pressure reading: 145/92 mmHg", Page: 1},
				{DateOrEstimate: "2024-08-01", EvidenceSnippet: "Started Metformin therapy", Page: 1},
				{DateOrEstimate: "2024-07-20", EvidenceSnippet: "Initial diabetes diagnosis", Page: 2},
			},
			Risks: []analyses.RiskEntry{
				{Risk: "Cardiovascular complications", Severity: analyses.SeverityModerate, Consequence: "May lead to heart disease if untreated"},
				{Risk: "Diabetic complications", Severity: analyses.SeverityHigh, Consequence: "Risk of kidney damage and neuropathy"},
			},
			Evidence: []analyses.EvidenceHighlight{
				{Quote: "Blood pressure elevated at 145/92 mmHg", Page: 1, BBox: []float64{100, 200, 300, 20}},
				{Quote: "HbA1c level: 7.2% (target <7%)", Page: 1, BBox: []float64{100, 250, 280, 20}},
			},
			Recommendations: []analyses.Recommendation{
				{Text: "Continue current diabetes medication and monitor blood glucose levels", Urgency: analyses.UrgencyNormal},
				{Text: "Schedule cardiology consultation for blood pressure management", Urgency: analyses.UrgencySoon},
				{Text: "Emergency room visit if experiencing chest pain or severe symptoms", Urgency: analyses.UrgencyUrgent},
			},
		},
	}, nil
}

func seed(fileName string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(fileName))
	return h.Sum32()
}

func sampleReport(fileName string) string {
	return fmt.Sprintf(`Medical Report - %s

Patient: John Doe
Date: August 15, 2024

CHIEF COMPLAINT:
Routine diabetes follow-up

VITAL SIGNS:
BP: 145/92 mmHg
Pulse: 78 bpm
Temp: 98.6F

LABORATORY RESULTS:
HbA1c: 7.2%%
Fasting glucose: 165 mg/dL
Total cholesterol: 220 mg/dL

CURRENT MEDICATIONS:
- Metformin 500mg twice daily
- Lisinopril 10mg daily

ASSESSMENT:
1. Type 2 diabetes mellitus - suboptimal control
2. Hypertension - poorly controlled
3. Dyslipidemia

PLAN:
- Continue Metformin
- Increase Lisinopril to 20mg daily
- Add statin therapy
- Follow up in 3 months
- Patient education on diet and exercise`, fileName)
}

var _ Extractor = Mock{}
