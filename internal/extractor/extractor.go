// Package extractor turns raw document bytes into structured clinical
// findings. Implementations are pluggable; the pipeline only sees the
// Extractor interface.
package extractor

import (
	"context"

	"healthspectrum-backend/internal/analyses"
)

// Input is the document handed to an extractor.
type Input struct {
	Raw      []byte
	FileName string
	MimeType string
}

// Output is the structured result of an extraction run.
type Output struct {
	OCRText         string
	HealthScore     int
	ClinicalContext string
	Findings        analyses.Result
}

// Extractor produces clinical findings from a document.
type Extractor interface {
	Extract(ctx context.Context, in Input) (Output, error)
	// Name identifies the provider for logs.
	Name() string
}
