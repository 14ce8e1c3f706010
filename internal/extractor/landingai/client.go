// Package landingai calls the LandingAI agentic document analysis API.
package landingai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"healthspectrum-backend/internal/analyses"
	"healthspectrum-backend/internal/extractor"
)

const apiURL = "https://api.va.landing.ai/v1/tools/agentic-document-analysis"

// Client implements extractor.Extractor against LandingAI.
type Client struct {
	apiKey     string
	httpClient *http.Client
}

// NewClient constructs a LandingAI client.
func NewClient(apiKey string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("LANDINGAI_API_KEY is required")
	}
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("LANDINGAI_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Name identifies the provider.
func (c *Client) Name() string { return "landingai" }

type apiResponse struct {
	Data struct {
		Markdown string `json:"markdown"`
		Extracted struct {
			Entities        []analyses.Entity            `json:"entities"`
			Conditions      []analyses.Condition         `json:"conditions"`
			Timeline        []analyses.TimelineItem      `json:"timeline"`
			Risks           []analyses.RiskEntry         `json:"riskAssessment"`
			Evidence        []analyses.EvidenceHighlight `json:"evidenceHighlights"`
			Recommendations []analyses.Recommendation    `json:"recommendations"`
			HealthScore     int                          `json:"healthScore"`
			ClinicalContext string                       `json:"clinicalContext"`
		} `json:"extracted_schema"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Extract uploads the document and maps the provider response.
func (c *Client) Extract(ctx context.Context, in extractor.Input) (extractor.Output, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	field := "image"
	if extractor.IsPDF(in.MimeType) {
		field = "pdf"
	}
	part, err := writer.CreateFormFile(field, in.FileName)
	if err != nil {
		return extractor.Output{}, err
	}
	if _, err := part.Write(in.Raw); err != nil {
		return extractor.Output{}, err
	}
	if err := writer.Close(); err != nil {
		return extractor.Output{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, &body)
	if err != nil {
		return extractor.Output{}, err
	}
	req.Header.Set("Authorization", "Basic "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return extractor.Output{}, fmt.Errorf("landingai request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return extractor.Output{}, fmt.Errorf("landingai read response: %w", err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return extractor.Output{}, fmt.Errorf("landingai decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(raw))
		if parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		return extractor.Output{}, fmt.Errorf("landingai status %d: %s", resp.StatusCode, msg)
	}

	ex := parsed.Data.Extracted
	score := ex.HealthScore
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return extractor.Output{
		OCRText:         parsed.Data.Markdown,
		HealthScore:     score,
		ClinicalContext: ex.ClinicalContext,
		Findings: analyses.Result{
			Entities:        ex.Entities,
			Conditions:      ex.Conditions,
			Timeline:        ex.Timeline,
			Risks:           ex.Risks,
			Evidence:        ex.Evidence,
			Recommendations: ex.Recommendations,
		},
	}, nil
}

var _ extractor.Extractor = (*Client)(nil)
