package documents

import "time"

// Status is the processing state of a document.
type Status string

const (
	StatusUploaded Status = "uploaded"
	StatusOCR      Status = "ocr"
	StatusNLP      Status = "nlp"
	StatusSummary  Status = "summary"
	StatusDone     Status = "done"
	StatusFailed   Status = "failed"
)

// StageOrder is the linear processing path a document walks after upload.
var StageOrder = []Status{StatusUploaded, StatusOCR, StatusNLP, StatusSummary, StatusDone}

// IsTerminal reports whether no further transitions apply.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusFailed
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusUploaded, StatusOCR, StatusNLP, StatusSummary, StatusDone, StatusFailed:
		return true
	}
	return false
}

// Next returns the stage after s on the processing path, or "" for
// terminal and unknown statuses.
func (s Status) Next() Status {
	for i, stage := range StageOrder {
		if stage == s && i+1 < len(StageOrder) {
			return StageOrder[i+1]
		}
	}
	return ""
}

// Document is an uploaded medical document and its processing state.
type Document struct {
	ID              string    `json:"id"`
	UserID          string    `json:"-"`
	PatientID       string    `json:"patientId,omitempty"`
	OriginalName    string    `json:"originalName"`
	MimeType        string    `json:"mimeType"`
	SizeBytes       int64     `json:"sizeBytes"`
	StorageProvider string    `json:"-"`
	StorageKey      string    `json:"-"`
	Status          Status    `json:"status"`
	Error           string    `json:"error,omitempty"`
	StageETASeconds int       `json:"stageETASeconds"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// HistoryFilter narrows a history listing.
type HistoryFilter struct {
	Search string
	Status Status
	From   *time.Time
	To     *time.Time
	Page   int
	Limit  int
}

// Pagination describes one page of a history listing. Pages is the
// ceiling of Total/Limit.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}
