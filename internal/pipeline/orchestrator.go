// Package pipeline drives documents through the processing stages:
// uploaded -> ocr -> nlp -> summary -> done, or failed.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"healthspectrum-backend/internal/analyses"
	"healthspectrum-backend/internal/documents"
	"healthspectrum-backend/internal/extractor"
	"healthspectrum-backend/internal/shared/config"
	"healthspectrum-backend/internal/shared/metrics"
	"healthspectrum-backend/internal/shared/storage/object"
	"healthspectrum-backend/internal/shared/telemetry"
)

// CancelledByUser is the error message recorded on user-cancelled runs.
const CancelledByUser = "Cancelled by user"

// Orchestrator runs the staged processing of documents. Stage
// transitions are conditional writes against the repo, so a concurrent
// cancel (possibly from another process) wins by flipping the status
// out from under the run.
type Orchestrator struct {
	Docs      documents.DocumentsRepo
	Analyses  analyses.AnalysesRepo
	Store     object.ObjectStore
	Extractor extractor.Extractor
	Delays    []time.Duration

	mu   sync.Mutex
	runs map[string]context.CancelFunc
}

// NewOrchestrator constructs an Orchestrator. Nil delays fall back to
// the default stage durations.
func NewOrchestrator(docs documents.DocumentsRepo, an analyses.AnalysesRepo, store object.ObjectStore, ext extractor.Extractor, delays []time.Duration) *Orchestrator {
	if len(delays) == 0 {
		delays = config.DefaultStageDurations
	}
	return &Orchestrator{
		Docs:      docs,
		Analyses:  an,
		Store:     store,
		Extractor: ext,
		Delays:    delays,
		runs:      make(map[string]context.CancelFunc),
	}
}

// StageETASeconds estimates the seconds a document spends in status s
// before the next transition. Terminal statuses have no next stage.
func (o *Orchestrator) StageETASeconds(s documents.Status) int {
	for i, stage := range documents.StageOrder {
		if stage == s && i < len(o.Delays) {
			return int(math.Ceil(o.Delays[i].Seconds()))
		}
	}
	return 0
}

// Start launches an in-process run for the document.
func (o *Orchestrator) Start(userId, documentID string) {
	ctx, cancel := context.WithCancel(context.Background())
	o.mu.Lock()
	if prev, ok := o.runs[documentID]; ok {
		prev()
	}
	o.runs[documentID] = cancel
	o.mu.Unlock()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				o.fail(documentID, fmt.Sprintf("processing panic: %v", r))
			}
			o.mu.Lock()
			delete(o.runs, documentID)
			o.mu.Unlock()
			cancel()
		}()
		if err := o.Run(ctx, userId, documentID); err != nil {
			telemetry.Error("pipeline.run_failed", map[string]any{
				"document_id": documentID,
				"err":         err.Error(),
			})
		}
	}()
}

// Run walks the document through every remaining stage. It is also the
// entry point for queue workers processing documents out of process.
func (o *Orchestrator) Run(ctx context.Context, userId, documentID string) error {
	started := time.Now()

	for i := 0; i+1 < len(documents.StageOrder); i++ {
		from := documents.StageOrder[i]
		to := documents.StageOrder[i+1]

		if err := o.wait(ctx, o.Delays[i]); err != nil {
			return nil // run cancelled while waiting
		}

		if to == documents.StatusDone {
			return o.complete(ctx, userId, documentID, started)
		}

		ok, err := o.Docs.AdvanceStatus(ctx, documentID, from, to, o.StageETASeconds(to))
		if err != nil {
			o.fail(documentID, "processing error: "+err.Error())
			return err
		}
		if !ok {
			// Lost the race: cancelled, retried, or picked up elsewhere.
			telemetry.Info("pipeline.transition_lost", map[string]any{
				"document_id":       documentID,
				"status_transition": string(from) + "->" + string(to),
			})
			return nil
		}
		metrics.IncStageTransition(string(to))
		telemetry.Info("pipeline.stage", map[string]any{
			"document_id":       documentID,
			"status_transition": string(from) + "->" + string(to),
		})
	}
	return nil
}

// complete extracts findings, persists the analysis and finishes the
// run. The analysis is written while the document still reads summary;
// if the final transition loses to a cancel, the analysis is removed so
// a failed document never exposes results.
func (o *Orchestrator) complete(ctx context.Context, userId, documentID string, started time.Time) error {
	doc, err := o.Docs.GetByID(ctx, userId, documentID)
	if err != nil {
		o.fail(documentID, "processing error: "+err.Error())
		return err
	}
	if doc.Status != documents.StatusSummary {
		return nil
	}

	out, err := o.extract(ctx, doc)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		o.fail(documentID, "extraction failed: "+err.Error())
		return err
	}

	a := analyses.Analysis{
		ID:              uuid.NewString(),
		DocumentID:      documentID,
		UserID:          userId,
		OCRText:         out.OCRText,
		HealthScore:     out.HealthScore,
		ClinicalContext: out.ClinicalContext,
		Result:          out.Findings,
		CreatedAt:       time.Now().UTC(),
	}
	if err := o.Analyses.Create(ctx, a); err != nil {
		o.fail(documentID, "failed to store analysis: "+err.Error())
		return err
	}

	ok, err := o.Docs.AdvanceStatus(ctx, documentID, documents.StatusSummary, documents.StatusDone, 0)
	if err != nil {
		o.fail(documentID, "processing error: "+err.Error())
		return err
	}
	if !ok {
		// Cancel won the race; drop the orphaned analysis.
		if delErr := o.Analyses.DeleteByDocument(context.Background(), documentID); delErr != nil {
			telemetry.Error("pipeline.orphan_analysis", map[string]any{
				"document_id": documentID,
				"err":         delErr.Error(),
			})
		}
		return nil
	}

	metrics.IncStageTransition(string(documents.StatusDone))
	metrics.IncPipelineCompleted()
	metrics.ObservePipelineDuration(time.Since(started))
	telemetry.Info("pipeline.done", map[string]any{
		"document_id":       documentID,
		"status_transition": "summary->done",
		"duration_ms":       time.Since(started).Milliseconds(),
		"health_score":      a.HealthScore,
	})
	return nil
}

func (o *Orchestrator) extract(ctx context.Context, doc documents.Document) (extractor.Output, error) {
	body, err := o.Store.Open(ctx, doc.StorageKey)
	if err != nil {
		return extractor.Output{}, fmt.Errorf("open stored object: %w", err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return extractor.Output{}, fmt.Errorf("read stored object: %w", err)
	}

	out, err := o.Extractor.Extract(ctx, extractor.Input{
		Raw:      raw,
		FileName: doc.OriginalName,
		MimeType: doc.MimeType,
	})
	if err != nil {
		return extractor.Output{}, err
	}

	// Keep a derived text copy next to the original for audits.
	if saver, ok := o.Store.(keySaver); ok && out.OCRText != "" {
		if _, err := saver.SaveWithKey(ctx, doc.StorageKey+".ocr.txt", "text/plain; charset=utf-8", strings.NewReader(out.OCRText)); err != nil {
			telemetry.Error("pipeline.ocr_copy_failed", map[string]any{
				"document_id": doc.ID,
				"err":         err.Error(),
			})
		}
	}
	return out, nil
}

type keySaver interface {
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
}

// Cancel stops processing of a document. Terminal documents are left
// untouched, so cancelling twice (or after completion) is harmless.
func (o *Orchestrator) Cancel(ctx context.Context, userId, documentID string) error {
	doc, err := o.Docs.GetByID(ctx, userId, documentID)
	if err != nil {
		return err
	}
	if doc.Status.IsTerminal() {
		return nil
	}

	o.cancelRun(documentID)

	applied, err := o.Docs.MarkFailed(ctx, documentID, CancelledByUser)
	if err != nil {
		return err
	}
	if applied {
		metrics.IncPipelineCancelled()
		telemetry.Info("pipeline.cancelled", map[string]any{
			"document_id":       documentID,
			"status_transition": string(doc.Status) + "->failed",
		})
	}
	return nil
}

// Retry restarts a failed document from the beginning. Anything not in
// the failed status yields ErrConflict.
func (o *Orchestrator) Retry(ctx context.Context, userId, documentID string) error {
	if _, err := o.Docs.GetByID(ctx, userId, documentID); err != nil {
		return err
	}

	ok, err := o.Docs.ResetForRetry(ctx, userId, documentID, o.StageETASeconds(documents.StatusUploaded))
	if err != nil {
		return err
	}
	if !ok {
		return documents.ErrConflict
	}

	// Stale results from a previous run must not outlive the reset.
	if err := o.Analyses.DeleteByDocument(ctx, documentID); err != nil {
		return err
	}

	telemetry.Info("pipeline.retry", map[string]any{
		"document_id":       documentID,
		"status_transition": "failed->uploaded",
	})
	o.Start(userId, documentID)
	return nil
}

func (o *Orchestrator) cancelRun(documentID string) {
	o.mu.Lock()
	cancel, ok := o.runs[documentID]
	o.mu.Unlock()
	if ok {
		cancel()
	}
}

// fail flips the document to failed unless it already reached a
// terminal status. Uses a fresh context so a cancelled run can still
// record its failure.
func (o *Orchestrator) fail(documentID, msg string) {
	applied, err := o.Docs.MarkFailed(context.Background(), documentID, msg)
	if err != nil {
		telemetry.Error("pipeline.mark_failed_error", map[string]any{
			"document_id": documentID,
			"err":         err.Error(),
		})
		return
	}
	if applied {
		metrics.IncPipelineFailed()
		telemetry.Error("pipeline.failed", map[string]any{
			"document_id": documentID,
			"err":         msg,
		})
	}
}

func (o *Orchestrator) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ documents.Pipeline = (*Orchestrator)(nil)
