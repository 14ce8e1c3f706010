package extractor

import (
	"context"
	"reflect"
	"testing"
)

func TestMockIsDeterministicPerFileName(t *testing.T) {
	in := Input{Raw: []byte("not a pdf"), FileName: "labs.png", MimeType: "image/png"}

	first, err := Mock{}.Extract(context.Background(), in)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	second, err := Mock{}.Extract(context.Background(), in)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("same file name must yield the same output")
	}
}

func TestMockHealthScoreRange(t *testing.T) {
	names := []string{"a.pdf", "b.pdf", "scan.png", "discharge-summary.pdf", "labs-2024.jpg"}
	for _, name := range names {
		out, err := Mock{}.Extract(context.Background(), Input{FileName: name, MimeType: "image/png"})
		if err != nil {
			t.Fatalf("extract %s: %v", name, err)
		}
		if out.HealthScore < 60 || out.HealthScore > 90 {
			t.Fatalf("%s: health score %d out of [60,90]", name, out.HealthScore)
		}
	}
}

func TestMockOutputShape(t *testing.T) {
	out, err := Mock{}.Extract(context.Background(), Input{FileName: "report.png", MimeType: "image/png"})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if out.OCRText == "" || out.ClinicalContext == "" {
		t.Fatal("expected OCR text and clinical context")
	}
	if len(out.Findings.Entities) == 0 || len(out.Findings.Recommendations) == 0 {
		t.Fatalf("expected populated findings, got %+v", out.Findings)
	}
	if len(out.Findings.Risks) == 0 || len(out.Findings.Timeline) == 0 {
		t.Fatalf("expected risks and timeline, got %+v", out.Findings)
	}
}

func TestMockHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (Mock{}).Extract(ctx, Input{FileName: "report.png"}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
