package analyses_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"healthspectrum-backend/internal/bootstrap"
	"healthspectrum-backend/internal/shared/auth"
	"healthspectrum-backend/internal/shared/config"
)

func buildApp(t *testing.T, stage time.Duration) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	app, err := bootstrap.Build(config.Config{
		Port:            "0",
		CORSAllowOrigin: []string{"http://localhost:5000"},
		LocalStoreDir:   t.TempDir(),
		Env:             "dev",
		ObjectStoreType: "local",
		ShareBaseURL:    "http://localhost:5000",
		StageDurations:  []time.Duration{stage, stage, stage, stage},
	})
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app
}

func bearerFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.SignJWT(auth.Claims{Sub: userID, Email: userID + "@example.com", Name: "Test User"})
	if err != nil {
		t.Fatalf("sign jwt: %v", err)
	}
	return "Bearer " + token
}

func uploadPDF(t *testing.T, app *bootstrap.App, token, fileName string) string {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="files"; filename="`+fileName+`"`)
	header.Set("Content-Type", "application/pdf")
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write([]byte("%PDF-1.4 test document body")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", token)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var created struct {
		Documents []struct {
			ID string `json:"id"`
		} `json:"documents"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if len(created.Documents) != 1 || created.Documents[0].ID == "" {
		t.Fatalf("unexpected upload response: %+v", created)
	}
	return created.Documents[0].ID
}

func waitForDone(t *testing.T, app *bootstrap.App, token, documentID string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+documentID+"/status", nil)
		req.Header.Set("Authorization", token)
		resp := httptest.NewRecorder()
		app.Router.ServeHTTP(resp, req)

		var out struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode status response: %v", err)
		}
		if out.Status == "done" {
			return
		}
		// Stay well inside the polling rate limit.
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("document %s never reached done", documentID)
}

func get(t *testing.T, app *bootstrap.App, token, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", token)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	return resp
}

func TestOcrTextAndAnalysisNotFoundUntilDone(t *testing.T) {
	app := buildApp(t, 300*time.Millisecond)
	token := bearerFor(t, "user-results")

	id := uploadPDF(t, app, token, "inflight.pdf")

	for _, path := range []string{
		"/api/v1/documents/" + id + "/ocrText",
		"/api/v1/documents/" + id + "/analysis",
	} {
		resp := get(t, app, token, path)
		if resp.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404 while processing, got %d: %s", path, resp.Code, resp.Body.String())
		}
		var out struct {
			Success bool   `json:"success"`
			Code    string `json:"code"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode error response: %v", err)
		}
		if out.Success || out.Code != "not_found" {
			t.Fatalf("%s: unexpected error envelope: %+v", path, out)
		}
	}
}

func TestOcrTextAndAnalysisAfterDone(t *testing.T) {
	app := buildApp(t, 5*time.Millisecond)
	token := bearerFor(t, "user-results")

	id := uploadPDF(t, app, token, "report.pdf")
	waitForDone(t, app, token, id)

	resp := get(t, app, token, "/api/v1/documents/"+id+"/ocrText")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for ocrText, got %d: %s", resp.Code, resp.Body.String())
	}
	var ocr struct {
		Success bool   `json:"success"`
		OCRText string `json:"ocrText"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ocr); err != nil {
		t.Fatalf("decode ocrText response: %v", err)
	}
	if !ocr.Success || ocr.OCRText == "" {
		t.Fatalf("unexpected ocrText response: %+v", ocr)
	}

	resp = get(t, app, token, "/api/v1/documents/"+id+"/analysis")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for analysis, got %d: %s", resp.Code, resp.Body.String())
	}
	var analysis struct {
		Success  bool `json:"success"`
		Analysis struct {
			ID          string `json:"id"`
			HealthScore int    `json:"healthScore"`
			OCRText     string `json:"ocrText"`
		} `json:"analysis"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&analysis); err != nil {
		t.Fatalf("decode analysis response: %v", err)
	}
	if !analysis.Success || analysis.Analysis.ID == "" {
		t.Fatalf("unexpected analysis response: %+v", analysis)
	}
	if analysis.Analysis.HealthScore < 60 || analysis.Analysis.HealthScore > 90 {
		t.Fatalf("health score out of range: %d", analysis.Analysis.HealthScore)
	}
}

func TestOcrTextHidesOtherUsersDocuments(t *testing.T) {
	app := buildApp(t, 5*time.Millisecond)
	owner := bearerFor(t, "user-owner")
	stranger := bearerFor(t, "user-stranger")

	id := uploadPDF(t, app, owner, "private.pdf")
	waitForDone(t, app, owner, id)

	resp := get(t, app, stranger, "/api/v1/documents/"+id+"/ocrText")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another user's document, got %d", resp.Code)
	}
}
