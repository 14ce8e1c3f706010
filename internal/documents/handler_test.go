package documents_test

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

func testConfig(t *testing.T, stage time.Duration) config.Config {
	t.Helper()
	return config.Config{
		Port:            "0",
		CORSAllowOrigin: []string{"http://localhost:5000"},
		LocalStoreDir:   t.TempDir(),
		Env:             "dev",
		ObjectStoreType: "local",
		ShareBaseURL:    "http://localhost:5000",
		StageDurations:  []time.Duration{stage, stage, stage, stage},
	}
}

func buildApp(t *testing.T) *bootstrap.App {
	return buildAppWithStage(t, 5*time.Millisecond)
}

// buildAppWithStage controls how long each pipeline stage takes; slow
// stages keep a run in flight long enough to race it deliberately.
func buildAppWithStage(t *testing.T, stage time.Duration) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	app, err := bootstrap.Build(testConfig(t, stage))
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

func pdfUploadBody(t *testing.T, fileNames ...string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, name := range fileNames {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="files"; filename="`+name+`"`)
		header.Set("Content-Type", "application/pdf")
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write([]byte("%PDF-1.4 test document body")); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func uploadDocuments(t *testing.T, app *bootstrap.App, token string, fileNames ...string) []string {
	t.Helper()
	body, contentType := pdfUploadBody(t, fileNames...)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", token)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var created struct {
		Success   bool `json:"success"`
		Documents []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"documents"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if !created.Success || len(created.Documents) != len(fileNames) {
		t.Fatalf("unexpected upload response: %+v", created)
	}

	ids := make([]string, 0, len(created.Documents))
	for _, doc := range created.Documents {
		if doc.ID == "" {
			t.Fatalf("expected document id, got empty")
		}
		ids = append(ids, doc.ID)
	}
	return ids
}

func getStatus(t *testing.T, app *bootstrap.App, token, documentID string) (string, int) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+documentID+"/status", nil)
	req.Header.Set("Authorization", token)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var out struct {
		Success         bool   `json:"success"`
		Status          string `json:"status"`
		StageETASeconds int    `json:"stageETASeconds"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode status response: %v", err)
	}
	if !out.Success {
		t.Fatalf("expected success=true in status response")
	}
	return out.Status, out.StageETASeconds
}

func waitForStatus(t *testing.T, app *bootstrap.App, token, documentID, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		status, _ := getStatus(t, app, token, documentID)
		if status == want {
			return
		}
		// Stay well inside the polling rate limit.
		time.Sleep(100 * time.Millisecond)
	}
	status, _ := getStatus(t, app, token, documentID)
	t.Fatalf("document %s never reached %s, last status %s", documentID, want, status)
}

func TestUploadProcessesToDone(t *testing.T) {
	app := buildApp(t)
	token := bearerFor(t, "user-upload")

	ids := uploadDocuments(t, app, token, "report.pdf")
	waitForStatus(t, app, token, ids[0], "done")

	status, eta := getStatus(t, app, token, ids[0])
	if status != "done" {
		t.Fatalf("expected done, got %s", status)
	}
	if eta != 0 {
		t.Fatalf("expected zero ETA at terminal status, got %d", eta)
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	app := buildApp(t)
	token := bearerFor(t, "user-badmime")

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="files"; filename="notes.txt"`)
	header.Set("Content-Type", "text/plain")
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write([]byte("plain text")); err != nil {
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

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", resp.Code, resp.Body.String())
	}

	var out struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if out.Success || out.Code != "validation_error" {
		t.Fatalf("unexpected error envelope: %+v", out)
	}
}

func TestUploadRequiresAuth(t *testing.T) {
	app := buildApp(t)

	body, contentType := pdfUploadBody(t, "report.pdf")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}

func TestStatusHidesOtherUsersDocuments(t *testing.T) {
	app := buildApp(t)
	owner := bearerFor(t, "user-owner")
	stranger := bearerFor(t, "user-stranger")

	ids := uploadDocuments(t, app, owner, "private.pdf")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+ids[0]+"/status", nil)
	req.Header.Set("Authorization", stranger)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for another user's document, got %d", resp.Code)
	}
}

func TestCancelAndRetry(t *testing.T) {
	app := buildAppWithStage(t, 300*time.Millisecond)
	token := bearerFor(t, "user-cancel")

	ids := uploadDocuments(t, app, token, "cancelme.pdf")
	id := ids[0]

	// Cancel straight away, before the run can finish.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/"+id+"/cancel", nil)
	req.Header.Set("Authorization", token)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 on cancel, got %d: %s", resp.Code, resp.Body.String())
	}

	status, eta := getStatus(t, app, token, id)
	if status != "failed" {
		t.Fatalf("expected failed after cancel, got %s", status)
	}
	if eta != 0 {
		t.Fatalf("expected zero ETA after cancel, got %d", eta)
	}

	// The failure reason surfaces at the top level of the status body.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+id+"/status", nil)
	req.Header.Set("Authorization", token)
	resp = httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	var failedStatus struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&failedStatus); err != nil {
		t.Fatalf("decode status response: %v", err)
	}
	if failedStatus.Error != "Cancelled by user" {
		t.Fatalf("expected cancel reason in status body, got %q", failedStatus.Error)
	}

	// Cancelling again is a no-op.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/documents/"+id+"/cancel", nil)
	req.Header.Set("Authorization", token)
	resp = httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 on second cancel, got %d", resp.Code)
	}

	// Retry restarts from uploaded and finishes.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/documents/"+id+"/retry", nil)
	req.Header.Set("Authorization", token)
	resp = httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 on retry, got %d: %s", resp.Code, resp.Body.String())
	}
	var retried struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&retried); err != nil {
		t.Fatalf("decode retry response: %v", err)
	}
	if !retried.Success || retried.Message != "Document processing restarted" {
		t.Fatalf("unexpected retry response: %+v", retried)
	}

	waitForStatus(t, app, token, id, "done")

	// Retrying a done document conflicts.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/documents/"+id+"/retry", nil)
	req.Header.Set("Authorization", token)
	resp = httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409 retrying done document, got %d", resp.Code)
	}
}

func TestHistoryFiltersAndPagination(t *testing.T) {
	app := buildApp(t)
	token := bearerFor(t, "user-history")

	ids := uploadDocuments(t, app, token, "alpha.pdf", "beta.pdf", "gamma.pdf")
	for _, id := range ids {
		waitForStatus(t, app, token, id, "done")
	}

	get := func(path string) (int, struct {
		Documents []struct {
			OriginalName string `json:"originalName"`
			Status       string `json:"status"`
		} `json:"documents"`
		Pagination struct {
			Page  int `json:"page"`
			Limit int `json:"limit"`
			Total int `json:"total"`
			Pages int `json:"pages"`
		} `json:"pagination"`
	}) {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", token)
		resp := httptest.NewRecorder()
		app.Router.ServeHTTP(resp, req)
		var out struct {
			Documents []struct {
				OriginalName string `json:"originalName"`
				Status       string `json:"status"`
			} `json:"documents"`
			Pagination struct {
				Page  int `json:"page"`
				Limit int `json:"limit"`
				Total int `json:"total"`
				Pages int `json:"pages"`
			} `json:"pagination"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode history response: %v", err)
		}
		return resp.Code, out
	}

	code, all := get("/api/v1/documents/history")
	if code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", code)
	}
	if all.Pagination.Total != 3 || len(all.Documents) != 3 {
		t.Fatalf("expected 3 documents, got total=%d len=%d", all.Pagination.Total, len(all.Documents))
	}

	code, paged := get("/api/v1/documents/history?page=2&limit=2")
	if code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", code)
	}
	if paged.Pagination.Pages != 2 || len(paged.Documents) != 1 {
		t.Fatalf("expected second page with 1 document, got pages=%d len=%d", paged.Pagination.Pages, len(paged.Documents))
	}

	code, searched := get("/api/v1/documents/history?search=beta")
	if code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", code)
	}
	if len(searched.Documents) != 1 || searched.Documents[0].OriginalName != "beta.pdf" {
		t.Fatalf("unexpected search result: %+v", searched.Documents)
	}

	code, byStatus := get("/api/v1/documents/history?status=failed")
	if code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", code)
	}
	if len(byStatus.Documents) != 0 {
		t.Fatalf("expected no failed documents, got %d", len(byStatus.Documents))
	}

	code, _ = get("/api/v1/documents/history?status=bogus")
	if code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for unknown status filter, got %d", code)
	}
}
