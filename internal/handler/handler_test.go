package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/qnotes/smap/internal/catalog"
	"github.com/qnotes/smap/internal/i18n"
	"github.com/qnotes/smap/internal/model"
	"github.com/qnotes/smap/internal/store"
	"github.com/qnotes/smap/internal/workflow"
)

type fakeCollaborator struct {
	gradeResult model.GradingResult
	gradeErr    error
	sections    []model.Section
	sectionsErr error
}

func (f *fakeCollaborator) Teach(_ context.Context, _ model.Section) (model.TeachingContent, error) {
	return model.TeachingContent{}, nil
}

func (f *fakeCollaborator) Grade(_ context.Context, _ map[model.Component]string, _ model.Section) (model.GradingResult, error) {
	return f.gradeResult, f.gradeErr
}

func (f *fakeCollaborator) Insights(_ context.Context, _ []model.HistoryEntry) (model.InsightsSummary, error) {
	return model.InsightsSummary{SessionsCompleted: 1}, nil
}

func (f *fakeCollaborator) AssignNext(_ context.Context, _ []string, _ []model.Section) (*model.Section, error) {
	return nil, nil
}

func (f *fakeCollaborator) GetSections(_ context.Context) ([]model.Section, error) {
	return f.sections, f.sectionsErr
}

func newTestServer(t *testing.T, collab *fakeCollaborator) *httptest.Server {
	t.Helper()
	if err := i18n.Init("en"); err != nil {
		t.Fatalf("i18n.Init: %v", err)
	}

	st, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cat := catalog.New()
	wf := workflow.New(workflow.Config{}, collab, st, cat, nil)
	h := New(wf, cat, st, collab)

	r := chi.NewRouter()
	r.Use(i18n.Middleware("en"))
	r.Use(SessionMiddleware("test-session"))
	h.Routes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, decoded
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakeCollaborator{})

	status, body := doJSON(t, http.MethodGet, srv.URL+"/health", nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestStateReportsSession(t *testing.T) {
	srv := newTestServer(t, &fakeCollaborator{})

	status, body := doJSON(t, http.MethodGet, srv.URL+"/api/state", nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body["state"] != "selecting_section" {
		t.Errorf("state = %v", body["state"])
	}
	if body["session_id"] != "test-session" {
		t.Errorf("session_id = %v", body["session_id"])
	}
}

func TestListSections(t *testing.T) {
	srv := newTestServer(t, &fakeCollaborator{})

	status, body := doJSON(t, http.MethodGet, srv.URL+"/api/sections", nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	sections, ok := body["sections"].([]any)
	if !ok || len(sections) != 9 {
		t.Fatalf("expected 9 built-in sections, got %v", body["sections"])
	}

	status, body = doJSON(t, http.MethodGet, srv.URL+"/api/sections?difficulty=advanced", nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	sections, ok = body["sections"].([]any)
	if !ok || len(sections) != 1 {
		t.Fatalf("expected 1 advanced section, got %v", body["sections"])
	}
}

func TestPracticeRoundTrip(t *testing.T) {
	collab := &fakeCollaborator{
		gradeResult: model.GradingResult{
			OverallScore: 88,
			ComponentScores: model.ComponentScores{
				model.ComponentSubjective: 85,
				model.ComponentMetrics:    92,
				model.ComponentAssessment: 88,
				model.ComponentPlan:       87,
			},
			Feedback: model.Feedback{Text: "Good coverage of the statements."},
		},
	}
	srv := newTestServer(t, collab)

	status, body := doJSON(t, http.MethodPost, srv.URL+"/api/select",
		map[string]string{"section_id": "financial_statements"})
	if status != http.StatusOK {
		t.Fatalf("select status = %d: %v", status, body)
	}
	if body["state"] != "drafting" {
		t.Fatalf("state = %v", body["state"])
	}

	for field, value := range map[string]string{
		"subjective": "Management sounded upbeat.",
		"metrics":    "Revenue $42.5B, up 6.8%.",
		"assessment": "Healthy quarter overall.",
		"plan":       "Track gross margin next quarter.",
	} {
		status, body = doJSON(t, http.MethodPost, srv.URL+"/api/draft",
			map[string]string{"field": field, "value": value})
		if status != http.StatusOK {
			t.Fatalf("draft %s status = %d: %v", field, status, body)
		}
	}

	status, body = doJSON(t, http.MethodPost, srv.URL+"/api/submit", nil)
	if status != http.StatusOK {
		t.Fatalf("submit status = %d: %v", status, body)
	}
	result, ok := body["result"].(map[string]any)
	if !ok {
		t.Fatalf("missing result: %v", body)
	}
	if result["overall_score"] != float64(88) {
		t.Errorf("overall score = %v", result["overall_score"])
	}
	if result["letter_grade"] != "B" {
		t.Errorf("letter grade = %v", result["letter_grade"])
	}

	status, body = doJSON(t, http.MethodGet, srv.URL+"/api/history", nil)
	if status != http.StatusOK {
		t.Fatalf("history status = %d", status)
	}
	history, ok := body["history"].([]any)
	if !ok || len(history) != 1 {
		t.Fatalf("expected 1 history entry, got %v", body["history"])
	}
}

func TestSubmitWithoutDraftConflicts(t *testing.T) {
	srv := newTestServer(t, &fakeCollaborator{})

	status, body := doJSON(t, http.MethodPost, srv.URL+"/api/submit", nil)
	if status != http.StatusConflict {
		t.Fatalf("status = %d: %v", status, body)
	}
	if body["success"] != false {
		t.Errorf("success = %v", body["success"])
	}
	if body["error_kind"] != "validation" {
		t.Errorf("error_kind = %v", body["error_kind"])
	}
}

func TestBackendErrorPassthrough(t *testing.T) {
	collab := &fakeCollaborator{
		gradeErr: &model.BackendError{Action: "grade_submission", Message: "grading model is overloaded"},
	}
	srv := newTestServer(t, collab)

	if status, _ := doJSON(t, http.MethodPost, srv.URL+"/api/select",
		map[string]string{"section_id": "md_a"}); status != http.StatusOK {
		t.Fatalf("select status = %d", status)
	}
	if status, _ := doJSON(t, http.MethodPost, srv.URL+"/api/draft",
		map[string]string{"field": "metrics", "value": "Revenue flat."}); status != http.StatusOK {
		t.Fatal("draft failed")
	}

	status, body := doJSON(t, http.MethodPost, srv.URL+"/api/submit", nil)
	if status != http.StatusBadGateway {
		t.Fatalf("status = %d: %v", status, body)
	}
	if body["error"] != "grading model is overloaded" {
		t.Errorf("error = %v", body["error"])
	}
	if body["error_kind"] != "backend" {
		t.Errorf("error_kind = %v", body["error_kind"])
	}

	// The draft survives for a retry.
	status, body = doJSON(t, http.MethodGet, srv.URL+"/api/state", nil)
	if status != http.StatusOK {
		t.Fatalf("state status = %d", status)
	}
	if body["state"] != "drafting" {
		t.Errorf("state = %v", body["state"])
	}
	draft, ok := body["draft"].(map[string]any)
	if !ok || draft["metrics"] != "Revenue flat." {
		t.Errorf("draft = %v", body["draft"])
	}
}

func TestInvalidJSONBody(t *testing.T) {
	srv := newTestServer(t, &fakeCollaborator{})

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/select", bytes.NewBufferString("{nope"))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestSectionsRefresh(t *testing.T) {
	collab := &fakeCollaborator{
		sections: []model.Section{
			{ID: "business_overview", Title: "Business Overview", Difficulty: model.DifficultyBeginner, Part: "Part I"},
		},
	}
	srv := newTestServer(t, collab)

	status, body := doJSON(t, http.MethodPost, srv.URL+"/api/sections/refresh", nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d: %v", status, body)
	}
	sections, ok := body["sections"].([]any)
	if !ok || len(sections) != 1 {
		t.Fatalf("expected 1 refreshed section, got %v", body["sections"])
	}
}

func TestReset(t *testing.T) {
	srv := newTestServer(t, &fakeCollaborator{})

	if status, _ := doJSON(t, http.MethodPost, srv.URL+"/api/select",
		map[string]string{"section_id": "md_a"}); status != http.StatusOK {
		t.Fatal("select failed")
	}

	status, body := doJSON(t, http.MethodPost, srv.URL+"/api/reset", nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body["state"] != "selecting_section" {
		t.Errorf("state = %v", body["state"])
	}
}
