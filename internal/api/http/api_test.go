package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	api "github.com/virtlab-edu/virtlab/internal/api/http"
	"github.com/virtlab-edu/virtlab/internal/attempt"
	"github.com/virtlab-edu/virtlab/internal/auth"
	"github.com/virtlab-edu/virtlab/internal/content"
	"github.com/virtlab-edu/virtlab/internal/enrollment"
	"github.com/virtlab-edu/virtlab/internal/identity"
	"github.com/virtlab-edu/virtlab/internal/stats"
	"github.com/virtlab-edu/virtlab/internal/visibility"
)

type env struct {
	srv     *httptest.Server
	auth    *auth.Service
	catalog content.Store
}

func newEnv(t *testing.T) *env {
	t.Helper()

	dir := enrollment.NewInMemoryDirectory()
	dir.PutUser(enrollment.User{ID: "s1", Role: identity.RoleStudent, ClassID: "c7", Active: true})
	dir.PutUser(enrollment.User{ID: "t42", Role: identity.RoleTeacher, Active: true})
	dir.PutClass(enrollment.ClassGroup{ID: "c7", Name: "7A", TeacherID: "t42"})

	catalog := content.NewInMemoryStore()
	attempts := attempt.NewInMemoryStore()
	statsStore := stats.NewInMemoryStore()

	log := zerolog.Nop()
	resolver := visibility.NewResolver(dir)
	aggregator := stats.NewAggregator(statsStore, log)
	engine := attempt.NewEngine(attempts, catalog, resolver, dir, aggregator, nil, log)
	statsSvc := stats.NewService(statsStore, attempts, catalog, dir)
	authSvc := auth.NewService("test-secret", "virtlab-test", time.Hour, nil)

	r := chi.NewRouter()
	api.Mount(r, api.Deps{
		Auth:     authSvc,
		Catalog:  catalog,
		Resolver: resolver,
		Engine:   engine,
		Stats:    statsSvc,
		Dir:      dir,
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &env{srv: srv, auth: authSvc, catalog: catalog}
}

func (e *env) token(t *testing.T, sub string, role identity.Role) string {
	t.Helper()
	tok, err := e.auth.IssueJWT(sub, role)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func (e *env) do(t *testing.T, method, path, token string, body interface{}, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		_ = json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}

func seedQuiz(t *testing.T, e *env, maxAttempts int) {
	t.Helper()
	err := e.catalog.PutItem(context.Background(), content.Item{
		ID:        "q1",
		Kind:      content.KindQuiz,
		Title:     "Pendulum lab",
		CreatorID: "t42",
		Status:    content.StatusActive,
		Questions: []content.Question{
			{Text: "Period depends on", Options: []string{"length", "mass"}, CorrectOption: 0},
			{Text: "g on Earth", Options: []string{"9.8", "6.7", "3.7"}, CorrectOption: 0},
		},
		PassingScorePercent: 50,
		MaxAttempts:         maxAttempts,
	})
	if err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
}

// Full lifecycle: start, submit all-correct, then hit the attempt limit.
func TestStudentAttemptLifecycle(t *testing.T) {
	e := newEnv(t)
	seedQuiz(t, e, 1)
	tok := e.token(t, "s1", identity.RoleStudent)

	var started attempt.StartResult
	if code := e.do(t, "POST", "/quizzes/q1/attempts", tok, nil, &started); code != http.StatusCreated {
		t.Fatalf("start status = %d", code)
	}
	if started.AttemptNumber != 1 || len(started.Questions) != 2 {
		t.Fatalf("unexpected start result: %+v", started)
	}

	var sub attempt.SubmitResult
	body := map[string]interface{}{"answers": []int{0, 0}, "elapsed_seconds": 30}
	path := fmt.Sprintf("/quizzes/q1/attempts/%s/submit", started.AttemptID)
	if code := e.do(t, "POST", path, tok, body, &sub); code != http.StatusOK {
		t.Fatalf("submit status = %d", code)
	}
	if sub.Score != 100 || !sub.Passed || sub.CorrectCount != 2 {
		t.Fatalf("unexpected submit result: %+v", sub)
	}

	if code := e.do(t, "POST", "/quizzes/q1/attempts", tok, nil, nil); code != http.StatusConflict {
		t.Fatalf("second start status = %d, want 409", code)
	}
}

func TestSubmitRejectsMalformedAnswers(t *testing.T) {
	e := newEnv(t)
	seedQuiz(t, e, 3)
	tok := e.token(t, "s1", identity.RoleStudent)

	var started attempt.StartResult
	e.do(t, "POST", "/quizzes/q1/attempts", tok, nil, &started)
	path := fmt.Sprintf("/quizzes/q1/attempts/%s/submit", started.AttemptID)

	// Wrong element type is a 400; wrong length is tolerated and scored.
	body := map[string]interface{}{"answers": []string{"zero", "one"}}
	if code := e.do(t, "POST", path, tok, body, nil); code != http.StatusBadRequest {
		t.Fatalf("malformed answers status = %d, want 400", code)
	}

	var sub attempt.SubmitResult
	body = map[string]interface{}{"answers": []int{0}}
	if code := e.do(t, "POST", path, tok, body, &sub); code != http.StatusOK {
		t.Fatalf("short answers status = %d, want 200", code)
	}
	if sub.CorrectCount != 1 || sub.Score != 50 {
		t.Fatalf("short answers scored %+v", sub)
	}
}

func TestContentVisibilityOverHTTP(t *testing.T) {
	e := newEnv(t)
	seedQuiz(t, e, 1)
	_ = e.catalog.PutItem(context.Background(), content.Item{
		ID: "q-draft", Kind: content.KindQuiz, Title: "WIP", CreatorID: "t42",
		Status: content.StatusDraft,
		Questions: []content.Question{
			{Text: "?", Options: []string{"a", "b"}, CorrectOption: 0},
		},
		PassingScorePercent: 50, MaxAttempts: 1,
	})

	studentTok := e.token(t, "s1", identity.RoleStudent)
	teacherTok := e.token(t, "t42", identity.RoleTeacher)

	// Student list: only the active quiz, with the answer key stripped.
	var items []content.Item
	if code := e.do(t, "GET", "/content", studentTok, nil, &items); code != http.StatusOK {
		t.Fatalf("list status = %d", code)
	}
	if len(items) != 1 || items[0].ID != "q1" {
		t.Fatalf("student list = %+v", items)
	}
	if items[0].Questions != nil {
		t.Fatalf("student list leaks questions")
	}

	// The draft is a 404 for students, visible to its owner.
	if code := e.do(t, "GET", "/content/q-draft", studentTok, nil, nil); code != http.StatusNotFound {
		t.Fatalf("student draft fetch status = %d, want 404", code)
	}
	var full content.Item
	if code := e.do(t, "GET", "/content/q-draft", teacherTok, nil, &full); code != http.StatusOK {
		t.Fatalf("teacher draft fetch status = %d", code)
	}
	if len(full.Questions) != 1 || full.Questions[0].CorrectOption != 0 {
		t.Fatalf("teacher fetch missing answer key: %+v", full)
	}

	// Students cannot create content at all.
	if code := e.do(t, "POST", "/content", studentTok, map[string]string{"title": "x"}, nil); code != http.StatusForbidden {
		t.Fatalf("student create status = %d, want 403", code)
	}
}

func TestContentLifecycleOverHTTP(t *testing.T) {
	e := newEnv(t)
	teacherTok := e.token(t, "t42", identity.RoleTeacher)

	var created content.Item
	body := content.Item{
		Kind:  content.KindQuiz,
		Title: "New lab quiz",
		Questions: []content.Question{
			{Text: "?", Options: []string{"a", "b"}, CorrectOption: 1},
		},
		PassingScorePercent: 60,
		MaxAttempts:         2,
	}
	if code := e.do(t, "POST", "/content", teacherTok, body, &created); code != http.StatusCreated {
		t.Fatalf("create status = %d", code)
	}
	if created.Status != content.StatusDraft {
		t.Fatalf("created status = %s, want draft", created.Status)
	}

	var activated content.Item
	path := "/content/" + created.ID + "/status"
	if code := e.do(t, "POST", path, teacherTok, map[string]string{"status": "active"}, &activated); code != http.StatusOK {
		t.Fatalf("activate status = %d", code)
	}
	if activated.Status != content.StatusActive {
		t.Fatalf("status = %s, want active", activated.Status)
	}

	// Skipping back to draft is rejected.
	if code := e.do(t, "POST", path, teacherTok, map[string]string{"status": "draft"}, nil); code != http.StatusConflict {
		t.Fatalf("illegal transition status = %d, want 409", code)
	}
}

func TestStatsEndpoints(t *testing.T) {
	e := newEnv(t)
	seedQuiz(t, e, 5)
	studentTok := e.token(t, "s1", identity.RoleStudent)
	teacherTok := e.token(t, "t42", identity.RoleTeacher)

	var started attempt.StartResult
	e.do(t, "POST", "/quizzes/q1/attempts", studentTok, nil, &started)
	path := fmt.Sprintf("/quizzes/q1/attempts/%s/submit", started.AttemptID)
	e.do(t, "POST", path, studentTok, map[string]interface{}{"answers": []int{0, 1}}, nil)

	var qs stats.QuizStatsView
	if code := e.do(t, "GET", "/quizzes/q1/stats", teacherTok, nil, &qs); code != http.StatusOK {
		t.Fatalf("quiz stats status = %d", code)
	}
	if qs.CompletedAttempts != 1 || qs.AverageScore != 50 {
		t.Fatalf("quiz stats = %+v", qs)
	}
	if qs.CompletionRate != 1.0 {
		t.Fatalf("completion rate = %v, want 1", qs.CompletionRate)
	}

	var cs stats.ClassStatsView
	if code := e.do(t, "GET", "/classes/c7/stats", teacherTok, nil, &cs); code != http.StatusOK {
		t.Fatalf("class stats status = %d", code)
	}
	if cs.CompletedAttempts != 1 || cs.AverageScore != 50 {
		t.Fatalf("class stats = %+v", cs)
	}

	// Students may read their own class, not someone else's.
	if code := e.do(t, "GET", "/classes/c7/stats", studentTok, nil, nil); code != http.StatusOK {
		t.Fatalf("student own class stats status = %d", code)
	}
	if code := e.do(t, "GET", "/classes/c9/stats", studentTok, nil, nil); code != http.StatusNotFound {
		t.Fatalf("student foreign class stats status = %d, want 404", code)
	}
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	e := newEnv(t)
	if code := e.do(t, "GET", "/content", "", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", code)
	}
	if code := e.do(t, "GET", "/healthz", "", nil, nil); code != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200", code)
	}
}
