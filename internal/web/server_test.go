package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/stellarlinkco/rampup/internal/bus"
	"github.com/stellarlinkco/rampup/internal/collab"
	"github.com/stellarlinkco/rampup/internal/config"
	"github.com/stellarlinkco/rampup/internal/model"
	"github.com/stellarlinkco/rampup/internal/onboard"
	"github.com/stellarlinkco/rampup/internal/store"
	"github.com/stellarlinkco/rampup/internal/workflow"
)

type testEnv struct {
	router *gin.Engine
	server *Server
	store  *store.Store
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.New(filepath.Join(t.TempDir(), "onboarding.json"))
	if err != nil {
		t.Fatalf("store.New error: %v", err)
	}

	collabs := &collab.Collaborators{
		Chat:          collab.MockChat{},
		Docs:          collab.MockDocs{},
		SourceControl: collab.MockSourceControl{Org: "acme-corp"},
	}
	resolver := workflow.NewResolver("")
	orch := onboard.New(st, collabs, resolver, nil, "#general")

	srv := New(config.ServerConfig{Host: "127.0.0.1", Port: 0}, st, orch, resolver, collabs.Docs, nil)
	router, err := srv.router()
	if err != nil {
		t.Fatalf("router error: %v", err)
	}
	return &testEnv{router: router, server: srv, store: st}
}

func doRequest(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func onboardAda(t *testing.T, env *testEnv) onboard.Result {
	t.Helper()
	w := doRequest(t, env.router, http.MethodPost, "/api/onboard", map[string]any{
		"name":            "Ada Lovelace",
		"email":           "ada@acme.dev",
		"role":            "Backend Engineer",
		"team":            "Platform",
		"github_username": "adal",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("onboard status=%d body=%s", w.Code, w.Body.String())
	}
	var res onboard.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshal onboard resp: %v", err)
	}
	return res
}

func TestHealth(t *testing.T) {
	env := setupTestEnv(t)
	w := doRequest(t, env.router, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestOnboardEndpoint(t *testing.T) {
	env := setupTestEnv(t)
	res := onboardAda(t, env)

	if res.EmployeeID == "" {
		t.Error("response missing employee id")
	}
	if res.TotalTasks == 0 || res.CompletedTasks == 0 {
		t.Errorf("tasks = %d/%d", res.CompletedTasks, res.TotalTasks)
	}

	w := doRequest(t, env.router, http.MethodGet, "/api/employees", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var statuses []model.OnboardingStatus
	if err := json.Unmarshal(w.Body.Bytes(), &statuses); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if len(statuses) != 1 || statuses[0].Employee.Name != "Ada Lovelace" {
		t.Errorf("statuses = %+v", statuses)
	}

	w = doRequest(t, env.router, http.MethodGet, "/api/employees/"+res.EmployeeID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var status model.OnboardingStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if len(status.Tasks) != res.TotalTasks {
		t.Errorf("tasks = %d, want %d", len(status.Tasks), res.TotalTasks)
	}
}

func TestOnboardValidation(t *testing.T) {
	env := setupTestEnv(t)

	w := doRequest(t, env.router, http.MethodPost, "/api/onboard", map[string]any{"name": "No Email"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "required") {
		t.Errorf("body = %s", w.Body.String())
	}

	w = doRequest(t, env.router, http.MethodPost, "/api/onboard", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty body status = %d, want 400", w.Code)
	}
}

func TestGetEmployeeNotFound(t *testing.T) {
	env := setupTestEnv(t)
	w := doRequest(t, env.router, http.MethodGet, "/api/employees/nope1234", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if !strings.Contains(w.Body.String(), "employee nope1234 not found") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func findTask(t *testing.T, env *testEnv, employeeID, name string) model.OnboardingTask {
	t.Helper()
	status, err := env.store.GetStatus(employeeID)
	if err != nil {
		t.Fatalf("GetStatus error: %v", err)
	}
	for _, task := range status.Tasks {
		if task.Name == name {
			return task
		}
	}
	t.Fatalf("task %q not found in %+v", name, status.Tasks)
	return model.OnboardingTask{}
}

func TestCompleteTask(t *testing.T) {
	env := setupTestEnv(t)
	res := onboardAda(t, env)
	task := findTask(t, env, res.EmployeeID, "Complete HR paperwork")

	path := "/api/employees/" + res.EmployeeID + "/tasks/" + task.ID + "/complete"
	w := doRequest(t, env.router, http.MethodPost, path, map[string]any{"details": "signed at orientation"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Task     model.OnboardingTask `json:"task"`
		Progress float64              `json:"progress"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Task.Status != model.StatusCompleted {
		t.Errorf("task status = %s, want completed", resp.Task.Status)
	}
	if resp.Task.Details != "signed at orientation" {
		t.Errorf("details = %q", resp.Task.Details)
	}
	if resp.Progress <= res.Progress {
		t.Errorf("progress = %v, want above %v", resp.Progress, res.Progress)
	}

	// No body works too, and completing twice stays 200.
	w = doRequest(t, env.router, http.MethodPost, path, nil)
	if w.Code != http.StatusOK {
		t.Errorf("repeat status = %d, want 200", w.Code)
	}
}

func TestFailTask(t *testing.T) {
	env := setupTestEnv(t)
	res := onboardAda(t, env)
	task := findTask(t, env, res.EmployeeID, "Set up dev environment")

	path := "/api/employees/" + res.EmployeeID + "/tasks/" + task.ID + "/fail"
	w := doRequest(t, env.router, http.MethodPost, path, map[string]any{"details": "laptop never shipped"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Task model.OnboardingTask `json:"task"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Task.Status != model.StatusFailed {
		t.Errorf("task status = %s, want failed", resp.Task.Status)
	}
}

func TestTaskNotFound(t *testing.T) {
	env := setupTestEnv(t)
	res := onboardAda(t, env)

	w := doRequest(t, env.router, http.MethodPost, "/api/employees/"+res.EmployeeID+"/tasks/zzzzzzzz/complete", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestChecklist(t *testing.T) {
	env := setupTestEnv(t)

	w := doRequest(t, env.router, http.MethodGet, "/api/checklist/engineer", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var tpl workflow.Template
	if err := json.Unmarshal(w.Body.Bytes(), &tpl); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if tpl.Role != workflow.RoleEngineering {
		t.Errorf("role = %q, want engineering", tpl.Role)
	}
	var found bool
	for _, task := range tpl.Tasks {
		if task.Name == "Invite to GitHub org" {
			found = true
		}
	}
	if !found {
		t.Errorf("engineering checklist missing scm tasks: %+v", tpl.Tasks)
	}
}

func TestDocsEndpoint(t *testing.T) {
	env := setupTestEnv(t)

	w := doRequest(t, env.router, http.MethodGet, "/api/docs", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var docs []collab.DocInfo
	if err := json.Unmarshal(w.Body.Bytes(), &docs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(docs) != 8 {
		t.Errorf("docs = %d, want 8", len(docs))
	}
}

func TestStaticDashboard(t *testing.T) {
	env := setupTestEnv(t)

	w := doRequest(t, env.router, http.MethodGet, "/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "rampup") {
		t.Error("dashboard page not served at /")
	}
}

func TestWebSocketBroadcast(t *testing.T) {
	env := setupTestEnv(t)
	ts := httptest.NewServer(env.router)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	defer conn.CloseNow()

	// Connection registration happens in the accept handler.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		registered := false
		env.server.clients.Range(func(key, value any) bool {
			registered = true
			return false
		})
		if registered {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	env.server.broadcast(bus.Event{Type: bus.EventTaskCompleted, Employee: "Ada Lovelace", Success: true})

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("ws read: %v", err)
	}
	var ev bus.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if ev.Type != bus.EventTaskCompleted || ev.Employee != "Ada Lovelace" {
		t.Errorf("event = %+v", ev)
	}
}

func TestStartStop(t *testing.T) {
	gin.SetMode(gin.TestMode)

	st, err := store.New(filepath.Join(t.TempDir(), "onboarding.json"))
	if err != nil {
		t.Fatalf("store.New error: %v", err)
	}
	collabs := &collab.Collaborators{
		Chat:          collab.MockChat{},
		Docs:          collab.MockDocs{},
		SourceControl: collab.MockSourceControl{},
	}
	resolver := workflow.NewResolver("")
	orch := onboard.New(st, collabs, resolver, nil, "#general")
	srv := New(config.ServerConfig{Host: "127.0.0.1", Port: 19891}, st, orch, resolver, collabs.Docs, nil)

	if err := srv.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	resp, err := http.Get("http://127.0.0.1:19891/api/health")
	if err != nil {
		t.Fatalf("GET /api/health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	srv.Stop()
}
