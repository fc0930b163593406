package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/osvaldoandrade/scanq/pkg/config"
	"github.com/osvaldoandrade/scanq/pkg/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	_ "github.com/osvaldoandrade/scanq/pkg/auth/static"
)

const (
	userToken  = "user-token"
	adminToken = "admin-token"
	csrfToken  = "it-csrf"
)

func writeCatalogDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"base.yml":   "meta:\n  replicas: 1\n",
		"ole.yml":    "meta:\n  name: OLE Scanner\n  description: Office document analyzer\n",
		"yara.yml":   "meta:\n  name: YARA\n  replicas: 2\n",
		"legacy.yml": "meta:\n  replicas: 0\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write catalog file %s: %v", name, err)
		}
	}
	return dir
}

func newTestApp(t *testing.T, mutate func(cfg *config.Config)) (*Application, *miniredis.Miniredis, *httptest.Server) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)

	cfg := &config.Config{
		Port:          0,
		PublicBaseURL: "http://scanq.test",
		RedisAddr:     mr.Addr(),
		Timezone:      "UTC",
		LogLevel:      "error",
		LogFormat:     "json",
		Env:           "test",
		MaxFileSizeMB: 5,
		CatalogDir:    writeCatalogDir(t),
		DataDir:       t.TempDir(),

		AdvancedSelection:      true,
		Disclaimers:            []string{"uploads are shared with analysts"},
		TasksStreamMaxLen:      1000,
		TaskRetentionHours:     24,
		RetentionSweepSeconds:  3600,
		MaxSeedValiditySeconds: 7200,
		RateLimitPerMinute:     600,
		RateLimitBurst:         100,
		AuthProviders: []config.AuthProvider{
			{Type: "static", Config: map[string]any{
				"token":   userToken,
				"subject": "it-user",
				"scopes":  []string{"scanq:submit", "scanq:read"},
			}},
			{Type: "static", Config: map[string]any{
				"token":   adminToken,
				"subject": "it-admin",
				"scopes":  []string{"scanq:submit", "scanq:read", "scanq:admin"},
			}},
		},
	}
	if mutate != nil {
		mutate(cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config validate: %v", err)
	}

	application, err := NewApplication(cfg)
	if err != nil {
		t.Fatalf("init app: %v", err)
	}
	SetupMappings(application)
	server := httptest.NewServer(application.Engine)
	t.Cleanup(server.Close)
	return application, mr, server
}

func TestHTTPIntegrationFlow(t *testing.T) {
	ctx := context.Background()
	application, mr, server := newTestApp(t, nil)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	pageCtx := getContext(t, ctx, server.URL)
	if pageCtx.MaxFileSizeMB != 5 {
		t.Fatalf("context maxFileSizeMB = %d", pageCtx.MaxFileSizeMB)
	}
	if len(pageCtx.Workers) != 2 || pageCtx.Workers[0].Name != "ole" || pageCtx.Workers[1].Name != "yara" {
		t.Fatalf("context workers = %+v", pageCtx.Workers)
	}
	if !pageCtx.AdvancedSelection {
		t.Fatalf("expected advancedSelection")
	}

	sample := []byte("MZ fake sample payload")
	res := submitFile(t, ctx, server.URL, userToken, submitOpts{
		filename: "sample.bin",
		data:     sample,
		fields: map[string]string{
			"workersDisabled": "legacy, nope",
			"password":        "infected",
			"validity":        "3600",
		},
	})
	if !res.Success || res.TaskID == "" || res.Seed == "" {
		t.Fatalf("submit response: %+v", res)
	}
	if res.Lifetime != 3600 {
		t.Fatalf("lifetime = %d", res.Lifetime)
	}
	wantLink := "http://scanq.test/analysis/" + res.TaskID + "/seed-" + res.Seed
	if res.Link != wantLink {
		t.Fatalf("link = %s want %s", res.Link, wantLink)
	}

	stored, err := os.ReadFile(filepath.Join(application.Config.DataDir, res.TaskID, "sample.bin"))
	if err != nil {
		t.Fatalf("stored sample: %v", err)
	}
	if !bytes.Equal(stored, sample) {
		t.Fatalf("stored sample mismatch")
	}

	entries, err := rdb.XRange(ctx, "scanq:tasks:stream", "-", "+").Result()
	if err != nil || len(entries) != 1 {
		t.Fatalf("stream entries = %d err=%v", len(entries), err)
	}
	fields := entries[0].Values
	if fields["task_id"] != res.TaskID {
		t.Fatalf("stream task_id = %v", fields["task_id"])
	}
	if fields["password"] != "infected" {
		t.Fatalf("stream password = %v", fields["password"])
	}
	// legacy has no replicas and nope is unknown; both are dropped.
	if fields["disabled_workers"] != "[]" {
		t.Fatalf("stream disabled_workers = %v", fields["disabled_workers"])
	}

	view := getTask(t, ctx, server.URL, userToken, res.TaskID, "")
	if view.Task.ID != res.TaskID || view.Task.Status != domain.StatusSubmitted {
		t.Fatalf("fresh view = %+v", view.Task)
	}
	if view.Overall != domain.ReportWaiting || len(view.Reports) != 2 {
		t.Fatalf("fresh reports = %+v overall=%s", view.Reports, view.Overall)
	}

	mr.HSet("scanq:report:"+res.TaskID+":yara", "status", "RUNNING")
	view = getTask(t, ctx, server.URL, userToken, res.TaskID, "")
	if view.Task.Status != domain.StatusAnalyzing || view.Overall != domain.ReportRunning {
		t.Fatalf("running view status=%s overall=%s", view.Task.Status, view.Overall)
	}

	mr.HSet("scanq:report:"+res.TaskID+":ole", "status", "CLEAN")
	mr.HSet("scanq:report:"+res.TaskID+":yara", "status", "ALERT")
	view = getTask(t, ctx, server.URL, userToken, res.TaskID, "")
	if view.Task.Status != domain.StatusDone || view.Overall != domain.ReportAlert {
		t.Fatalf("done view status=%s overall=%s", view.Task.Status, view.Overall)
	}

	// The seed substitutes for credentials on both read surfaces.
	view = getTask(t, ctx, server.URL, "", res.TaskID, res.Seed)
	if view.Task.ID != res.TaskID {
		t.Fatalf("seed query view = %+v", view.Task)
	}
	status, body := doRequest(t, ctx, http.MethodGet, server.URL+"/analysis/"+res.TaskID+"/seed-"+res.Seed, "", nil, "")
	if status != http.StatusOK {
		t.Fatalf("seed link status %d body=%s", status, body)
	}

	status, _ = doRequest(t, ctx, http.MethodGet, server.URL+"/analysis/"+res.TaskID, "", nil, "")
	if status != http.StatusUnauthorized {
		t.Fatalf("analysis without credentials status %d", status)
	}
	status, _ = doRequest(t, ctx, http.MethodGet, server.URL+"/analysis/"+res.TaskID, userToken, nil, "")
	if status != http.StatusOK {
		t.Fatalf("analysis with bearer status %d", status)
	}

	var stats domain.StreamStats
	status, body = doRequest(t, ctx, http.MethodGet, server.URL+"/v1/scanq/admin/stats", adminToken, nil, "")
	if status != http.StatusOK {
		t.Fatalf("admin stats status %d body=%s", status, body)
	}
	if err := json.Unmarshal([]byte(body), &stats); err != nil {
		t.Fatalf("admin stats decode: %v", err)
	}
	if stats.StreamLength != 1 || stats.TrackedTasks != 1 {
		t.Fatalf("admin stats = %+v", stats)
	}

	// Fresh task: the retention index keeps it out of a cleanup at "now".
	cleanupBody := map[string]any{"limit": 10}
	status, body = doRequest(t, ctx, http.MethodPost, server.URL+"/v1/scanq/admin/cleanup", adminToken, cleanupBody, "")
	if status != http.StatusOK {
		t.Fatalf("admin cleanup status %d body=%s", status, body)
	}
	var cleanup struct {
		Deleted int `json:"deleted"`
	}
	if err := json.Unmarshal([]byte(body), &cleanup); err != nil {
		t.Fatalf("admin cleanup decode: %v", err)
	}
	if cleanup.Deleted != 0 {
		t.Fatalf("cleanup deleted %d fresh tasks", cleanup.Deleted)
	}

	// Seed expiry closes the anonymous read path.
	mr.FastForward(2 * time.Hour)
	status, _ = doRequest(t, ctx, http.MethodGet, server.URL+"/analysis/"+res.TaskID+"/seed-"+res.Seed, "", nil, "")
	if status != http.StatusNotFound {
		t.Fatalf("expired seed status %d", status)
	}
}

func TestHTTPAuthEnforcement(t *testing.T) {
	ctx := context.Background()
	_, _, server := newTestApp(t, nil)

	status, body := submitRaw(t, ctx, server.URL, "", csrfToken, "sample.bin", []byte("x"), nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("submit without token status %d body=%s", status, body)
	}

	status, body = submitRaw(t, ctx, server.URL, userToken, "", "sample.bin", []byte("x"), nil)
	if status != http.StatusForbidden {
		t.Fatalf("submit without csrf status %d body=%s", status, body)
	}

	status, _ = doRequest(t, ctx, http.MethodGet, server.URL+"/v1/scanq/workers", "", nil, "")
	if status != http.StatusUnauthorized {
		t.Fatalf("workers without token status %d", status)
	}
	status, _ = doRequest(t, ctx, http.MethodGet, server.URL+"/v1/scanq/workers", userToken, nil, "")
	if status != http.StatusOK {
		t.Fatalf("workers with token status %d", status)
	}

	status, _ = doRequest(t, ctx, http.MethodGet, server.URL+"/v1/scanq/admin/stats", userToken, nil, "")
	if status != http.StatusForbidden {
		t.Fatalf("admin stats without scope status %d", status)
	}

	status, _ = doRequest(t, ctx, http.MethodGet, server.URL+"/v1/scanq/tasks/some-task", "", nil, "")
	if status != http.StatusUnauthorized {
		t.Fatalf("task read without credentials status %d", status)
	}
}

func TestHTTPSubmitRejections(t *testing.T) {
	ctx := context.Background()
	_, _, server := newTestApp(t, func(cfg *config.Config) {
		cfg.MaxFileSizeMB = 1
	})

	tooBig := bytes.Repeat([]byte("a"), 1_000_001)
	status, body := submitRaw(t, ctx, server.URL, userToken, csrfToken, "big.bin", tooBig, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("oversized submit status %d", status)
	}
	if !strings.Contains(body, "file is too big (max 1 MB)") {
		t.Fatalf("oversized submit body = %s", body)
	}

	atLimit := bytes.Repeat([]byte("a"), 1_000_000)
	status, body = submitRaw(t, ctx, server.URL, userToken, csrfToken, "exact.bin", atLimit, nil)
	if status != http.StatusAccepted {
		t.Fatalf("at-limit submit status %d body=%s", status, body)
	}

	status, body = submitRaw(t, ctx, server.URL, userToken, csrfToken, "", nil, nil)
	if status != http.StatusBadRequest || !strings.Contains(body, "missing file") {
		t.Fatalf("missing file status %d body=%s", status, body)
	}

	status, body = submitRaw(t, ctx, server.URL, userToken, csrfToken, "a.bin", []byte("x"), map[string]string{"validity": "soon"})
	if status != http.StatusBadRequest || !strings.Contains(body, "invalid 'validity'") {
		t.Fatalf("bad validity status %d body=%s", status, body)
	}
}

func TestHTTPAnonymousDevMode(t *testing.T) {
	ctx := context.Background()
	_, _, server := newTestApp(t, func(cfg *config.Config) {
		cfg.Env = "dev"
		cfg.AuthProviders = nil
	})

	res := submitFile(t, ctx, server.URL, "", submitOpts{filename: "open.bin", data: []byte("data")})
	if !res.Success || res.TaskID == "" {
		t.Fatalf("anonymous submit: %+v", res)
	}
	if res.Seed != "" || res.Lifetime != 0 {
		t.Fatalf("unexpected seed without validity: %+v", res)
	}
	if res.Link != "http://scanq.test/analysis/"+res.TaskID {
		t.Fatalf("anonymous link = %s", res.Link)
	}

	// No validators configured: reads are open too.
	status, _ := doRequest(t, ctx, http.MethodGet, server.URL+"/analysis/"+res.TaskID, "", nil, "")
	if status != http.StatusOK {
		t.Fatalf("anonymous analysis view status %d", status)
	}
	status, _ = doRequest(t, ctx, http.MethodGet, server.URL+"/v1/scanq/tasks/"+res.TaskID, "", nil, "")
	if status != http.StatusOK {
		t.Fatalf("anonymous task read status %d", status)
	}
}

func TestHTTPMetricsEndpoint(t *testing.T) {
	ctx := context.Background()
	_, _, server := newTestApp(t, nil)

	res := submitFile(t, ctx, server.URL, userToken, submitOpts{filename: "m.bin", data: []byte("metrics sample")})
	if !res.Success {
		t.Fatalf("submit: %+v", res)
	}

	status, body := doRequest(t, ctx, http.MethodGet, server.URL+"/metrics", "", nil, "")
	if status != http.StatusOK {
		t.Fatalf("metrics status %d", status)
	}
	// Counters are process-global, so only names are asserted here.
	if !strings.Contains(body, "scanq_submissions_total") {
		t.Fatalf("metrics body missing submissions counter: %.200s", body)
	}
}

// ===== Helpers =====

type submitOpts struct {
	filename string
	data     []byte
	fields   map[string]string
}

func submitFile(t *testing.T, ctx context.Context, baseURL, token string, opts submitOpts) domain.SubmitResult {
	t.Helper()
	status, body := submitRaw(t, ctx, baseURL, token, csrfToken, opts.filename, opts.data, opts.fields)
	if status != http.StatusAccepted {
		t.Fatalf("submit status %d body=%s", status, body)
	}
	var res domain.SubmitResult
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		t.Fatalf("submit decode: %v", err)
	}
	return res
}

func submitRaw(t *testing.T, ctx context.Context, baseURL, token, csrf, filename string, data []byte, fields map[string]string) (int, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("multipart file: %v", err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatalf("multipart write: %v", err)
		}
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("multipart field %s: %v", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("multipart close: %v", err)
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/scanq/submit", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if csrf != "" {
		req.Header.Set("X-CSRF-Token", csrf)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("submit request: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}

func getContext(t *testing.T, ctx context.Context, baseURL string) domain.PageContext {
	t.Helper()
	status, body := doRequest(t, ctx, http.MethodGet, baseURL+"/v1/scanq/context", "", nil, "")
	if status != http.StatusOK {
		t.Fatalf("context status %d body=%s", status, body)
	}
	var pc domain.PageContext
	if err := json.Unmarshal([]byte(body), &pc); err != nil {
		t.Fatalf("context decode: %v", err)
	}
	return pc
}

func getTask(t *testing.T, ctx context.Context, baseURL, token, taskID, seed string) domain.TaskView {
	t.Helper()
	url := baseURL + "/v1/scanq/tasks/" + taskID
	if seed != "" {
		url += "?seed=" + seed
	}
	status, body := doRequest(t, ctx, http.MethodGet, url, token, nil, "")
	if status != http.StatusOK {
		t.Fatalf("get task status %d body=%s", status, body)
	}
	var view domain.TaskView
	if err := json.Unmarshal([]byte(body), &view); err != nil {
		t.Fatalf("get task decode: %v", err)
	}
	return view
}

func doRequest(t *testing.T, ctx context.Context, method, url, token string, body any, csrf string) (int, string) {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		buf = bytes.NewBuffer(b)
	}
	req, _ := http.NewRequestWithContext(ctx, method, url, buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if csrf != "" {
		req.Header.Set("X-CSRF-Token", csrf)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}
