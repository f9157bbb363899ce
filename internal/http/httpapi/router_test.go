package httpapi

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"weaver/internal/batch"
	"weaver/internal/http/handlers"
	"weaver/internal/infra"
	"weaver/internal/providers/genai"
	"weaver/internal/session"
)

type stubGenerator struct {
	mu    sync.Mutex
	calls int
}

func (s *stubGenerator) GenerateVariation(ctx context.Context, req genai.VariationRequest) (string, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.mu.Unlock()
	payload := base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("pixels-%d", call)))
	return "data:image/jpeg;base64," + payload, nil
}

type stubStreamer struct{}

func (stubStreamer) StreamMessage(ctx context.Context, history []genai.ChatTurn, message string, emit func(string) error) error {
	if err := emit("How about "); err != nil {
		return err
	}
	return emit("a floating market at dawn?")
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &infra.Config{
		AllowedOrigins: []string{"http://localhost:5173"},
		VariationCount: 4,
		MaxUploadBytes: 8 << 20,
		ChatTimeout:    time.Minute,
	}
	logger := zerolog.Nop()
	store := session.NewStore(&stubGenerator{}, stubStreamer{}, logger, time.Minute, 0)
	app := handlers.NewApp(cfg, logger, store)
	srv := httptest.NewServer(NewRouter(app, cfg, logger))
	t.Cleanup(srv.Close)
	return srv
}

type view struct {
	ID             string                `json:"id"`
	State          session.State         `json:"state"`
	HasSubject     bool                  `json:"has_subject"`
	Prompt         string                `json:"prompt"`
	PreviewIndex   int                   `json:"preview_index"`
	Variations     []batch.VariationSlot `json:"variations"`
	LoadingMessage string                `json:"loading_message"`
}

func doJSON(t *testing.T, method, url, body string, wantStatus int) view {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: status = %d, want %d: %s", method, url, resp.StatusCode, wantStatus, raw)
	}
	var v view
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode view: %v: %s", err, raw)
	}
	return v
}

func TestFullSessionFlow(t *testing.T) {
	srv := newTestServer(t)

	created := doJSON(t, http.MethodPost, srv.URL+"/v1/sessions", "", http.StatusCreated)
	if created.ID == "" || created.State != session.StateIdle {
		t.Fatalf("fresh session view = %+v", created)
	}
	base := srv.URL + "/v1/sessions/" + created.ID

	image := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("subject-bytes"))
	uploaded := doJSON(t, http.MethodPost, base+"/subject", fmt.Sprintf(`{"image":%q}`, image), http.StatusOK)
	if uploaded.State != session.StateSubjectLoaded || !uploaded.HasSubject {
		t.Fatalf("view after upload = %+v", uploaded)
	}

	accepted := doJSON(t, http.MethodPost, base+"/generate", `{"prompt":"an enchanted forest library"}`, http.StatusAccepted)
	if len(accepted.Variations) != 4 {
		t.Fatalf("expected 4 slots, got %d", len(accepted.Variations))
	}

	var settled view
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		settled = doJSON(t, http.MethodGet, base+"/", "", http.StatusOK)
		if settled.State == session.StateResultsShown {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if settled.State != session.StateResultsShown {
		t.Fatalf("batch never settled: %+v", settled)
	}
	for i, slot := range settled.Variations {
		if slot.Status != batch.StatusDone {
			t.Errorf("slot %d = %+v", i, slot)
		}
	}

	// Preview, regenerate, and export against the settled batch.
	previewed := doJSON(t, http.MethodPost, base+"/preview", `{"index":2}`, http.StatusOK)
	if previewed.PreviewIndex != 2 {
		t.Errorf("preview index = %d, want 2", previewed.PreviewIndex)
	}
	regen := doJSON(t, http.MethodPost, base+"/variations/2/regenerate", "", http.StatusAccepted)
	if regen.PreviewIndex != -1 {
		t.Errorf("preview survived regenerating its slot: %d", regen.PreviewIndex)
	}

	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		settled = doJSON(t, http.MethodGet, base+"/", "", http.StatusOK)
		if settled.State == session.StateResultsShown {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	resp, err := http.Get(base + "/export")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d", resp.StatusCode)
	}
	archive, _ := io.ReadAll(resp.Body)
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if len(zr.File) != 4 {
		t.Errorf("archive entries = %d, want 4", len(zr.File))
	}
	for i, f := range zr.File {
		want := fmt.Sprintf("variation-%d.jpg", i+1)
		if f.Name != want {
			t.Errorf("entry %d = %q, want %q", i, f.Name, want)
		}
	}

	reset := doJSON(t, http.MethodPost, base+"/reset", "", http.StatusOK)
	if reset.State != session.StateIdle || reset.HasSubject || len(reset.Variations) != 0 {
		t.Errorf("view after reset = %+v", reset)
	}
}

func TestChatOverTheWire(t *testing.T) {
	srv := newTestServer(t)
	created := doJSON(t, http.MethodPost, srv.URL+"/v1/sessions", "", http.StatusCreated)
	base := srv.URL + "/v1/sessions/" + created.ID

	resp, err := http.Post(base+"/chat", "application/json", strings.NewReader(`{"message":"brainstorm with me"}`))
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("content type = %q", got)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `data: "How about "`) || !strings.Contains(string(body), "event: done") {
		t.Errorf("unexpected stream:\n%s", body)
	}

	histResp, err := http.Get(base + "/chat")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	defer histResp.Body.Close()
	var history struct {
		Turns []struct {
			Role string `json:"role"`
			Text string `json:"text"`
		} `json:"turns"`
	}
	if err := json.NewDecoder(histResp.Body).Decode(&history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history.Turns) != 2 || history.Turns[1].Text != "How about a floating market at dawn?" {
		t.Errorf("transcript = %+v", history.Turns)
	}
}

func TestHealthAndCatalogRoutes(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Request-ID"); got == "" {
		t.Error("expected a request ID header on every response")
	}

	stylesResp, err := http.Get(srv.URL + "/v1/catalog/styles")
	if err != nil {
		t.Fatalf("styles: %v", err)
	}
	defer stylesResp.Body.Close()
	var styles struct {
		Items []struct {
			Key string `json:"key"`
		} `json:"items"`
	}
	if err := json.NewDecoder(stylesResp.Body).Decode(&styles); err != nil {
		t.Fatalf("decode styles: %v", err)
	}
	if len(styles.Items) != 7 {
		t.Errorf("styles = %d, want 7", len(styles.Items))
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/v1/sessions", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow origin = %q", got)
	}

	req, _ = http.NewRequest(http.MethodOptions, srv.URL+"/v1/sessions", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	defer resp2.Body.Close()
	if got := resp2.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin got allow header %q", got)
	}
}
