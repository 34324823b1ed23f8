package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftcourse/swiftcourse/internal/chat"
	"github.com/swiftcourse/swiftcourse/internal/course"
	"github.com/swiftcourse/swiftcourse/internal/llm"
	"github.com/swiftcourse/swiftcourse/internal/progress"
	"github.com/swiftcourse/swiftcourse/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	srv      *Server
	manager  *progress.Manager
	provider *llm.MockProvider
	chat     *chat.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	m := progress.NewManager(ctx, course.MustDefault(), progress.NewStore(store.NewMemoryKV(), nil), nil)
	provider := llm.NewMockProvider()
	svc := chat.NewService(provider, nil, chat.Options{}, nil)

	srv, err := New(Config{Progress: m, Chat: svc, Heartbeat: -1})
	require.NoError(t, err)
	return &fixture{srv: srv, manager: m, provider: provider, chat: svc}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/healthcheck", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestAIChatReturnsReply(t *testing.T) {
	f := newFixture(t)
	f.provider.AddResponse(llm.MockResponse{Text: "Limbic friction is the effort of starting."})

	rec := f.do(t, http.MethodPost, "/api/ai-chat",
		`{"message":"what is limbic friction?","history":[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "Limbic friction is the effort of starting.", body["response"])

	sent, ok := f.provider.LastCall()
	require.True(t, ok)
	require.Len(t, sent.Messages, 1)
	assert.Contains(t, sent.Messages[0].Content, "CURRENT USER QUESTION:\nwhat is limbic friction?")
}

func TestAIChatWithoutHistory(t *testing.T) {
	f := newFixture(t)
	f.provider.AddResponse(llm.MockResponse{Text: "answer"})

	rec := f.do(t, http.MethodPost, "/api/ai-chat", `{"message":"hello"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAIChatForwardsEmptyMessage(t *testing.T) {
	f := newFixture(t)
	f.provider.AddResponse(llm.MockResponse{Text: "What would you like to know?"})

	rec := f.do(t, http.MethodPost, "/api/ai-chat", `{"message":""}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.provider.CallCount())
}

func TestAIChatNotConfigured(t *testing.T) {
	f := newFixture(t)
	f.chat.SetProvider(nil)

	rec := f.do(t, http.MethodPost, "/api/ai-chat", `{"message":"hello","history":[]}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody[ErrorBody](t, rec)
	assert.Equal(t, chat.NotConfiguredMessage, body.Error)
	assert.Empty(t, body.Details)
}

func TestAIChatProviderFailure(t *testing.T) {
	f := newFixture(t)
	f.provider.AddResponse(llm.MockResponse{Err: errors.New("upstream exploded")})

	rec := f.do(t, http.MethodPost, "/api/ai-chat", `{"message":"hello","history":[]}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody[ErrorBody](t, rec)
	assert.Equal(t, chat.FailedMessage, body.Error)
	assert.Contains(t, body.Details, "upstream exploded")
}

func TestAIChatMalformedInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{"message":`},
		{"missing message", `{"history":[]}`},
		{"bad role", `{"message":"hi","history":[{"role":"system","content":"x"}]}`},
		{"history not array", `{"message":"hi","history":"nope"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			rec := f.do(t, http.MethodPost, "/api/ai-chat", tt.body)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			body := decodeBody[ErrorBody](t, rec)
			assert.Equal(t, chat.FailedMessage, body.Error)
			assert.NotEmpty(t, body.Details)
			assert.Zero(t, f.provider.CallCount())
		})
	}
}

func TestCourseEndpoint(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/course", "")

	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[course.Structure](t, rec)
	assert.Equal(t, *course.MustDefault(), got)
}

func TestMarkCompleteAndIncomplete(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/progress/complete", `{"moduleId":"module-0","sectionId":"about-swiftcourse"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[markResponse](t, rec)
	assert.True(t, got.Updated)
	assert.Equal(t, 13, got.ModuleProgress)
	assert.Equal(t, f.manager.OverallProgress(), got.OverallProgress)

	rec = f.do(t, http.MethodPost, "/api/progress/incomplete", `{"moduleId":"module-0","sectionId":"about-swiftcourse"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got = decodeBody[markResponse](t, rec)
	assert.True(t, got.Updated)
	assert.Zero(t, got.ModuleProgress)
}

func TestMarkUnknownSection(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/progress/complete", `{"moduleId":"module-9","sectionId":"nope"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[markResponse](t, rec)
	assert.False(t, got.Updated)
	assert.Zero(t, got.OverallProgress)
}

func TestMarkRequiresIDs(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/progress/complete", `{"moduleId":"module-0"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, decodeBody[ErrorBody](t, rec).Error)
}

func TestPositionAndNext(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/progress/next", "")
	require.Equal(t, http.StatusOK, rec.Code)
	next := decodeBody[nextResponse](t, rec)
	assert.Equal(t, nextResponse{ModuleID: "module-0", SectionID: "about-swiftcourse"}, next)

	rec = f.do(t, http.MethodPut, "/api/progress/position", `{"moduleId":"module-0","sectionId":"summary"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, progress.Position{ModuleID: "module-0", SectionID: "summary"}, f.manager.Position())

	rec = f.do(t, http.MethodGet, "/api/progress/next", "")
	next = decodeBody[nextResponse](t, rec)
	assert.Equal(t, nextResponse{ModuleID: "module-1", SectionID: "never-split-difference"}, next)

	rec = f.do(t, http.MethodPut, "/api/progress/position", `{"moduleId":"module-2","sectionId":"task-bracketing"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodGet, "/api/progress/next", "")
	next = decodeBody[nextResponse](t, rec)
	assert.Equal(t, nextResponse{ModuleID: "module-2", SectionID: "21-day-protocol"}, next)

	rec = f.do(t, http.MethodPut, "/api/progress/position", `{"moduleId":"module-2","sectionId":"module-assessment"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodGet, "/api/progress/next", "")
	assert.Equal(t, nextResponse{Done: true}, decodeBody[nextResponse](t, rec))
}

func TestSaveQuiz(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPut, "/api/progress/modules/module-1/quiz", `{"score":4,"total":5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"score": 4.0, "total": 5.0}, f.manager.QuizResults("module-1"))

	rec = f.do(t, http.MethodPut, "/api/progress/modules/module-7/quiz", `{"score":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/progress/modules/module-1/quiz", `[1,2]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummaryAndReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, sec := range course.MustDefault().Modules[0].Sections {
		f.manager.MarkSectionComplete(ctx, "module-0", sec.ID)
	}

	rec := f.do(t, http.MethodGet, "/api/progress", "")
	require.Equal(t, http.StatusOK, rec.Code)
	sum := decodeBody[progress.Summary](t, rec)
	assert.Equal(t, 1, sum.CompletedModules)
	assert.Equal(t, 100, sum.Modules[0].Progress)
	assert.True(t, sum.Modules[0].Completed)

	rec = f.do(t, http.MethodDelete, "/api/progress", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, f.manager.OverallProgress())
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/ai-chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

// readEvent returns the next event name and data payload from an SSE stream.
func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var name, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimPrefix(line, "event:")
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimPrefix(line, "data:")
		case line == "" && name != "":
			return name, data
		}
	}
}

func TestProgressEventStream(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/progress/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream"),
		"content type %q", resp.Header.Get("Content-Type"))
	r := bufio.NewReader(resp.Body)

	name, data := readEvent(t, r)
	assert.Equal(t, "progress", name)
	var sum progress.Summary
	require.NoError(t, json.Unmarshal([]byte(data), &sum))
	assert.Zero(t, sum.Overall)

	f.manager.MarkSectionComplete(context.Background(), "module-0", "about-swiftcourse")

	name, data = readEvent(t, r)
	assert.Equal(t, "progress", name)
	require.NoError(t, json.Unmarshal([]byte(data), &sum))
	assert.Equal(t, 13, sum.Modules[0].Progress)
}

func TestStartAndShutdown(t *testing.T) {
	srv, err := New(Config{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	require.Eventually(t, srv.IsRunning, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.False(t, srv.IsRunning())
}

func TestShutdownEndsOpenEventStreams(t *testing.T) {
	m := progress.NewManager(context.Background(), course.MustDefault(), progress.NewStore(store.NewMemoryKV(), nil), nil)
	srv, err := New(Config{Progress: m, ShutdownTimeout: 2 * time.Second, Heartbeat: -1})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/progress/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	name, _ := readEvent(t, bufio.NewReader(resp.Body))
	require.Equal(t, "progress", name)

	start := time.Now()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
		assert.Less(t, time.Since(start), time.Second)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

// cancelAwareKV fails writes whose context is already done.
type cancelAwareKV struct {
	*store.MemoryKV
}

func (kv cancelAwareKV) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return kv.MemoryKV.Set(ctx, key, value)
}

func TestWritesOutliveClientDisconnect(t *testing.T) {
	kv := cancelAwareKV{store.NewMemoryKV()}
	m := progress.NewManager(context.Background(), course.MustDefault(), progress.NewStore(kv, nil), nil)
	srv, err := New(Config{Progress: m, Heartbeat: -1})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/progress/complete",
		strings.NewReader(`{"moduleId":"module-0","sectionId":"summary"}`)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	srv.Handler().ServeHTTP(httptest.NewRecorder(), req)

	_, ok, err := kv.Get(context.Background(), progress.ProgressKey)
	require.NoError(t, err)
	assert.True(t, ok, "progress should be persisted after the client went away")
}
