package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"payroll/internal/core"
)

type fakeGenerator struct {
	reply   string
	err     error
	calls   atomic.Int32
	prompts []string
	mu      sync.Mutex
	block   chan struct{}
}

func (f *fakeGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	return f.reply, f.err
}

var fixedNow = func() time.Time { return time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC) }

func sampleData() ([]core.Employee, []core.Withdrawal) {
	return []core.Employee{{ID: "e1", Name: "أحمد", BaseSalary: core.FromUnits(2000)}},
		[]core.Withdrawal{{ID: "w1", EmployeeID: "e1", Amount: core.FromUnits(300), Date: core.NewDate(2026, 10, 1)}}
}

func TestBridge_Ask(t *testing.T) {
	emps, wds := sampleData()

	tests := []struct {
		name string
		gen  Generator
		want string
	}{
		{"unavailable", nil, UnavailableMessage},
		{"reply verbatim", &fakeGenerator{reply: "  المتبقي 1700 \n"}, "  المتبقي 1700 \n"},
		{"service error", &fakeGenerator{err: &ServiceError{Op: "generate", Err: errors.New("401")}}, FailureMessage},
		{"plain error", &fakeGenerator{err: errors.New("boom")}, FailureMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBridge(tt.gen, WithClock(fixedNow))
			if got := b.Ask(context.Background(), "كم تبقى لأحمد؟", emps, wds); got != tt.want {
				t.Errorf("Ask = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBridge_BlankQuestionSkipsGenerator(t *testing.T) {
	gen := &fakeGenerator{reply: "x"}
	b := NewBridge(gen)
	if got := b.Ask(context.Background(), "   ", nil, nil); got != "" {
		t.Errorf("Ask = %q, want empty", got)
	}
	if gen.calls.Load() != 0 {
		t.Errorf("generator called %d times", gen.calls.Load())
	}
}

func TestBuildPrompt(t *testing.T) {
	emps, wds := sampleData()
	p, err := BuildPrompt(" كم تبقى؟ ", emps, wds, fixedNow())
	if err != nil {
		t.Fatalf("BuildPrompt: %v", err)
	}
	for _, want := range []string{
		"تاريخ اليوم هو: ١٥ أكتوبر ٢٠٢٦.",
		"\"baseSalary\": 2000",
		"\"employeeId\": \"e1\"",
		"\"date\": \"2026-10-01\"",
		"سؤال المستخدم: \"كم تبقى؟\"",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	empty, err := BuildPrompt("q", nil, nil, fixedNow())
	if err != nil {
		t.Fatalf("BuildPrompt: %v", err)
	}
	if !strings.Contains(empty, "بيانات الموظفين:\n[]") {
		t.Errorf("expected empty JSON arrays in prompt")
	}
}

func TestBridge_AskFromJoinsPendingRequest(t *testing.T) {
	gen := &fakeGenerator{reply: "ok", block: make(chan struct{})}
	b := NewBridge(gen)

	var wg sync.WaitGroup
	results := make([]string, 2)
	start := func(i int) {
		defer wg.Done()
		results[i], _ = b.AskFrom(context.Background(), "client-1", "q", nil, nil)
	}
	wg.Add(1)
	go start(0)
	for gen.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	wg.Add(1)
	go start(1)
	time.Sleep(20 * time.Millisecond)
	close(gen.block)
	wg.Wait()

	if gen.calls.Load() != 1 {
		t.Errorf("generator called %d times, want 1", gen.calls.Load())
	}
	for i, r := range results {
		if r != "ok" {
			t.Errorf("result %d = %q", i, r)
		}
	}
}

type answerByQuestion struct {
	calls   atomic.Int32
	release chan struct{}
}

func (g *answerByQuestion) GenerateText(_ context.Context, prompt string) (string, error) {
	g.calls.Add(1)
	<-g.release
	switch {
	case strings.Contains(prompt, "كم راتب أحمد؟"):
		return "راتب أحمد ٢٠٠٠", nil
	case strings.Contains(prompt, "من سحب أكثر؟"):
		return "أحمد", nil
	}
	return "", errors.New("unexpected prompt")
}

func TestBridge_AskFromKeepsDifferentQuestionsApart(t *testing.T) {
	gen := &answerByQuestion{release: make(chan struct{})}
	b := NewBridge(gen)

	questions := []string{"كم راتب أحمد؟", "من سحب أكثر؟"}
	want := []string{"راتب أحمد ٢٠٠٠", "أحمد"}
	replies := make([]string, len(questions))
	shared := make([]bool, len(questions))

	var wg sync.WaitGroup
	for i, q := range questions {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			replies[i], shared[i] = b.AskFrom(context.Background(), "10.0.0.1", q, nil, nil)
		}(i, q)
	}
	for gen.calls.Load() < int32(len(questions)) {
		time.Sleep(time.Millisecond)
	}
	close(gen.release)
	wg.Wait()

	for i := range questions {
		if replies[i] != want[i] || shared[i] {
			t.Errorf("question %d: reply %q shared=%v, want %q unshared", i, replies[i], shared[i], want[i])
		}
	}
}

func TestGemini_GenerateText(t *testing.T) {
	var gotPath, gotKey string
	var gotReq map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotReq)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"مرحبا "},{"text":"بك"}]}}]}`)
	}))
	defer srv.Close()

	g, err := NewGemini(context.Background(), GeminiConfig{APIKey: "test-key", Endpoint: srv.URL + "/"})
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}
	reply, err := g.GenerateText(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if reply != "مرحبا بك" {
		t.Errorf("reply = %q", reply)
	}
	if gotPath != "/v1beta/models/gemini-2.5-flash:generateContent" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("key = %q", gotKey)
	}
	if _, ok := gotReq["systemInstruction"]; !ok {
		t.Errorf("request missing systemInstruction: %v", gotReq)
	}
}

func TestGemini_HTTPErrorIsServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"error":{"code":403,"message":"API key not valid"}}`)
	}))
	defer srv.Close()

	g, err := NewGemini(context.Background(), GeminiConfig{APIKey: "bad", Endpoint: srv.URL + "/"})
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}
	_, err = g.GenerateText(context.Background(), "prompt")
	var se *ServiceError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *ServiceError", err)
	}

	b := NewBridge(g)
	if got := b.Ask(context.Background(), "q", nil, nil); got != FailureMessage {
		t.Errorf("Ask = %q, want failure message", got)
	}
}

func TestNewGemini_RequiresKey(t *testing.T) {
	if _, err := NewGemini(context.Background(), GeminiConfig{}); err == nil {
		t.Fatal("expected error without api key")
	}
}
