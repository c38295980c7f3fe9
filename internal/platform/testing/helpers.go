package testing

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"tts-mcp-go/internal/platform/config"
	"tts-mcp-go/internal/platform/logging"
)

// SetupTestConfig returns defaults with a fake credential and a log file in
// a per-test directory.
func SetupTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.OpenAI.APIKey = "sk-test"
	cfg.Log.Level = "DEBUG"
	cfg.Log.File = filepath.Join(t.TempDir(), "test.log")
	return cfg
}

// SetupTestLogger returns a logger writing to the test config's log file.
// It is closed when the test ends.
func SetupTestLogger(t *testing.T) *logging.Logger {
	t.Helper()

	cfg := SetupTestConfig(t)
	logger := logging.New(logging.Config{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		Console: io.Discard,
	})
	t.Cleanup(func() { _ = logger.Close() })
	return logger
}

// SpeechAPI is a fake /v1/audio/speech endpoint.
type SpeechAPI struct {
	*httptest.Server
	calls int32

	mu        sync.Mutex
	lastModel string
}

// NewSpeechAPI answers every request with payload as audio/mpeg.
func NewSpeechAPI(t *testing.T, payload []byte) *SpeechAPI {
	t.Helper()
	return newSpeechAPI(t, func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(payload)
	})
}

// NewFailingSpeechAPI answers every request with an OpenAI style error body.
func NewFailingSpeechAPI(t *testing.T, status int, message string) *SpeechAPI {
	t.Helper()
	return newSpeechAPI(t, func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{"error":{"message":"`+message+`","type":"invalid_request_error"}}`)
	})
}

func newSpeechAPI(t *testing.T, respond func(http.ResponseWriter)) *SpeechAPI {
	t.Helper()
	api := &SpeechAPI{}
	api.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&api.calls, 1)
		if r.Method != http.MethodPost || r.URL.Path != "/v1/audio/speech" {
			http.NotFound(w, r)
			return
		}
		var body struct {
			Model string `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			api.mu.Lock()
			api.lastModel = body.Model
			api.mu.Unlock()
		}
		respond(w)
	}))
	t.Cleanup(api.Close)
	return api
}

// BaseURL is the value for openai.base_url.
func (a *SpeechAPI) BaseURL() string {
	return a.URL + "/v1"
}

// LastModel is the model named by the most recent request.
func (a *SpeechAPI) LastModel() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastModel
}

// Calls counts requests received so far.
func (a *SpeechAPI) Calls() int {
	return int(atomic.LoadInt32(&a.calls))
}

func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error but got nil")
	}
}

func AssertEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()
	if expected != actual {
		t.Fatalf("expected %v, got %v", expected, actual)
	}
}
