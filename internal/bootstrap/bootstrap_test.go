package bootstrap

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	platformconfig "tts-mcp-go/internal/platform/config"
	platformerrors "tts-mcp-go/internal/platform/errors"
	platformtesting "tts-mcp-go/internal/platform/testing"
)

type recordingPlayer struct {
	mu    sync.Mutex
	paths []string
}

func (p *recordingPlayer) Play(_ context.Context, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paths = append(p.paths, path)
	return nil
}

func testConfig(t *testing.T, baseURL string) *platformconfig.Config {
	t.Helper()
	cfg := platformtesting.SetupTestConfig(t)
	cfg.OpenAI.BaseURL = baseURL
	return cfg
}

func TestInitGraphOrder(t *testing.T) {
	steps := InitGraph()
	want := []string{
		"config:validate",
		"logging:init-provider",
		"observability:setup-hooks",
		"tts:init-service",
		"mcp:init-server",
	}
	if len(steps) != len(want) {
		t.Fatalf("unexpected step count: got %d want %d", len(steps), len(want))
	}
	for i, step := range steps {
		if step.ID != want[i] {
			t.Fatalf("step %d mismatch: got %s want %s", i, step.ID, want[i])
		}
	}
}

func TestExecuteInitGraph(t *testing.T) {
	state := &appState{opts: Options{
		Config:  testConfig(t, "http://127.0.0.1:0/v1"),
		Console: &bytes.Buffer{},
		Player:  &recordingPlayer{},
	}}
	defer state.close()

	platformtesting.AssertNoError(t, executeInitSteps(context.Background(), InitGraph(), state))
	if state.logger == nil {
		t.Fatal("logger is nil after init")
	}
	if state.speechService == nil {
		t.Fatal("speech service is nil after init")
	}
	if state.mcpServer == nil {
		t.Fatal("mcp server is nil after init")
	}
	if state.observabilityShutdown == nil {
		t.Fatal("observability shutdown hook not set")
	}
}

func TestExecuteInitSteps_MissingDependency(t *testing.T) {
	steps := []initStep{{
		ID:        "mcp:init-server",
		DependsOn: []string{"tts:init-service"},
		Execute:   func(context.Context, *appState) error { return nil },
	}}

	err := executeInitSteps(context.Background(), steps, &appState{})
	platformtesting.AssertError(t, err)
	if !platformerrors.IsKind(err, platformerrors.KindBootstrap) {
		t.Fatalf("expected bootstrap error, got %v", err)
	}
}

func TestExecuteInitSteps_WrapsUntypedErrors(t *testing.T) {
	steps := []initStep{{
		ID:      "tts:init-service",
		Kind:    platformerrors.KindConfig,
		Execute: func(context.Context, *appState) error { return errors.New("boom") },
	}}

	err := executeInitSteps(context.Background(), steps, &appState{})
	if !platformerrors.IsKind(err, platformerrors.KindConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("cause missing from %v", err)
	}
}

func TestRun_MissingCredential(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.OpenAI.APIKey = ""

	err := Run(context.Background(), Options{
		Config:  cfg,
		Stdin:   strings.NewReader(""),
		Stdout:  io.Discard,
		Console: &bytes.Buffer{},
	})
	if !platformerrors.IsKind(err, platformerrors.KindConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestRun_InvalidModel(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.TTS.Model = "tts-9"

	err := Run(context.Background(), Options{
		Config:  cfg,
		Stdin:   strings.NewReader(""),
		Stdout:  io.Discard,
		Console: &bytes.Buffer{},
	})
	if !platformerrors.IsKind(err, platformerrors.KindConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestRun_ExitsWhenStdinCloses(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:0/v1")

	err := Run(context.Background(), Options{
		Config:  cfg,
		Stdin:   strings.NewReader(""),
		Stdout:  io.Discard,
		Console: &bytes.Buffer{},
		Player:  &recordingPlayer{},
	})
	platformtesting.AssertNoError(t, err)

	data, err := os.ReadFile(cfg.Log.File)
	platformtesting.AssertNoError(t, err)
	if !strings.Contains(string(data), "初始化依赖关系概览") {
		t.Fatalf("graph header missing in log output: %s", data)
	}
}

func TestRun_ServesToolCall(t *testing.T) {
	api := platformtesting.NewSpeechAPI(t, []byte{0x01, 0x02, 0x03, 0x04})
	serveToolCall(t, testConfig(t, api.BaseURL()), api)
	platformtesting.AssertEqual(t, "tts-1", api.LastModel())
}

func TestRun_CanonicalisesModelAndFormat(t *testing.T) {
	api := platformtesting.NewSpeechAPI(t, []byte{0x01, 0x02, 0x03, 0x04})
	cfg := testConfig(t, api.BaseURL())
	cfg.TTS.Model = "TTS-1-HD"
	cfg.TTS.Format = " MP3"

	serveToolCall(t, cfg, api)
	platformtesting.AssertEqual(t, "tts-1-hd", api.LastModel())
	platformtesting.AssertEqual(t, "mp3", cfg.TTS.Format)
}

// serveToolCall runs the server over pipes, makes one successful tool call
// and closes stdin.
func serveToolCall(t *testing.T, cfg *platformconfig.Config, api *platformtesting.SpeechAPI) {
	t.Helper()

	player := &recordingPlayer{}
	stdinR, stdinW := io.Pipe()
	stdoutR, stdoutW := io.Pipe()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	runErr := make(chan error, 1)
	go func() {
		runErr <- Run(ctx, Options{
			Config:  cfg,
			Stdin:   stdinR,
			Stdout:  stdoutW,
			Console: &bytes.Buffer{},
			Player:  player,
		})
		_ = stdoutW.Close()
	}()

	lines := make(chan string, 4)
	go func() {
		scanner := bufio.NewScanner(stdoutR)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	write := func(s string) {
		if _, err := io.WriteString(stdinW, s+"\n"); err != nil {
			t.Fatalf("write stdin: %v", err)
		}
	}
	waitFor := func(id int) map[string]any {
		for {
			select {
			case line, ok := <-lines:
				if !ok {
					t.Fatalf("stdout closed before response %d", id)
				}
				var msg map[string]any
				if err := json.Unmarshal([]byte(line), &msg); err != nil {
					t.Fatalf("non-JSON line on stdout: %q", line)
				}
				if got, _ := msg["id"].(float64); int(got) == id {
					return msg
				}
			case <-ctx.Done():
				t.Fatalf("timed out waiting for response %d", id)
			}
		}
	}

	write(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1"}}}`)
	waitFor(1)

	write(`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"text-to-speech","arguments":{"text":"hello"}}}`)
	resp := waitFor(2)

	result, ok := resp["result"].(map[string]any)
	if !ok {
		t.Fatalf("missing result: %v", resp)
	}
	if isErr, _ := result["isError"].(bool); isErr {
		t.Fatalf("tool reported error: %v", result)
	}
	meta, _ := result["_meta"].(map[string]any)
	if meta["text_length"] != float64(5) {
		t.Fatalf("unexpected text_length in %v", meta)
	}

	_ = stdinW.Close()
	select {
	case err := <-runErr:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-ctx.Done():
		t.Fatal("Run did not return after stdin closed")
	}

	platformtesting.AssertEqual(t, 1, api.Calls())

	player.mu.Lock()
	defer player.mu.Unlock()
	if len(player.paths) != 1 {
		t.Fatalf("expected one playback, got %d", len(player.paths))
	}
	if _, err := os.Stat(player.paths[0]); !os.IsNotExist(err) {
		t.Fatalf("temp file %s was not removed", player.paths[0])
	}
}
