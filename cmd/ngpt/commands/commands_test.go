package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/pflag"
	"github.com/tidwall/gjson"

	"github.com/earlysvahn/ngpt/internal/cli"
	"github.com/earlysvahn/ngpt/internal/client"
	"github.com/earlysvahn/ngpt/internal/config"
)

// fakeEndpoint answers chat completions with reply, streamed in two chunks
// when the request asks for a stream.
type fakeEndpoint struct {
	reply string

	mu     sync.Mutex
	bodies []string
}

func (f *fakeEndpoint) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/models"):
			fmt.Fprint(w, `{"data":[{"id":"gpt-4o","owned_by":"openai"},{"id":"local-model"}]}`)
			return
		case strings.HasSuffix(r.URL.Path, "/chat/completions"):
		default:
			http.NotFound(w, r)
			return
		}

		b, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.bodies = append(f.bodies, string(b))
		f.mu.Unlock()

		if !gjson.GetBytes(b, "stream").Bool() {
			resp, _ := json.Marshal(map[string]any{
				"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": f.reply}}},
			})
			w.Header().Set("Content-Type", "application/json")
			w.Write(resp)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		half := len(f.reply) / 2
		for _, part := range []string{f.reply[:half], f.reply[half:]} {
			chunk, _ := json.Marshal(map[string]any{
				"choices": []any{map[string]any{"delta": map[string]any{"content": part}}},
			})
			fmt.Fprintf(w, "data: %s\n\n", chunk)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}
}

func (f *fakeEndpoint) requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.bodies...)
}

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{config.EnvAPIKey, config.EnvBaseURL, config.EnvProvider, config.EnvModel, "NGPT_LOG_FILE"} {
		t.Setenv(k, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func writeProfiles(t *testing.T, profiles ...config.Profile) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ngpt.conf")
	if err := config.SaveProfiles(path, profiles); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand("test")
	var out, errOut bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func newEndpoint(t *testing.T, reply string) (*fakeEndpoint, string) {
	t.Helper()
	f := &fakeEndpoint{reply: reply}
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return f, srv.URL + "/v1"
}

func endpointArgs(t *testing.T, baseURL string, extra ...string) []string {
	cfg := writeProfiles(t, config.DefaultProfile())
	return append([]string{"--config=" + cfg, "--api-key", "test-key", "--base-url", baseURL, "--quiet"}, extra...)
}

func TestChat_Streams(t *testing.T) {
	isolateEnv(t)
	f, base := newEndpoint(t, "Hello world")

	out, _, err := runCLI(t, "", endpointArgs(t, base, "say", "hi")...)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "Hello world\n" {
		t.Fatalf("stdout = %q", out)
	}
	reqs := f.requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	if got := gjson.Get(reqs[0], "messages.0.content").String(); got != "say hi" {
		t.Fatalf("prompt = %q", got)
	}
	if got := gjson.Get(reqs[0], "temperature").Float(); got != 0.7 {
		t.Fatalf("temperature = %v", got)
	}
}

func TestChat_NoStreamWithPreprompt(t *testing.T) {
	isolateEnv(t)
	f, base := newEndpoint(t, "Hello world")

	out, _, err := runCLI(t, "", endpointArgs(t, base, "--no-stream", "--preprompt", "be terse", "--temperature", "0.2", "--max_tokens", "50", "hi")...)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "Hello world\n" {
		t.Fatalf("stdout = %q", out)
	}
	body := f.requests()[0]
	if gjson.Get(body, "stream").Bool() {
		t.Fatal("expected a buffered request")
	}
	if gjson.Get(body, "messages.0.role").String() != "system" || gjson.Get(body, "messages.0.content").String() != "be terse" {
		t.Fatalf("system message missing: %s", body)
	}
	if gjson.Get(body, "temperature").Float() != 0.2 || gjson.Get(body, "max_tokens").Int() != 50 {
		t.Fatalf("generation flags not applied: %s", body)
	}
}

func TestChat_PromptFromStdin(t *testing.T) {
	isolateEnv(t)
	f, base := newEndpoint(t, "ok")

	_, errOut, err := runCLI(t, "from stdin\n", endpointArgs(t, base)...)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(errOut, "Enter your prompt: ") {
		t.Fatalf("expected prompt label on stderr, got %q", errOut)
	}
	if got := gjson.Get(f.requests()[0], "messages.0.content").String(); got != "from stdin" {
		t.Fatalf("prompt = %q", got)
	}
}

func TestChat_NoPrompt(t *testing.T) {
	isolateEnv(t)
	_, base := newEndpoint(t, "ok")

	if _, _, err := runCLI(t, "", endpointArgs(t, base)...); err == nil {
		t.Fatal("expected error without a prompt")
	}
}

func TestChat_AuthError(t *testing.T) {
	isolateEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, _, err := runCLI(t, "", endpointArgs(t, srv.URL, "hi")...)
	if !errors.Is(err, client.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestChat_ProviderSelection(t *testing.T) {
	isolateEnv(t)
	f, base := newEndpoint(t, "ok")
	cfg := writeProfiles(t,
		config.Profile{APIKey: "a", BaseURL: "http://127.0.0.1:1/", Provider: "OpenAI", Model: "gpt-4o"},
		config.Profile{APIKey: "b", BaseURL: base, Provider: "Groq", Model: "llama3"},
	)

	if _, _, err := runCLI(t, "", "--config="+cfg, "--provider", "groq", "--quiet", "hi"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := gjson.Get(f.requests()[0], "model").String(); got != "llama3" {
		t.Fatalf("model = %q", got)
	}

	_, _, err := runCLI(t, "", "--config="+cfg, "--provider", "missing", "hi")
	if !errors.Is(err, config.ErrProviderNotFound) {
		t.Fatalf("expected ErrProviderNotFound, got %v", err)
	}
}

func TestChat_LogFile(t *testing.T) {
	isolateEnv(t)
	_, base := newEndpoint(t, "logged reply")
	logPath := filepath.Join(t.TempDir(), "chat.log")

	if _, _, err := runCLI(t, "", endpointArgs(t, base, "--log", logPath, "logged prompt")...); err != nil {
		t.Fatalf("run: %v", err)
	}
	b, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(b), "user:\nlogged prompt") || !strings.Contains(string(b), "assistant:\nlogged reply") {
		t.Fatalf("unexpected log:\n%s", b)
	}
}

func TestFlagConflicts(t *testing.T) {
	isolateEnv(t)
	cfg := writeProfiles(t, config.DefaultProfile())

	cases := [][]string{
		{"--all"},
		{"--provider", "x", "--config-index", "1", "hi"},
		{"-s", "-c", "hi"},
		{"--renderer", "fancy", "hi"},
		{"--log-backend", "postgres", "hi"},
		{"--remove"},
	}
	for _, args := range cases {
		if _, _, err := runCLI(t, "", append([]string{"--config=" + cfg}, args...)...); err == nil {
			t.Errorf("expected error for %v", args)
		}
	}
}

func TestShowConfig(t *testing.T) {
	isolateEnv(t)
	cfg := writeProfiles(t,
		config.Profile{APIKey: "k", BaseURL: "https://api.openai.com/v1/", Provider: "OpenAI", Model: "gpt-4o"},
		config.Profile{BaseURL: "http://localhost:11434/v1/", Provider: "Ollama", Model: "llama3"},
	)

	out, _, err := runCLI(t, "", "--config="+cfg, "--show-config")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{"Configuration file: " + cfg, "Total configurations: 2", "Active configuration index: 0", "API Key: [Set]", "[1] Ollama (llama3)"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}

	out, _, err = runCLI(t, "", "--config="+cfg, "--show-config", "--all", "--config-index", "1")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "Configuration 1 (Active):") || !strings.Contains(out, "API Key: [Not Set]") {
		t.Fatalf("unexpected --all output:\n%s", out)
	}
}

func TestConfigPathSeparateArgument(t *testing.T) {
	isolateEnv(t)
	f, base := newEndpoint(t, "ok")
	cfg := writeProfiles(t, config.Profile{APIKey: "k", BaseURL: base, Provider: "Local", Model: "from-file"})

	out, _, err := runCLI(t, "", "--config", cfg, "--show-config")
	if err != nil {
		t.Fatalf("show-config: %v", err)
	}
	if !strings.Contains(out, "Configuration file: "+cfg) || !strings.Contains(out, "Model: from-file") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	if _, _, err := runCLI(t, "", "--config", cfg, "--quiet", "hi", "there"); err != nil {
		t.Fatalf("chat: %v", err)
	}
	body := f.requests()[0]
	if gjson.Get(body, "model").String() != "from-file" || gjson.Get(body, "messages.0.content").String() != "hi there" {
		t.Fatalf("unexpected request: %s", body)
	}
}

func TestShowConfig_EnvOverridesActive(t *testing.T) {
	isolateEnv(t)
	t.Setenv(config.EnvModel, "from-env")
	cfg := writeProfiles(t, config.DefaultProfile())

	out, _, err := runCLI(t, "", "--config="+cfg, "--show-config", "--model", "from-flag")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "Model: from-flag") {
		t.Fatalf("expected flag model in:\n%s", out)
	}
}

func TestEditConfig_Appends(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("relies on XDG_CONFIG_HOME")
	}
	isolateEnv(t)

	stdin := "sk-new\nhttps://api.groq.com/openai/v1/\nGroq\n\n"
	if _, _, err := runCLI(t, stdin, "--config", "--config-index", "1", "--quiet"); err != nil {
		t.Fatalf("run: %v", err)
	}

	profiles, missing, err := config.LoadProfiles(config.File(""))
	if err != nil || missing {
		t.Fatalf("load: missing=%v err=%v", missing, err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}
	got := profiles[1]
	if got.APIKey != "sk-new" || got.Provider != "Groq" || got.Model != config.DefaultModel {
		t.Fatalf("unexpected profile %+v", got)
	}
}

func TestRemoveConfig(t *testing.T) {
	isolateEnv(t)
	cfg := writeProfiles(t,
		config.Profile{Provider: "A", Model: "m"},
		config.Profile{Provider: "B", Model: "m"},
	)

	if _, _, err := runCLI(t, "n\n", "--config="+cfg, "--remove", "--config-index", "1", "--quiet"); err != nil {
		t.Fatalf("run: %v", err)
	}
	profiles, _, _ := config.LoadProfiles(cfg)
	if len(profiles) != 2 {
		t.Fatalf("declined removal changed the file: %+v", profiles)
	}

	if _, _, err := runCLI(t, "y\n", "--config="+cfg, "--remove", "--provider", "b", "--quiet"); err != nil {
		t.Fatalf("run: %v", err)
	}
	profiles, _, _ = config.LoadProfiles(cfg)
	if len(profiles) != 1 || profiles[0].Provider != "A" {
		t.Fatalf("unexpected profiles after removal: %+v", profiles)
	}

	_, _, err := runCLI(t, "y\n", "--config="+cfg, "--remove", "--config-index", "5")
	if !errors.Is(err, config.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestShell_Declined(t *testing.T) {
	isolateEnv(t)
	f, base := newEndpoint(t, "```bash\nls -la\n```")

	out, _, err := runCLI(t, "n\n", endpointArgs(t, base, "-s", "list files")...)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "Generated command: ls -la") {
		t.Fatalf("stdout = %q", out)
	}
	if strings.Contains(out, "Output:") {
		t.Fatal("command must not run when declined")
	}
	body := f.requests()[0]
	if gjson.Get(body, "messages.0.role").String() != "system" || gjson.Get(body, "temperature").Float() != 0.4 {
		t.Fatalf("unexpected shell request: %s", body)
	}
}

func TestShell_Executes(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix shell only")
	}
	isolateEnv(t)
	t.Setenv("SHELL", "/bin/sh")
	_, base := newEndpoint(t, "echo ngpt-ok")

	out, _, err := runCLI(t, "y\n", endpointArgs(t, base, "-s", "say ok")...)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "Output:\nngpt-ok\n") {
		t.Fatalf("stdout = %q", out)
	}
}

func TestCode(t *testing.T) {
	isolateEnv(t)
	f, base := newEndpoint(t, "```go\nfmt.Println(1)\n```")

	out, _, err := runCLI(t, "", endpointArgs(t, base, "-c", "--language", "go", "print one")...)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "fmt.Println(1)\n" {
		t.Fatalf("stdout = %q", out)
	}
	if !strings.Contains(gjson.Get(f.requests()[0], "messages.0.content").String(), "go") {
		t.Fatal("language missing from system prompt")
	}

	out, _, err = runCLI(t, "", endpointArgs(t, base, "-c", "--language", "go", "--prettify", "--renderer", "plain", "print one")...)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "```go\nfmt.Println(1)\n```\n" {
		t.Fatalf("prettified stdout = %q", out)
	}
}

func TestListModels(t *testing.T) {
	isolateEnv(t)
	_, base := newEndpoint(t, "")

	out, _, err := runCLI(t, "", endpointArgs(t, base, "--list-models")...)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "- gpt-4o (owned by openai)\n") || !strings.Contains(out, "- local-model\n") {
		t.Fatalf("stdout = %q", out)
	}
}

func TestVersion(t *testing.T) {
	out, _, err := runCLI(t, "", "--version")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.TrimSpace(out) != "ngpt version test" {
		t.Fatalf("stdout = %q", out)
	}
}

type scriptedLines struct {
	lines []string
}

func (s *scriptedLines) Readline() (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func newREPLApp(t *testing.T, baseURL, preprompt string) (*app, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	p := config.Profile{APIKey: "k", BaseURL: baseURL, Provider: "Test", Model: "m"}
	a := &app{
		opts:    &options{preprompt: preprompt},
		flags:   pflag.NewFlagSet("test", pflag.ContinueOnError),
		out:     &out,
		errOut:  &errOut,
		ask:     cli.NewPrompter(strings.NewReader(""), &errOut),
		logf:    func(string) {},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		profile: p,
		client:  client.New(p),
	}
	return a, &out, &errOut
}

func TestREPL_KeepsConversation(t *testing.T) {
	f, base := newEndpoint(t, "Hello world")
	a, out, errOut := newREPLApp(t, base, "sys")

	err := a.repl(context.Background(), &scriptedLines{lines: []string{"first", "", "second", "history", "exit", "never sent"}})
	if err != nil {
		t.Fatalf("repl: %v", err)
	}

	reqs := f.requests()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(reqs))
	}
	if n := gjson.Get(reqs[1], "messages.#").Int(); n != 4 {
		t.Fatalf("second request should carry system + 3 turns, got %d: %s", n, reqs[1])
	}
	if !strings.Contains(out.String(), "Hello world") {
		t.Fatalf("stdout = %q", out.String())
	}
	if !strings.Contains(errOut.String(), "[1] user: first") || !strings.Contains(errOut.String(), "[4] assistant: Hello world") {
		t.Fatalf("history output missing:\n%s", errOut.String())
	}
}

func TestREPL_Clear(t *testing.T) {
	f, base := newEndpoint(t, "ok")
	a, _, errOut := newREPLApp(t, base, "")

	err := a.repl(context.Background(), &scriptedLines{lines: []string{"one", "/clear", "/history", "two"}})
	if err != nil {
		t.Fatalf("repl: %v", err)
	}
	if !strings.Contains(errOut.String(), "Conversation history cleared.") || !strings.Contains(errOut.String(), "No conversation history yet.") {
		t.Fatalf("unexpected stderr:\n%s", errOut.String())
	}
	reqs := f.requests()
	if n := gjson.Get(reqs[len(reqs)-1], "messages.#").Int(); n != 1 {
		t.Fatalf("request after clear should carry 1 message, got %d", n)
	}
}

func TestREPL_ErrorKeepsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()
	a, _, errOut := newREPLApp(t, srv.URL, "")

	if err := a.repl(context.Background(), &scriptedLines{lines: []string{"hi", "history"}}); err != nil {
		t.Fatalf("repl: %v", err)
	}
	if !strings.Contains(errOut.String(), "Rate limit exceeded") {
		t.Fatalf("expected rate limit message:\n%s", errOut.String())
	}
	if !strings.Contains(errOut.String(), "No conversation history yet.") {
		t.Fatal("failed turn should be dropped from the conversation")
	}
}

func TestOverrides_OnlyChangedFlags(t *testing.T) {
	cmd := NewRootCommand("test")
	if err := cmd.ParseFlags([]string{"--model", "m1", "--temperature", "0.1"}); err != nil {
		t.Fatal(err)
	}
	opts := &options{}
	opts.model, _ = cmd.Flags().GetString("model")
	opts.temperature, _ = cmd.Flags().GetFloat64("temperature")
	opts.topP, _ = cmd.Flags().GetFloat64("top_p")

	ov := opts.overrides(cmd.Flags())
	if ov.APIKey != nil || ov.BaseURL != nil || ov.Provider != nil {
		t.Fatalf("unset flags must not override: %+v", ov)
	}
	if ov.Model == nil || *ov.Model != "m1" {
		t.Fatalf("model override = %v", ov.Model)
	}

	p := opts.params(cmd.Flags(), client.GenerateParams())
	if p.Temperature != 0.1 || p.TopP != 0.95 || p.MaxTokens != 0 {
		t.Fatalf("params = %+v", p)
	}
}
