package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/earlysvahn/ngpt/internal/chat"
	"github.com/earlysvahn/ngpt/internal/cli"
	"github.com/earlysvahn/ngpt/internal/client"
	"github.com/earlysvahn/ngpt/internal/config"
	"github.com/earlysvahn/ngpt/internal/logging"
	"github.com/earlysvahn/ngpt/internal/render"
	"github.com/earlysvahn/ngpt/internal/store"
)

// app is the state shared by every mode of one invocation.
type app struct {
	opts  *options
	flags *pflag.FlagSet

	in     io.Reader
	out    io.Writer
	errOut io.Writer
	ask    *cli.Prompter

	logf    func(string)
	logger  *slog.Logger
	cleanup func()

	configPath string
	profiles   []config.Profile
	selection  config.Selection
	profile    config.Profile

	client   *client.Client
	renderer render.Renderer
	convLog  store.Log
}

func newApp(cmd *cobra.Command, opts *options) (*app, error) {
	a := &app{
		opts:   opts,
		flags:  cmd.Flags(),
		in:     cmd.InOrStdin(),
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
	}
	a.ask = cli.NewPrompter(a.in, a.errOut)
	a.logf = cli.Logf(a.errOut, opts.quiet)
	a.logger, a.cleanup = logging.Setup(logging.Options{
		Debug:  opts.debug,
		File:   logging.FileFromEnv(),
		Stderr: a.errOut,
	})

	if err := a.loadConfig(); err != nil {
		a.close()
		return nil, err
	}
	if !opts.mode().needsClient() {
		return a, nil
	}

	a.client = client.New(a.profile, client.WithLogger(a.logger))

	r, err := render.New(opts.renderer, opts.style, a.out)
	if err != nil {
		a.close()
		return nil, err
	}
	a.renderer = r

	if opts.logFile != "" {
		l, err := store.Open(opts.logBackend, opts.logFile)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("open conversation log: %w", err)
		}
		a.convLog = l
		a.logger.Debug("conversation log opened", "path", opts.logFile, "backend", opts.logBackend, "session", l.Session())
	}
	return a, nil
}

// loadConfig reads the profile list and resolves the active profile.
func (a *app) loadConfig() error {
	config.LoadDotEnv()

	custom := a.opts.customConfigPath()
	a.configPath = config.File(custom)
	if custom == "" {
		created, err := config.EnsureFile(a.configPath)
		if err != nil {
			a.logger.Warn("could not create default config", "path", a.configPath, "err", err)
		} else if created {
			a.logf("created default config at " + a.configPath)
		}
	}

	profiles, missing, err := config.LoadProfiles(a.configPath)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if missing {
		a.logger.Debug("config file not found, using defaults", "path", a.configPath)
	}
	a.profiles = profiles

	sel, err := config.Select(profiles, config.Selector{Index: a.opts.configIndex, Provider: a.opts.provider})
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if sel.Warning != "" {
		a.logf("warning: " + sel.Warning)
	}
	a.selection = sel
	a.profile = config.Resolve(sel.Profile, config.FromEnv(nil), a.opts.overrides(a.flags))
	a.logger.Debug("profile resolved", "index", sel.Index, "provider", a.profile.Provider, "base_url", a.profile.BaseURL, "model", a.profile.Model)
	return nil
}

func (a *app) close() {
	if a.convLog != nil {
		if err := a.convLog.Close(); err != nil {
			a.logger.Warn("close conversation log", "err", err)
		}
	}
	if a.cleanup != nil {
		a.cleanup()
	}
}

func (a *app) run(ctx context.Context, prompt string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	m := a.opts.mode()
	a.logger.Debug("starting", "mode", m.String())

	switch m {
	case modeShowConfig:
		return a.showConfig()
	case modeEditConfig:
		return a.editConfig()
	case modeRemoveConfig:
		return a.removeConfig()
	case modeListModels:
		return a.listModels(ctx)
	case modeInteractive:
		return a.interactive(ctx)
	case modeText:
		return a.textMode(ctx)
	case modeShell:
		return a.shellMode(ctx, prompt)
	case modeCode:
		return a.codeMode(ctx, prompt)
	}
	return a.chatOnce(ctx, prompt)
}

// readPrompt returns prompt, or asks for one line on stdin when empty.
func (a *app) readPrompt(prompt string) (string, error) {
	if p := strings.TrimSpace(prompt); p != "" {
		return p, nil
	}
	p, err := a.ask.Ask("Enter your prompt: ")
	if err != nil {
		if errors.Is(err, cli.ErrNoInput) {
			return "", errors.New("no prompt provided")
		}
		return "", err
	}
	if p == "" {
		return "", errors.New("no prompt provided")
	}
	return p, nil
}

// withSpinner runs fn under the spinner when stderr is a terminal.
// Ctrl+C on the spinner cancels the request context.
func withSpinner[T any](a *app, ctx context.Context, message string, fn func(context.Context) (T, error)) (T, error) {
	f, ok := a.errOut.(*os.File)
	if !ok || !cli.IsTerminal(f) || a.opts.quiet {
		return fn(ctx)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	return cli.ExecuteWithSpinner(message, cancel, func() (T, error) {
		return fn(ctx)
	})
}

// respond sends messages and prints the reply. Streaming writes chunks as
// they arrive; otherwise the reply is printed once, rendered with --prettify.
func (a *app) respond(ctx context.Context, messages []chat.Message) (string, error) {
	params := a.opts.params(a.flags, client.ChatParams())

	if a.opts.streaming() {
		return a.client.Chat(ctx, "", client.ChatOptions{
			Messages: messages,
			Stream:   true,
			Writer:   a.out,
			Params:   params,
		})
	}

	reply, err := withSpinner(a, ctx, "Waiting for response...", func(ctx context.Context) (string, error) {
		return a.client.Complete(ctx, messages, params)
	})
	if err != nil {
		return "", err
	}
	a.print(reply)
	return reply, nil
}

// print writes text to stdout, rendered when --prettify is set.
func (a *app) print(text string) {
	if a.opts.prettify {
		fmt.Fprint(a.out, a.renderer.Render(text))
		return
	}
	fmt.Fprint(a.out, text)
	if !strings.HasSuffix(text, "\n") {
		fmt.Fprintln(a.out)
	}
}

// record appends a message to the conversation log, if one is open.
func (a *app) record(role, content string) {
	if a.convLog == nil || content == "" {
		return
	}
	if err := a.convLog.Append(store.Message{Role: role, Content: content}); err != nil {
		a.logger.Warn("write conversation log", "err", err)
	}
}
