package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/earlysvahn/ngpt/internal/chat"
	"github.com/earlysvahn/ngpt/internal/client"
	"github.com/earlysvahn/ngpt/internal/render"
	"github.com/earlysvahn/ngpt/internal/shell"
)

// shellMode generates a command for the current platform and runs it after
// confirmation.
func (a *app) shellMode(ctx context.Context, prompt string) error {
	prompt, err := a.readPrompt(prompt)
	if err != nil {
		return err
	}
	params := a.opts.params(a.flags, client.GenerateParams())

	a.record(chat.RoleUser, prompt)
	generated, err := withSpinner(a, ctx, "Generating command...", func(ctx context.Context) (string, error) {
		return a.client.GenerateShellCommand(ctx, prompt, params)
	})
	if err != nil {
		return err
	}
	command := render.StripCodeFences(generated)
	a.record(chat.RoleAssistant, command)
	if command == "" {
		return fmt.Errorf("the model returned an empty command")
	}

	fmt.Fprintf(a.out, "\nGenerated command: %s\n", command)

	ok, err := a.ask.Confirm("\nDo you want to execute this command?")
	if err != nil {
		return err
	}
	if !ok {
		a.logf("command not executed")
		return nil
	}

	res, err := shell.Run(ctx, command)
	if res.Stdout != "" {
		fmt.Fprintf(a.out, "\nOutput:\n%s", res.Stdout)
		if !strings.HasSuffix(res.Stdout, "\n") {
			fmt.Fprintln(a.out)
		}
	}
	if err != nil {
		if res.Stderr != "" {
			fmt.Fprintf(a.errOut, "\nError:\n%s", res.Stderr)
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

// codeMode prints generated code, fenced and rendered with --prettify.
func (a *app) codeMode(ctx context.Context, prompt string) error {
	prompt, err := a.readPrompt(prompt)
	if err != nil {
		return err
	}
	params := a.opts.params(a.flags, client.GenerateParams())

	a.record(chat.RoleUser, prompt)
	generated, err := withSpinner(a, ctx, "Generating code...", func(ctx context.Context) (string, error) {
		return a.client.GenerateCode(ctx, prompt, a.opts.language, params)
	})
	if err != nil {
		return err
	}
	code := render.StripCodeFences(generated)
	a.record(chat.RoleAssistant, code)

	if a.opts.prettify {
		fmt.Fprint(a.out, a.renderer.Render(render.FenceCode(code, a.opts.language)))
		return nil
	}
	fmt.Fprintln(a.out, code)
	return nil
}
