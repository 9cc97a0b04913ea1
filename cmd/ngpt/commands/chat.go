package commands

import (
	"context"
	"errors"

	"github.com/earlysvahn/ngpt/internal/chat"
	"github.com/earlysvahn/ngpt/internal/tui"
)

// chatOnce sends a single prompt, optionally preceded by --preprompt.
func (a *app) chatOnce(ctx context.Context, prompt string) error {
	prompt, err := a.readPrompt(prompt)
	if err != nil {
		return err
	}
	messages := chat.BuildMessages(a.opts.preprompt, nil, prompt)

	a.record(chat.RoleUser, prompt)
	reply, err := a.respond(ctx, messages)
	a.record(chat.RoleAssistant, reply)
	return err
}

// textMode collects the prompt in the multiline editor.
func (a *app) textMode(ctx context.Context) error {
	text, err := tui.Edit(tui.Config{
		Title:       "ngpt: multiline input (Ctrl+D to submit, Esc to cancel)",
		Placeholder: "Type your prompt...",
	})
	if err != nil {
		if errors.Is(err, tui.ErrCancelled) {
			a.logf("input cancelled")
			return nil
		}
		return err
	}
	return a.chatOnce(ctx, text)
}
