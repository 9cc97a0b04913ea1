package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/earlysvahn/ngpt/internal/chat"
	"github.com/earlysvahn/ngpt/internal/client"
	"github.com/earlysvahn/ngpt/internal/utils"
)

type lineReader interface {
	Readline() (string, error)
}

func (a *app) interactive(ctx context.Context) error {
	stdin, ok := a.in.(io.ReadCloser)
	if !ok {
		stdin = io.NopCloser(a.in)
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           stdin,
		Stdout:          a.out,
		Stderr:          a.errOut,
	})
	if err != nil {
		return fmt.Errorf("readline init: %w", err)
	}
	defer rl.Close()

	return a.repl(ctx, rl)
}

// repl runs the interactive session until exit, EOF or cancellation.
func (a *app) repl(ctx context.Context, lr lineReader) error {
	conv := chat.NewConversation(a.opts.preprompt)

	fmt.Fprintf(a.errOut, "Interactive session with %s (%s)\n", a.profile.Provider, a.profile.Model)
	if a.opts.preprompt != "" {
		fmt.Fprintf(a.errOut, "System: %s\n", utils.Truncate(a.opts.preprompt, 80))
	}
	fmt.Fprintln(a.errOut, "Type /help for commands, Ctrl+C or Ctrl+D to exit.")
	fmt.Fprintln(a.errOut)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line, err := lr.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				fmt.Fprintln(a.errOut, "Exiting interactive session.")
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "exit", "/exit", "quit", "/quit":
			fmt.Fprintln(a.errOut, "Exiting interactive session.")
			return nil
		case "clear", "/clear":
			conv.Clear()
			fmt.Fprintln(a.errOut, "Conversation history cleared.")
			continue
		case "history", "/history":
			a.printHistory(conv)
			continue
		case "/help":
			printREPLHelp(a.errOut)
			continue
		}

		conv.AddUser(input)
		a.record(chat.RoleUser, input)

		fmt.Fprint(a.out, "\nngpt: ")
		reply, err := a.respond(ctx, conv.Messages())
		if err != nil {
			conv.DropLast()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintln(a.errOut, client.Describe(err))
			continue
		}
		conv.AddAssistant(reply)
		a.record(chat.RoleAssistant, reply)
		fmt.Fprintln(a.out)
	}
}

func (a *app) printHistory(conv *chat.Conversation) {
	if conv.Len() == 0 {
		fmt.Fprintln(a.errOut, "No conversation history yet.")
		return
	}
	fmt.Fprintln(a.errOut, "Conversation history:")
	for i, m := range conv.Turns() {
		fmt.Fprintf(a.errOut, "[%d] %s: %s\n", i+1, m.Role, m.Content)
	}
}

func printREPLHelp(w io.Writer) {
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  history, /history   show the conversation so far")
	fmt.Fprintln(w, "  clear, /clear       forget the conversation")
	fmt.Fprintln(w, "  exit, /exit         leave the session")
	fmt.Fprintln(w, "  /help               show this help")
}
