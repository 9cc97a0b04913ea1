package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/earlysvahn/ngpt/internal/render"
	"github.com/earlysvahn/ngpt/internal/store"
)

// NewRootCommand builds the ngpt command.
func NewRootCommand(version string) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "ngpt [flags] [prompt]",
		Short: "Chat with OpenAI-compatible endpoints from the terminal",
		Long: `ngpt sends prompts to any OpenAI-compatible chat-completions endpoint.

Besides plain chat it can hold an interactive session, generate shell
commands for the current platform and generate code in a given language.
Endpoints are kept as a list of profiles in the ngpt config file.`,
		Example: `  ngpt "explain goroutines"
  ngpt -i --preprompt "You are terse."
  ngpt -s "list files by size"
  ngpt -c --language go "fizzbuzz"
  ngpt --provider Groq --model llama3-70b "hello"
  ngpt --show-config --all`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			args = opts.takeConfigPath(args)
			if err := opts.validate(cmd.Flags()); err != nil {
				return err
			}
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.close()
			return a.run(cmd.Context(), strings.Join(args, " "))
		},
	}

	f := cmd.Flags()
	f.SortFlags = false

	f.BoolVarP(&opts.interactive, "interactive", "i", false, "start an interactive chat session")
	f.BoolVarP(&opts.shell, "shell", "s", false, "generate and optionally run a shell command")
	f.BoolVarP(&opts.code, "code", "c", false, "generate code only")
	f.BoolVarP(&opts.text, "text", "t", false, "write the prompt in a multiline editor")
	f.BoolVar(&opts.listModels, "list-models", false, "list the models offered by the endpoint")

	f.StringVar(&opts.configPath, "config", "", "config file path, or edit a profile interactively when given without a value")
	f.Lookup("config").NoOptDefVal = configEdit
	f.IntVar(&opts.configIndex, "config-index", 0, "index of the profile to use")
	f.StringVar(&opts.provider, "provider", "", "select the profile by provider name")
	f.BoolVar(&opts.showConfig, "show-config", false, "show the active configuration")
	f.BoolVar(&opts.all, "all", false, "with --show-config, show every profile")
	f.BoolVar(&opts.remove, "remove", false, "remove the profile selected by --config-index or --provider")

	f.StringVar(&opts.apiKey, "api-key", "", "API key")
	f.StringVar(&opts.baseURL, "base-url", "", "base URL of the endpoint")
	f.StringVar(&opts.model, "model", "", "model name")
	f.BoolVar(&opts.webSearch, "web-search", false, "ask the provider to search the web")

	f.Float64Var(&opts.temperature, "temperature", 0.7, "sampling temperature")
	f.Float64Var(&opts.topP, "top_p", 1.0, "nucleus sampling mass")
	f.IntVar(&opts.maxTokens, "max_tokens", 0, "maximum tokens in the reply (0 = provider default)")
	f.StringVar(&opts.preprompt, "preprompt", "", "system prompt")

	f.BoolVar(&opts.noStream, "no-stream", false, "wait for the whole reply instead of streaming")
	f.BoolVar(&opts.prettify, "prettify", false, "render markdown (disables streaming)")
	f.StringVar(&opts.renderer, "renderer", render.RendererAuto, "markdown renderer: "+strings.Join(render.Renderers, "|"))
	f.StringVar(&opts.style, "style", "", "glamour style name (dark, light, notty, ...)")
	f.StringVar(&opts.language, "language", "python", "language for --code")

	f.StringVar(&opts.logFile, "log", "", "append the conversation to FILE")
	f.StringVar(&opts.logBackend, "log-backend", store.BackendText, "conversation log format: text|sqlite")
	f.BoolVar(&opts.debug, "debug", false, "print diagnostics")
	f.BoolVar(&opts.quiet, "quiet", false, "suppress non-error messages")

	cmd.MarkFlagsMutuallyExclusive("interactive", "shell", "code", "text", "show-config", "list-models", "remove")
	cmd.MarkFlagsMutuallyExclusive("provider", "config-index")

	cmd.SetVersionTemplate("ngpt version {{.Version}}\n")
	return cmd
}

func usageError(format string, a ...any) error {
	return fmt.Errorf("invalid usage: "+format, a...)
}
