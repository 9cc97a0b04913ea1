package commands

import (
	"github.com/spf13/pflag"

	"github.com/earlysvahn/ngpt/internal/client"
	"github.com/earlysvahn/ngpt/internal/config"
	"github.com/earlysvahn/ngpt/internal/render"
	"github.com/earlysvahn/ngpt/internal/store"
)

// configEdit is the value --config takes when given without a path.
const configEdit = "interactive"

type mode int

const (
	modeChat mode = iota
	modeInteractive
	modeShell
	modeCode
	modeText
	modeShowConfig
	modeEditConfig
	modeRemoveConfig
	modeListModels
)

type options struct {
	interactive bool
	shell       bool
	code        bool
	text        bool
	listModels  bool

	configPath  string
	configIndex int
	provider    string
	showConfig  bool
	all         bool
	remove      bool

	apiKey    string
	baseURL   string
	model     string
	webSearch bool

	temperature float64
	topP        float64
	maxTokens   int
	preprompt   string

	noStream bool
	prettify bool
	renderer string
	style    string
	language string

	logFile    string
	logBackend string
	debug      bool
	quiet      bool
}

func (o *options) mode() mode {
	switch {
	case o.interactive:
		return modeInteractive
	case o.shell:
		return modeShell
	case o.code:
		return modeCode
	case o.text:
		return modeText
	case o.showConfig:
		return modeShowConfig
	case o.listModels:
		return modeListModels
	case o.remove:
		return modeRemoveConfig
	case o.configPath == configEdit:
		return modeEditConfig
	}
	return modeChat
}

// customConfigPath returns the --config path, or "" for the default file.
func (o *options) customConfigPath() string {
	if o.configPath == configEdit {
		return ""
	}
	return o.configPath
}

// takeConfigPath reads "--config PATH" like "--config=PATH": when --config
// was given without an attached value, the first argument is the path.
func (o *options) takeConfigPath(args []string) []string {
	if o.configPath != configEdit || len(args) == 0 {
		return args
	}
	o.configPath = args[0]
	return args[1:]
}

// validate checks flag combinations cobra cannot express.
func (o *options) validate(fs *pflag.FlagSet) error {
	if o.all && !o.showConfig {
		return usageError("--all can only be used with --show-config")
	}
	if o.remove && !fs.Changed("config-index") && o.provider == "" {
		return usageError("--remove requires --config-index or --provider")
	}
	if o.configPath == configEdit {
		for _, name := range []string{"interactive", "shell", "code", "text", "show-config", "list-models", "remove"} {
			if fs.Changed(name) {
				return usageError("--config without a path cannot be combined with --%s", name)
			}
		}
	}
	if o.configIndex < 0 {
		return usageError("--config-index must not be negative")
	}
	if o.maxTokens < 0 {
		return usageError("--max_tokens must not be negative")
	}
	if !validRenderer(o.renderer) {
		return usageError("unknown renderer %q", o.renderer)
	}
	if o.logBackend != store.BackendText && o.logBackend != store.BackendSQLite {
		return usageError("unknown log backend %q", o.logBackend)
	}
	return nil
}

func validRenderer(name string) bool {
	for _, r := range render.Renderers {
		if r == name {
			return true
		}
	}
	return false
}

// overrides returns the endpoint flags the user actually set.
func (o *options) overrides(fs *pflag.FlagSet) config.Overrides {
	var ov config.Overrides
	if fs.Changed("api-key") {
		ov.APIKey = &o.apiKey
	}
	if fs.Changed("base-url") {
		ov.BaseURL = &o.baseURL
	}
	if fs.Changed("model") {
		ov.Model = &o.model
	}
	return ov
}

// params applies the generation flags the user set on top of base.
func (o *options) params(fs *pflag.FlagSet, base client.Params) client.Params {
	if fs.Changed("temperature") {
		base.Temperature = o.temperature
	}
	if fs.Changed("top_p") {
		base.TopP = o.topP
	}
	if fs.Changed("max_tokens") {
		base.MaxTokens = o.maxTokens
	}
	base.WebSearch = o.webSearch
	return base
}

// streaming reports whether chat replies are printed as they arrive.
func (o *options) streaming() bool {
	return !o.noStream && !o.prettify
}

// needsClient reports whether the mode talks to the endpoint.
func (m mode) needsClient() bool {
	switch m {
	case modeShowConfig, modeEditConfig, modeRemoveConfig:
		return false
	}
	return true
}

func (m mode) String() string {
	names := [...]string{"chat", "interactive", "shell", "code", "text", "show-config", "config", "remove", "list-models"}
	if int(m) < len(names) {
		return names[m]
	}
	return "unknown"
}
