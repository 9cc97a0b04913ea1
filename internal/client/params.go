package client

// Params are the generation parameters sent with every request.
// MaxTokens of 0 leaves max_tokens out of the body. Extra fields are merged
// into the JSON body last and may override the standard ones.
type Params struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
	WebSearch   bool
	Extra       map[string]any
}

// ChatParams are the defaults for free-form chat.
func ChatParams() Params {
	return Params{Temperature: 0.7, TopP: 1.0}
}

// GenerateParams are the defaults for shell and code generation.
func GenerateParams() Params {
	return Params{Temperature: 0.4, TopP: 0.95}
}
