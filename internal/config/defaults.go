package config

const (
	DefaultBaseURL  = "https://api.openai.com/v1/"
	DefaultProvider = "OpenAI"
	DefaultModel    = "gpt-3.5-turbo"
)

func DefaultProfile() Profile {
	return Profile{
		APIKey:   "",
		BaseURL:  DefaultBaseURL,
		Provider: DefaultProvider,
		Model:    DefaultModel,
	}
}

// DefaultProfiles is the list used when no config file exists.
func DefaultProfiles() []Profile {
	return []Profile{DefaultProfile()}
}
