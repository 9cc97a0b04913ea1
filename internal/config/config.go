package config

import (
	"os"

	"github.com/joho/godotenv"
)

const (
	EnvAPIKey   = "OPENAI_API_KEY"
	EnvBaseURL  = "OPENAI_BASE_URL"
	EnvProvider = "OPENAI_PROVIDER"
	EnvModel    = "OPENAI_MODEL"
)

// LoadDotEnv loads a .env file from the working directory if one exists.
// Variables already present in the environment are left untouched.
func LoadDotEnv(paths ...string) {
	_ = godotenv.Load(paths...)
}

// FromEnv collects overrides from the environment. Empty values count as
// absent. lookup defaults to os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) Overrides {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key string) *string {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		return &v
	}
	return Overrides{
		APIKey:   get(EnvAPIKey),
		BaseURL:  get(EnvBaseURL),
		Provider: get(EnvProvider),
		Model:    get(EnvModel),
	}
}
