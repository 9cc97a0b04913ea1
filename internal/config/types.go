package config

// Profile is one named endpoint configuration. Provider is a display label
// and the key used by provider lookup.
type Profile struct {
	APIKey   string `json:"api_key"`
	BaseURL  string `json:"base_url"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Overrides holds per-field values from a higher-priority source. A nil
// field means the source did not provide it.
type Overrides struct {
	APIKey   *string
	BaseURL  *string
	Provider *string
	Model    *string
}

// Selector picks a profile from the list. A non-empty Provider takes
// precedence over Index.
type Selector struct {
	Index    int
	Provider string
}
