package config

import (
	"fmt"
	"strings"
)

// Resolve merges sources per field: flags > env > file > defaults.
// Empty strings in the file profile fall through to the defaults.
func Resolve(file Profile, env, flags Overrides) Profile {
	cfg := DefaultProfile()

	if file.APIKey != "" {
		cfg.APIKey = file.APIKey
	}
	if file.BaseURL != "" {
		cfg.BaseURL = file.BaseURL
	}
	if file.Provider != "" {
		cfg.Provider = file.Provider
	}
	if file.Model != "" {
		cfg.Model = file.Model
	}

	env.apply(&cfg)
	flags.apply(&cfg)
	return cfg
}

func (o Overrides) apply(p *Profile) {
	if o.APIKey != nil {
		p.APIKey = *o.APIKey
	}
	if o.BaseURL != nil {
		p.BaseURL = *o.BaseURL
	}
	if o.Provider != nil {
		p.Provider = *o.Provider
	}
	if o.Model != nil {
		p.Model = *o.Model
	}
}

// Selection is the outcome of Select. Warning is set when the requested
// index was out of range and index 0 was used instead.
type Selection struct {
	Profile Profile
	Index   int
	Warning string
}

// Select picks a profile by provider name (case-insensitive, must be
// unique) or, when no provider is given, by index.
func Select(profiles []Profile, sel Selector) (Selection, error) {
	if len(profiles) == 0 {
		profiles = DefaultProfiles()
	}

	if name := strings.TrimSpace(sel.Provider); name != "" {
		idx, err := FindProvider(profiles, name)
		if err != nil {
			return Selection{}, err
		}
		return Selection{Profile: profiles[idx], Index: idx}, nil
	}

	if sel.Index < 0 || sel.Index >= len(profiles) {
		return Selection{
			Profile: profiles[0],
			Index:   0,
			Warning: fmt.Sprintf("config index %d is out of range (have %d), using index 0", sel.Index, len(profiles)),
		}, nil
	}
	return Selection{Profile: profiles[sel.Index], Index: sel.Index}, nil
}

// FindProvider returns the index of the only profile whose provider
// matches name.
func FindProvider(profiles []Profile, name string) (int, error) {
	name = strings.TrimSpace(name)
	var matches []int
	for i, p := range profiles {
		if strings.EqualFold(strings.TrimSpace(p.Provider), name) {
			matches = append(matches, i)
		}
	}
	switch len(matches) {
	case 0:
		return -1, fmt.Errorf("%w: %q", ErrProviderNotFound, name)
	case 1:
		return matches[0], nil
	default:
		return -1, fmt.Errorf("%w: %q matches indices %v, use --config-index", ErrProviderAmbiguous, name, matches)
	}
}
