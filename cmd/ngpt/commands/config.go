package commands

import (
	"fmt"
	"io"

	"github.com/earlysvahn/ngpt/internal/config"
)

func (a *app) showConfig() error {
	writeConfigSummary(a.out, a.configPath, a.profiles, a.selection.Index, a.profile, a.opts.all)
	return nil
}

// writeConfigSummary prints the config location and profiles. active is the
// resolved profile, which may differ from the stored one through env or flags.
func writeConfigSummary(w io.Writer, path string, profiles []config.Profile, index int, active config.Profile, all bool) {
	fmt.Fprintf(w, "Configuration file: %s\n", path)
	fmt.Fprintf(w, "Total configurations: %d\n", len(profiles))
	fmt.Fprintf(w, "Active configuration index: %d\n", index)

	if all {
		fmt.Fprintln(w, "\nAll configurations:")
		for i, p := range profiles {
			marker := ""
			if i == index {
				marker = " (Active)"
			}
			fmt.Fprintf(w, "\nConfiguration %d%s:\n", i, marker)
			writeProfile(w, p)
		}
		return
	}

	fmt.Fprintln(w, "\nActive configuration:")
	writeProfile(w, active)

	if len(profiles) > 1 {
		fmt.Fprintln(w, "\nAvailable configurations:")
		for i, p := range profiles {
			marker := ""
			if i == index {
				marker = " (Active)"
			}
			fmt.Fprintf(w, "  [%d] %s (%s)%s\n", i, p.Provider, p.Model, marker)
		}
	}
}

func writeProfile(w io.Writer, p config.Profile) {
	key := "[Not Set]"
	if p.APIKey != "" {
		key = "[Set]"
	}
	fmt.Fprintf(w, "  API Key: %s\n", key)
	fmt.Fprintf(w, "  Base URL: %s\n", p.BaseURL)
	fmt.Fprintf(w, "  Provider: %s\n", p.Provider)
	fmt.Fprintf(w, "  Model: %s\n", p.Model)
}

// editConfig asks for each field of the profile at --config-index and saves
// it, appending a new profile when the index is past the end.
func (a *app) editConfig() error {
	index := a.opts.configIndex
	current := config.DefaultProfile()
	if index < len(a.profiles) {
		current = a.profiles[index]
		fmt.Fprintf(a.errOut, "Editing configuration at index %d\n", index)
	} else {
		fmt.Fprintf(a.errOut, "Adding a new configuration (index %d)\n", len(a.profiles))
	}
	fmt.Fprintln(a.errOut, "Press Enter to keep the value in brackets.")

	p, err := a.askProfile(current)
	if err != nil {
		return err
	}

	profiles, written := config.UpsertProfile(a.profiles, index, p)
	if err := config.SaveProfiles(a.configPath, profiles); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	a.logf(fmt.Sprintf("configuration saved at index %d in %s", written, a.configPath))
	return nil
}

func (a *app) askProfile(current config.Profile) (config.Profile, error) {
	keyLabel := "API key [not set]: "
	if current.APIKey != "" {
		keyLabel = "API key [keep current]: "
	}
	apiKey, err := a.ask.AskDefault(keyLabel, current.APIKey)
	if err != nil {
		return config.Profile{}, err
	}
	baseURL, err := a.ask.AskDefault(fmt.Sprintf("Base URL [%s]: ", current.BaseURL), current.BaseURL)
	if err != nil {
		return config.Profile{}, err
	}
	provider, err := a.ask.AskDefault(fmt.Sprintf("Provider [%s]: ", current.Provider), current.Provider)
	if err != nil {
		return config.Profile{}, err
	}
	model, err := a.ask.AskDefault(fmt.Sprintf("Model [%s]: ", current.Model), current.Model)
	if err != nil {
		return config.Profile{}, err
	}
	return config.Profile{APIKey: apiKey, BaseURL: baseURL, Provider: provider, Model: model}, nil
}

// removeConfig deletes the selected profile after confirmation. Unlike
// normal selection an out of range index is an error here.
func (a *app) removeConfig() error {
	index := a.opts.configIndex
	if a.opts.provider != "" {
		index = a.selection.Index
	}
	if index >= len(a.profiles) {
		return fmt.Errorf("%w: %d (have %d)", config.ErrIndexOutOfRange, index, len(a.profiles))
	}

	fmt.Fprintf(a.errOut, "Configuration %d:\n", index)
	writeProfile(a.errOut, a.profiles[index])
	ok, err := a.ask.Confirm("Remove this configuration?")
	if err != nil {
		return err
	}
	if !ok {
		a.logf("configuration not removed")
		return nil
	}

	profiles, err := config.RemoveProfile(a.profiles, index)
	if err != nil {
		return err
	}
	if err := config.SaveProfiles(a.configPath, profiles); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	a.logf(fmt.Sprintf("removed configuration %d from %s", index, a.configPath))
	return nil
}
