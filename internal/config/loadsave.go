package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/earlysvahn/ngpt/internal/utils"
)

// LoadProfiles reads the profile list at path. A missing file yields the
// default list with missing=true. A legacy file holding a single object is
// read as a one-element list.
func LoadProfiles(path string) (profiles []Profile, missing bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultProfiles(), true, nil
		}
		return nil, false, fmt.Errorf("read config %s: %w", path, err)
	}

	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 {
		return DefaultProfiles(), false, nil
	}

	if trimmed[0] == '{' {
		var single Profile
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return nil, false, fmt.Errorf("parse config %s: %w", path, err)
		}
		return []Profile{single}, false, nil
	}

	if err := json.Unmarshal(trimmed, &profiles); err != nil {
		return nil, false, fmt.Errorf("parse config %s: %w", path, err)
	}
	if len(profiles) == 0 {
		return DefaultProfiles(), false, nil
	}
	return profiles, false, nil
}

// SaveProfiles writes the list as indented JSON via a temp file and rename.
func SaveProfiles(path string, profiles []Profile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if profiles == nil {
		profiles = []Profile{}
	}
	if err := utils.WriteJSONAtomic(path, profiles, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// EnsureFile creates the default config file when none exists. It reports
// whether a file was created.
func EnsureFile(path string) (bool, error) {
	if utils.Exists(path) {
		return false, nil
	}
	if err := SaveProfiles(path, DefaultProfiles()); err != nil {
		return false, err
	}
	return true, nil
}

// UpsertProfile replaces the profile at index when it is in range and
// appends otherwise. It returns the updated list and the index written.
func UpsertProfile(profiles []Profile, index int, p Profile) ([]Profile, int) {
	out := append([]Profile(nil), profiles...)
	if index >= 0 && index < len(out) {
		out[index] = p
		return out, index
	}
	out = append(out, p)
	return out, len(out) - 1
}

// RemoveProfile deletes the profile at index. The last remaining profile
// cannot be removed.
func RemoveProfile(profiles []Profile, index int) ([]Profile, error) {
	if index < 0 || index >= len(profiles) {
		return nil, fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, len(profiles))
	}
	if len(profiles) == 1 {
		return nil, ErrLastProfile
	}
	out := make([]Profile, 0, len(profiles)-1)
	out = append(out, profiles[:index]...)
	return append(out, profiles[index+1:]...), nil
}
