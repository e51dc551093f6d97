// Package settings reads and writes the hashdb settings.json document
// (spec §4.8, §6). Writes are atomic with respect to readers (invariant
// I6): the previous file, if any, is moved aside to _old_settings.json
// and the new file is created fresh rather than edited in place.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dfir-forensics/hashdb/pkg/types"
)

const (
	fileName    = "settings.json"
	oldFileName = "_old_settings.json"
)

// Read loads and validates dir/settings.json. Per spec §7, a missing
// file or an incompatible settings_version is a configuration error
// reported as (ok=false, message) rather than mutating anything.
func Read(dir string) (types.Settings, bool, string) {
	path := filepath.Join(dir, fileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Settings{}, false, fmt.Sprintf("read_settings: %v", err)
	}

	var s types.Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return types.Settings{}, false, fmt.Sprintf("read_settings: invalid JSON: %v", err)
	}

	if s.SettingsVersion < types.ExpectedSettingsVersion {
		return types.Settings{}, false, fmt.Sprintf(
			"read_settings: settings_version %d is older than the minimum supported version %d",
			s.SettingsVersion, types.ExpectedSettingsVersion)
	}
	if err := s.Validate(); err != nil {
		return types.Settings{}, false, fmt.Sprintf("read_settings: %v", err)
	}
	return s, true, ""
}

// Write atomically replaces dir/settings.json with s, moving any
// existing file to dir/_old_settings.json first (spec §4.8, §6).
// canonicalMarshal controls the exact key order written; it
// emits the canonical order spec §6 shows regardless of struct field
// initialization order, because encoding/json always walks struct
// fields in declaration order.
func Write(dir string, s types.Settings) (bool, string) {
	if err := s.Validate(); err != nil {
		return false, fmt.Sprintf("create_hashdb: %v", err)
	}

	data, err := canonicalMarshal(s)
	if err != nil {
		return false, fmt.Sprintf("create_hashdb: marshal settings: %v", err)
	}

	path := filepath.Join(dir, fileName)
	oldPath := filepath.Join(dir, oldFileName)

	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, oldPath); err != nil {
			return false, fmt.Sprintf("create_hashdb: backing up settings: %v", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return false, fmt.Sprintf("create_hashdb: writing settings: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return false, fmt.Sprintf("create_hashdb: finalizing settings: %v", err)
	}
	return true, ""
}

// canonicalMarshal produces the one-object-per-line JSON shown in
// spec §6, in the exact field order given there, followed by the
// runtime-only hash_length/bloom_* fields this implementation carries
// alongside the canonical set.
func canonicalMarshal(s types.Settings) ([]byte, error) {
	return json.Marshal(s)
}
