// Package settings creates and completes the chat-top config file.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/nixlim/chat-top/internal/config"
)

type MergeResult int

const (
	MergeSuccess MergeResult = iota
	MergeAlreadyConfigured
	MergeError
)

func (r MergeResult) String() string {
	switch r {
	case MergeSuccess:
		return "success"
	case MergeAlreadyConfigured:
		return "already configured"
	default:
		return "error"
	}
}

type MergeOptions struct {
	// ConfigPath defaults to config.DefaultPath().
	ConfigPath string
}

type MergeOutput struct {
	Result   MergeResult
	Messages []string
	Warnings []string
	Err      error
}

// DefaultSections returns the built-in configuration as TOML tables keyed
// by section name.
func DefaultSections() (map[string]any, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config.DefaultConfig()); err != nil {
		return nil, fmt.Errorf("encoding defaults: %w", err)
	}
	var sections map[string]any
	if _, err := toml.Decode(buf.String(), &sections); err != nil {
		return nil, fmt.Errorf("decoding defaults: %w", err)
	}
	return sections, nil
}

// Merge reads the config file, adds every section and key that is missing
// with its default value, and writes the file back atomically (temp file +
// rename). Existing values are never changed.
//
// Behaviour:
//   - File not found: creates a new file holding the defaults.
//   - Malformed TOML: creates a .bak backup and returns an error.
//   - Permission denied: returns a clear error.
//   - Nothing missing: returns MergeAlreadyConfigured.
//   - A section that is not a table: warns and leaves it alone.
//   - A merged file that would fail validation is not written.
func Merge(opts MergeOptions) MergeOutput {
	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}

	defaults, err := DefaultSections()
	if err != nil {
		return MergeOutput{Result: MergeError, Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return createNewConfigFile(path, defaults)
		}
		if errors.Is(err, fs.ErrPermission) {
			return MergeOutput{
				Result: MergeError,
				Err:    fmt.Errorf("permission denied reading %s", path),
			}
		}
		return MergeOutput{
			Result: MergeError,
			Err:    fmt.Errorf("reading config file: %w", err),
		}
	}

	indent := detectIndent(data)

	var existing map[string]any
	if _, err := toml.Decode(string(data), &existing); err != nil {
		bakPath := path + ".bak"
		if bakErr := os.WriteFile(bakPath, data, 0644); bakErr != nil {
			return MergeOutput{
				Result:   MergeError,
				Err:      fmt.Errorf("config file contains invalid TOML and backup failed: %w", bakErr),
				Messages: []string{fmt.Sprintf("Failed to create backup at %s", bakPath)},
			}
		}
		return MergeOutput{
			Result:   MergeError,
			Err:      fmt.Errorf("config file contains invalid TOML (backup saved to %s)", bakPath),
			Messages: []string{fmt.Sprintf("Backup saved to %s", bakPath)},
		}
	}
	if existing == nil {
		existing = make(map[string]any)
	}

	var messages, warnings []string
	for _, section := range sortedKeys(defaults) {
		want, _ := defaults[section].(map[string]any)
		current, exists := existing[section]
		if !exists {
			existing[section] = want
			messages = append(messages, fmt.Sprintf("Added [%s]", section))
			continue
		}

		table, ok := current.(map[string]any)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("Warning: %s is not a table, not overwriting", section))
			continue
		}
		for _, key := range sortedKeys(want) {
			if _, ok := table[key]; ok {
				continue
			}
			table[key] = want[key]
			messages = append(messages, fmt.Sprintf("Added %s.%s", section, key))
		}
	}

	if len(messages) == 0 {
		return MergeOutput{
			Result:   MergeAlreadyConfigured,
			Messages: []string{"All config sections are already present"},
			Warnings: warnings,
		}
	}

	if err := writeConfigAtomic(path, existing, indent); err != nil {
		return MergeOutput{
			Result:   MergeError,
			Err:      fmt.Errorf("writing config file: %w", err),
			Warnings: warnings,
		}
	}

	return MergeOutput{
		Result:   MergeSuccess,
		Messages: messages,
		Warnings: warnings,
	}
}

// createNewConfigFile writes the defaults to a new file at path.
func createNewConfigFile(path string, defaults map[string]any) MergeOutput {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return MergeOutput{
				Result: MergeError,
				Err:    fmt.Errorf("permission denied creating directory %s", dir),
			}
		}
		return MergeOutput{
			Result: MergeError,
			Err:    fmt.Errorf("creating directory %s: %w", dir, err),
		}
	}

	if err := writeConfigAtomic(path, defaults, ""); err != nil {
		return MergeOutput{
			Result: MergeError,
			Err:    fmt.Errorf("creating config file: %w", err),
		}
	}

	return MergeOutput{
		Result:   MergeSuccess,
		Messages: []string{fmt.Sprintf("Created %s with default settings", path)},
	}
}

// writeConfigAtomic encodes the tables, checks that the result loads, and
// replaces path via a temp file + rename.
func writeConfigAtomic(path string, tables map[string]any, indent string) error {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = indent
	if err := enc.Encode(tables); err != nil {
		return fmt.Errorf("encoding TOML: %w", err)
	}
	if _, err := config.LoadFromString(buf.String()); err != nil {
		return fmt.Errorf("merged config is invalid: %w", err)
	}

	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".config-*.toml.tmp")
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("permission denied writing to %s", dir)
		}
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(buf.Bytes()); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	mode := fs.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode()
	}
	_ = os.Chmod(tmpPath, mode)

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", path, err)
	}
	tmpPath = ""
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
