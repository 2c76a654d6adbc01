package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SetKeyInFile updates or adds a global option in the config file, keeping
// comments, sections and the order of other lines. An existing global line
// for key is replaced in place; otherwise the key is inserted before the
// first section header, or appended when there are no sections.
func SetKeyInFile(path, key, value string) error {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config file: %w", err)
	}

	var lines []string
	if len(data) > 0 {
		lines = strings.Split(string(data), "\n")
	}

	newLine := key
	if value != "" {
		newLine = key + " " + value
	}

	insertAt := -1
	replaced := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			insertAt = i
			break
		}
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if name, _, _ := strings.Cut(trimmed, " "); name == key {
			lines[i] = newLine
			replaced = true
			break
		}
	}

	switch {
	case replaced:
	case insertAt >= 0:
		lines = append(lines[:insertAt], append([]string{newLine}, lines[insertAt:]...)...)
	case len(lines) > 0 && lines[len(lines)-1] == "":
		lines = append(lines[:len(lines)-1], newLine, "")
	default:
		lines = append(lines, newLine, "")
	}

	return atomicWriteFile(path, []byte(strings.Join(lines, "\n")), 0o644)
}

// atomicWriteFile writes data to a temporary file in the target directory
// and renames it over filename.
func atomicWriteFile(filename string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-config-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return fmt.Errorf("replacing %s: %w", filename, err)
	}
	return nil
}
