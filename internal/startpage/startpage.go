package startpage

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Placeholder tokens substituted by Build. The host token appears once in the
// shipped template; the base URL token may appear many times.
const (
	HostToken    = "{{EXT_SERVER_HOST_NAME}}"
	BaseURLToken = "{{BASE_URL}}"
)

//go:embed start.html
var defaultTemplate string

// DefaultTemplate returns the start document template shipped with the shell.
func DefaultTemplate() string {
	return defaultTemplate
}

// Build substitutes every occurrence of the host and base URL tokens in doc
// and returns the result otherwise unchanged. It is deterministic and
// side-effect free; persisting the output is the caller's responsibility.
func Build(doc, hostName, baseURL string) string {
	out := strings.ReplaceAll(doc, HostToken, hostName)
	return strings.ReplaceAll(out, BaseURLToken, baseURL)
}

// Write persists content at path atomically: readers observe either the
// previous document or the complete new one, never a partial write.
func Write(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create start document directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".start-*.html")
	if err != nil {
		return fmt.Errorf("create temp start document: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write start document: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sync start document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp start document: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("publish start document: %w", err)
	}
	return nil
}
