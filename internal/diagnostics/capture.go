// Package diagnostics writes drift artifacts (page dump + screenshot)
// for offline inspection. Purely observational: nothing here is read
// back by the pipeline.
package diagnostics

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Capture writes the page HTML and screenshot under dir, named
// <tag>-<timestamp>.html / .png. The timestamp is ISO-8601 derived with
// colons and dots replaced so the names stay filesystem-safe. Empty
// inputs are skipped rather than written as empty files.
func Capture(dir, tag, html string, screenshot []byte) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create diagnostics dir: %w", err)
	}

	stamp := safeTimestamp(time.Now().UTC())
	base := filepath.Join(dir, fmt.Sprintf("%s-%s", tag, stamp))

	var paths []string
	if html != "" {
		p := base + ".html"
		if err := os.WriteFile(p, []byte(html), 0o644); err != nil {
			return paths, fmt.Errorf("write page dump: %w", err)
		}
		paths = append(paths, p)
	}
	if len(screenshot) > 0 {
		p := base + ".png"
		if err := os.WriteFile(p, screenshot, 0o644); err != nil {
			return paths, fmt.Errorf("write screenshot: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func safeTimestamp(t time.Time) string {
	s := t.Format(time.RFC3339)
	s = strings.ReplaceAll(s, ":", "-")
	return strings.ReplaceAll(s, ".", "-")
}
