package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// supportedExtensions lists the file types the parser accepts. Layout-heavy
// formats (PDF scans, images) are out of scope; the parser consumes text
// that is already extractable.
var supportedExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
	".text":     true,
}

// ParseFile reads a document file and returns its text content.
// Returns an error for unsupported or unreadable files.
func ParseFile(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExtensions[ext] {
		return "", fmt.Errorf("unsupported document type %q (supported: .md, .txt)", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading document: %w", err)
	}

	return string(data), nil
}

// classifyContent flags the kinds of content present in a chunk of
// markdown/plain text.
func classifyContent(text string) []string {
	types := []string{"text"}

	if strings.Contains(text, "```") {
		types = append(types, "code")
	}

	// Pipe-delimited rows are how markdown encodes tables.
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|") {
			types = append(types, "table")
			break
		}
	}

	return types
}
