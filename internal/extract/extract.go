// Package extract pulls plain text out of the document formats the ingestion
// pipeline understands. Extractors are keyed by lowercased file extension;
// anything else is skipped by the caller.
package extract

import (
	"path/filepath"
	"strings"

	"studyrag/internal/domain"
)

// Registry maps lowercased file extensions to extractors.
type Registry map[string]domain.Extractor

// Default returns the registry for the supported formats.
func Default() Registry {
	return Registry{
		".pdf":  PDF{},
		".docx": Docx{},
		".pptx": Pptx{},
	}
}

// For returns the extractor for the file's extension, if one is registered.
func (r Registry) For(path string) (domain.Extractor, bool) {
	ex, ok := r[strings.ToLower(filepath.Ext(path))]
	return ex, ok
}
