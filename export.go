package mocache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// ExportFormat represents the JSON structure for cache export/import.
type ExportFormat struct {
	Version    string            `json:"version"`
	ExportedAt string            `json:"exported_at"`
	Entries    []ExportEntry     `json:"entries"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ExportEntry is one cached catalog and the domain it is indexed under.
type ExportEntry struct {
	Domain  string   `json:"domain"`
	Key     string   `json:"key"`
	Catalog *Catalog `json:"catalog"`
}

// Exporter dumps every indexed catalog of a session.
type Exporter struct {
	session *Session
}

// NewExporter creates a new cache exporter.
func NewExporter(s *Session) *Exporter {
	return &Exporter{session: s}
}

// Export writes the indexed catalogs to w in JSON format. Fingerprints the
// store no longer holds are skipped. It returns the number of catalogs written.
func (e *Exporter) Export(ctx context.Context, w io.Writer, metadata map[string]string) (int, error) {
	s := e.session

	export := ExportFormat{
		Version:    CacheFormatVersion,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Entries:    []ExportEntry{},
		Metadata:   metadata,
	}

	for _, domain := range s.index.Domains(ctx) {
		for _, key := range s.index.Keys(ctx, domain) {
			cat, ok := s.get(ctx, domain, key)
			if !ok {
				continue
			}
			export.Entries = append(export.Entries, ExportEntry{Domain: domain, Key: key, Catalog: cat})
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(export); err != nil {
		return 0, fmt.Errorf("encoding JSON: %w", err)
	}

	return len(export.Entries), nil
}

// createExportFile opens the destination of ExportToFile.
var createExportFile = func(path string) (io.WriteCloser, error) {
	return os.Create(path) // #nosec G304 - path is intentionally user-provided
}

// ExportToFile exports the cache to a file.
func (e *Exporter) ExportToFile(ctx context.Context, path string, metadata map[string]string) (n int, err error) {
	f, err := createExportFile(path)
	if err != nil {
		return 0, fmt.Errorf("creating file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing file: %w", cerr)
		}
	}()

	return e.Export(ctx, f, metadata)
}

// Importer loads exported catalogs back into the store and the index.
type Importer struct {
	session *Session
}

// NewImporter creates a new cache importer.
func NewImporter(s *Session) *Importer {
	return &Importer{session: s}
}

// ImportResult contains statistics about the import operation.
type ImportResult struct {
	Version  string
	Metadata map[string]string
	Imported int
	Failed   int
}

// Import reads an export from r. Exports written with another cache format
// version are rejected since none of their fingerprints would be looked up.
func (i *Importer) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	var export ExportFormat
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("decoding JSON: %w", err)
	}

	if export.Version != CacheFormatVersion {
		return nil, fmt.Errorf("export format %q does not match cache format %q", export.Version, CacheFormatVersion)
	}

	result := &ImportResult{
		Version:  export.Version,
		Metadata: export.Metadata,
	}

	for _, entry := range export.Entries {
		if entry.Key == "" || entry.Catalog == nil || !i.session.put(ctx, entry.Domain, "", entry.Key, entry.Catalog) {
			result.Failed++
			continue
		}
		result.Imported++
	}

	return result, nil
}

// ImportFromFile imports catalogs from a file.
func (i *Importer) ImportFromFile(ctx context.Context, path string) (*ImportResult, error) {
	f, err := os.Open(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return i.Import(ctx, f)
}
