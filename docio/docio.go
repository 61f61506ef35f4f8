// Package docio moves manuscript text in and out of files. Imports accept
// markdown, plain text, DOCX and PDF; exports produce markdown with a metadata
// header. All IO goes through afs, so sources and destinations may be local
// paths or any supported storage URL.
package docio

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/viant/afs"
	_ "github.com/viant/afsc/gs" // gs:// locations
	_ "github.com/viant/afsc/s3" // s3:// locations

	"github.com/redlinehq/redline/schema"
)

// Service reads and writes manuscript files.
type Service struct {
	fs afs.Service
}

// New constructs a Service backed by the default afs service.
func New() *Service {
	return &Service{fs: afs.New()}
}

// Load downloads a file and extracts its text by extension. Unknown
// extensions are treated as plain text.
func (s *Service) Load(ctx context.Context, location string) (string, error) {
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", location, err)
	}
	switch strings.ToLower(path.Ext(location)) {
	case ".docx":
		text := extractDOCXText(data)
		if len(text) == 0 {
			return "", fmt.Errorf("no text extracted from %s", location)
		}
		return normalizeText(string(text)), nil
	case ".pdf":
		text := extractPDFText(data)
		if len(text) == 0 {
			return "", fmt.Errorf("no text extracted from %s", location)
		}
		return normalizeText(string(text)), nil
	default:
		return normalizeText(string(data)), nil
	}
}

// Export renders the version and uploads it to destination. Markdown with a
// metadata header by default; a .txt destination gets the bare content. When
// destination is empty a filename derived from the title is used.
func (s *Service) Export(ctx context.Context, m *schema.Manuscript, v *schema.Version, destination string) (string, error) {
	if destination == "" {
		destination = Filename(m.Title)
	}
	var data []byte
	if strings.EqualFold(path.Ext(destination), ".txt") {
		data = []byte(v.Content)
	} else {
		data = []byte(Markdown(m, v))
	}
	if err := s.fs.Upload(ctx, destination, 0o644, strings.NewReader(string(data))); err != nil {
		return "", fmt.Errorf("upload %s: %w", destination, err)
	}
	return destination, nil
}

// normalizeText unifies line endings and trims trailing whitespace per line.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}
