package capture

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/use-agent/docket/models"
)

// Store persists captured artifact bytes under <dir>/<entityID>/, one or two
// files per field. HTML captures optionally get a Markdown sibling so the
// content stays reviewable after the portal rots.
type Store struct {
	dir          string
	conv         *converter.Converter
	saveMarkdown bool
}

func NewStore(dir string, saveMarkdown bool) *Store {
	// base strips script/style/head noise, commonmark renders standard
	// Markdown, and the table plugin keeps the portal's tabular layouts
	// legible with minimal cell padding.
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
	return &Store{dir: dir, conv: conv, saveMarkdown: saveMarkdown}
}

// Persist writes the artifact body and returns the relative file paths plus
// the classified artifact type. The payload is written verbatim; Markdown is
// always an extra file, never a replacement. sourceURL anchors relative links
// in the Markdown rendering.
func (s *Store) Persist(entityID, fieldKey string, body []byte, contentType, sourceURL string) (files []string, artifactType string, err error) {
	entityDir := filepath.Join(s.dir, entityID)
	if err := os.MkdirAll(entityDir, 0o755); err != nil {
		return nil, "", models.NewPipelineError(models.ErrCodeInternal,
			"failed to create artifact directory", err)
	}

	artifactType, ext := classifyContent(contentType, body)
	stem := fileStem(fieldKey)

	mainPath := filepath.Join(entityDir, stem+ext)
	if err := os.WriteFile(mainPath, body, 0o644); err != nil {
		return nil, "", models.NewPipelineError(models.ErrCodeInternal,
			"failed to write artifact file", err)
	}
	files = append(files, filepath.Join(entityID, stem+ext))

	if artifactType == "html" && s.saveMarkdown {
		md, cerr := s.conv.ConvertString(string(body), converter.WithDomain(sourceURL))
		if cerr != nil {
			return files, artifactType, models.NewPipelineError(models.ErrCodeInternal,
				"markdown conversion failed", cerr)
		}
		mdPath := filepath.Join(entityDir, stem+".md")
		if err := os.WriteFile(mdPath, []byte(md), 0o644); err != nil {
			return files, artifactType, models.NewPipelineError(models.ErrCodeInternal,
				"failed to write markdown file", err)
		}
		files = append(files, filepath.Join(entityID, stem+".md"))
	}

	return files, artifactType, nil
}

// classifyContent maps a Content-Type header (with a sniffing fallback) to
// the artifact type and file extension.
func classifyContent(contentType string, body []byte) (artifactType, ext string) {
	ct := strings.ToLower(contentType)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}

	switch {
	case strings.Contains(ct, "pdf"):
		return "pdf", ".pdf"
	case ct == "image/png":
		return "image", ".png"
	case ct == "image/jpeg" || ct == "image/jpg":
		return "image", ".jpg"
	case ct == "image/gif":
		return "image", ".gif"
	case ct == "image/webp":
		return "image", ".webp"
	case strings.Contains(ct, "html"):
		return "html", ".html"
	case len(body) >= 5 && string(body[:5]) == "%PDF-":
		return "pdf", ".pdf"
	default:
		return "binary", ".bin"
	}
}

// fileStem flattens a field key into a safe file name. Keys carry dots for
// the section/key join and may carry slugs; only the dot needs replacing.
func fileStem(fieldKey string) string {
	stem := strings.ReplaceAll(fieldKey, ".", "_")
	stem = strings.ReplaceAll(stem, string(filepath.Separator), "_")
	if stem == "" {
		stem = "artifact"
	}
	return stem
}
