package pipeline

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/use-agent/docket/models"
)

// PageSource supplies persisted detail pages. The pipeline never touches the
// live portal for extraction — pages were saved by the acquisition session
// and processing must be repeatable against them.
type PageSource interface {
	List() ([]string, error)
	Load(entityID string) (string, error)
}

// DirSource reads pages from a directory of <entityID>.html files.
type DirSource struct {
	dir string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// List returns all entity IDs with a persisted page, sorted so runs are
// reproducible regardless of filesystem order.
func (s *DirSource) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodeInvalidInput,
			"failed to read page directory "+s.dir, err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".html") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".html"))
	}
	sort.Strings(ids)
	return ids, nil
}

// Load returns the raw HTML of one entity's persisted page.
func (s *DirSource) Load(entityID string) (string, error) {
	body, err := os.ReadFile(filepath.Join(s.dir, entityID+".html"))
	if err != nil {
		return "", models.NewPipelineError(models.ErrCodeNotFound,
			"no persisted page for entity "+entityID, err)
	}
	return string(body), nil
}
