// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/extract-engine/pkg/types"
)

// extractionFile is the YAML shape of a stored pass result.
type extractionFile struct {
	Extractions []struct {
		Class      string            `yaml:"class"`
		Text       string            `yaml:"text"`
		Attributes map[string]string `yaml:"attributes"`
	} `yaml:"extractions"`
}

// FileGenerator serves pass results from a directory of YAML files, one per
// (document, pass) at <dir>/<docID>-<passName>.yaml. Used to re-run the
// enhancement stages over previously captured extraction output without
// touching a model backend.
type FileGenerator struct {
	dir string
}

// NewFileGenerator builds a generator over dir. The directory must exist.
func NewFileGenerator(dir string) (*FileGenerator, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("extraction dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("extraction dir %s is not a directory", dir)
	}
	return &FileGenerator{dir: dir}, nil
}

// Generate reads the stored pass file. A missing or malformed file is a
// permanent failure: retrying cannot make it appear or parse.
func (g *FileGenerator) Generate(_ context.Context, doc types.Document, pass types.PassSpec) ([]*types.Extraction, error) {
	path := filepath.Join(g.dir, fmt.Sprintf("%s-%s.yaml", doc.ID, pass.Name))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.Permanent(fmt.Errorf("read pass file: %w", err))
	}

	var file extractionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, types.Permanent(fmt.Errorf("parse %s: %w", path, err))
	}

	extractions := make([]*types.Extraction, 0, len(file.Extractions))
	for _, e := range file.Extractions {
		extractions = append(extractions, &types.Extraction{
			Class:      e.Class,
			Text:       e.Text,
			Attributes: e.Attributes,
		})
	}
	return extractions, nil
}
