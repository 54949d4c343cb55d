// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/extract-engine/pkg/types"
)

func TestFileGenerator(t *testing.T) {
	dir := t.TempDir()
	content := `extractions:
  - class: person
    text: John Smith
    attributes:
      role: founder
  - class: organization
    text: TechCorp
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc_0-entities.yaml"), []byte(content), 0o644))

	gen, err := NewFileGenerator(dir)
	require.NoError(t, err)

	extractions, err := gen.Generate(context.Background(),
		types.Document{ID: "doc_0"}, types.PassSpec{Name: "entities"})
	require.NoError(t, err)

	require.Len(t, extractions, 2)
	assert.Equal(t, types.ClassPerson, extractions[0].Class)
	assert.Equal(t, "John Smith", extractions[0].Text)
	assert.Equal(t, "founder", extractions[0].Attributes["role"])
	assert.Equal(t, "TechCorp", extractions[1].Text)
}

func TestFileGeneratorMissingFilePermanent(t *testing.T) {
	gen, err := NewFileGenerator(t.TempDir())
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(),
		types.Document{ID: "absent"}, types.PassSpec{Name: "entities"})
	require.Error(t, err)
	assert.False(t, types.IsTransient(err), "missing file should not be retried")
}

func TestFileGeneratorParseErrorPermanent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc_0-entities.yaml"),
		[]byte("extractions: [not: valid: yaml"), 0o644))

	gen, err := NewFileGenerator(dir)
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(),
		types.Document{ID: "doc_0"}, types.PassSpec{Name: "entities"})
	require.Error(t, err)
	assert.False(t, types.IsTransient(err))
}

func TestNewFileGeneratorMissingDir(t *testing.T) {
	_, err := NewFileGenerator(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
