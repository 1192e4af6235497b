package documentloaders_test

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/docchain/documentloaders"
	"github.com/sevigo/docchain/schema"
)

// materialize writes an in-memory tree to a temp dir so filepath.WalkDir can
// see it.
func materialize(t *testing.T, tree fstest.MapFS) string {
	t.Helper()
	tempDir := t.TempDir()
	err := fs.WalkDir(tree, ".", func(path string, d fs.DirEntry, err error) error {
		require.NoError(t, err)
		targetPath := filepath.Join(tempDir, path)
		if d.IsDir() {
			return os.MkdirAll(targetPath, 0o755)
		}
		data, readErr := tree.ReadFile(path)
		require.NoError(t, readErr)
		require.NoError(t, os.MkdirAll(filepath.Dir(targetPath), 0o755))
		return os.WriteFile(targetPath, data, 0o644)
	})
	require.NoError(t, err)
	return tempDir
}

func TestGit_Load(t *testing.T) {
	root := materialize(t, fstest.MapFS{
		"src/main.go":         {Data: []byte("package main\n\nfunc main() {}\n")},
		"README.md":           {Data: []byte("# Project\n\nSome *docs* here.")},
		"assets/logo.png":     {Data: []byte("binary data")},
		".git/config":         {Data: []byte("some config")},
		"node_modules/x/a.js": {Data: []byte("ignored")},
		"notes.unknownext":    {Data: []byte("no loader")},
		"empty_dir":           {Mode: fs.ModeDir},
	})

	docs, err := documentloaders.NewGit(root).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)

	bySource := map[string]schema.Document{}
	for _, doc := range docs {
		bySource[doc.Source()] = doc
		assert.Contains(t, doc.Metadata, "file_size")
		assert.Contains(t, doc.Metadata, "mod_time")
	}

	require.Contains(t, bySource, "src/main.go")
	assert.Equal(t, "package main\n\nfunc main() {}\n", bySource["src/main.go"].PageContent)

	require.Contains(t, bySource, "README.md")
	assert.Equal(t, "Project\n\nSome docs here.", bySource["README.md"].PageContent)
	assert.Equal(t, "Project", bySource["README.md"].Metadata["title"])
}

func TestGit_CustomRegistry(t *testing.T) {
	root := materialize(t, fstest.MapFS{
		"a.txt":  {Data: []byte("alpha")},
		"b.note": {Data: []byte("beta")},
	})

	registry := documentloaders.NewRegistry()
	require.NoError(t, registry.Register(func(path string) documentloaders.Loader {
		return documentloaders.NewText(path)
	}, "note"))

	docs, err := documentloaders.NewGit(root, documentloaders.WithRegistry(registry)).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "beta", docs[0].PageContent)
	assert.Equal(t, "b.note", docs[0].Source())
}

func TestRegistry(t *testing.T) {
	registry := documentloaders.DefaultRegistry()

	loader, err := registry.LoaderFor("docs/GUIDE.MD")
	require.NoError(t, err)
	assert.IsType(t, &documentloaders.Markdown{}, loader)

	loader, err = registry.LoaderFor("data.csv")
	require.NoError(t, err)
	assert.IsType(t, &documentloaders.CSV{}, loader)

	loader, err = registry.LoaderFor("deploy/values.yml")
	require.NoError(t, err)
	assert.IsType(t, &documentloaders.Structured{}, loader)

	loader, err = registry.LoaderFor("site/index.html")
	require.NoError(t, err)
	assert.IsType(t, &documentloaders.HTML{}, loader)

	loader, err = registry.LoaderFor("infra/main.tf")
	require.NoError(t, err)
	assert.IsType(t, &documentloaders.Terraform{}, loader)

	loader, err = registry.LoaderFor("api/shop.proto")
	require.NoError(t, err)
	assert.IsType(t, &documentloaders.Proto{}, loader)

	_, err = registry.LoaderFor("archive.tar.gz")
	assert.ErrorIs(t, err, documentloaders.ErrNoLoader)

	assert.Contains(t, registry.Extensions(), ".pdf")
	assert.Error(t, registry.Register(nil, ".x"))
}
