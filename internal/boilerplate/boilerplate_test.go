package boilerplate

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFS(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/templates/spark/README.md", []byte("# Spark\nActix starter"), 0644))
	require.NoError(t, fs.MkdirAll("/templates/axum", 0755))
	require.NoError(t, afero.WriteFile(fs, "/templates/notes.txt", []byte("x"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/secret/README.md", []byte("nope"), 0644))
	return fs
}

func TestFiles_Readme(t *testing.T) {
	f := NewFiles(newFS(t), []string{"/templates", " "})

	content, p, err := f.Readme("/templates/spark")
	require.NoError(t, err)
	assert.Equal(t, "# Spark\nActix starter", content)
	assert.Equal(t, "/templates/spark/README.md", p)

	_, _, err = f.Readme("")
	assert.ErrorIs(t, err, ErrPathRequired)

	_, _, err = f.Readme("/secret")
	assert.ErrorIs(t, err, ErrPathNotAllowed)

	_, _, err = f.Readme("/templates/../secret")
	assert.ErrorIs(t, err, ErrPathNotAllowed)

	_, p, err = f.Readme("/templates/axum")
	assert.ErrorIs(t, err, ErrReadmeNotFound)
	assert.Equal(t, "/templates/axum/README.md", p)
}

func TestFiles_AllowedBoundary(t *testing.T) {
	f := NewFiles(afero.NewMemMapFs(), []string{"/srv/galaxy/"})
	assert.True(t, f.Allowed("/srv/galaxy"))
	assert.True(t, f.Allowed("/srv/galaxy/spark"))
	assert.False(t, f.Allowed("/srv/galaxy-governance"))
	assert.False(t, f.Allowed("/srv"))
	assert.Equal(t, []string{"/srv/galaxy"}, f.Roots())
}

func TestFiles_List(t *testing.T) {
	f := NewFiles(newFS(t), []string{"/templates"})

	entries, err := f.List("")
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Name: "axum", Path: "/templates/axum"},
		{Name: "spark", Path: "/templates/spark"},
	}, entries)

	_, err = f.List("/secret")
	assert.ErrorIs(t, err, ErrPathNotAllowed)

	_, err = NewFiles(afero.NewMemMapFs(), nil).List("")
	assert.ErrorIs(t, err, ErrPathRequired)
}

func TestCatalog(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/boilerplates.yaml", []byte(`
templates:
  - id: go-chi
    name: Go + Chi + PostgreSQL
    language: Go
    framework: chi
    database: PostgreSQL
    path: /templates/go-chi
  - id: rust-actix-postgres
    name: Rust + Actix-web + PostgreSQL
    language: Rust
    framework: Actix-web
    path: /templates/spark
`), 0644))

	c, err := LoadCatalog(fs, "/etc/boilerplates.yaml")
	require.NoError(t, err)
	require.Len(t, c, 2)

	tpl, ok := c.ByName("Go + Chi + PostgreSQL")
	require.True(t, ok)
	assert.Equal(t, "/templates/go-chi", tpl.Path)

	_, ok = c.ByID("missing")
	assert.False(t, ok)

	_, err = LoadCatalog(fs, "/etc/none.yaml")
	assert.Error(t, err)

	require.NoError(t, afero.WriteFile(fs, "/etc/bad.yaml", []byte("templates:\n  - path: /x\n"), 0644))
	_, err = LoadCatalog(fs, "/etc/bad.yaml")
	assert.ErrorContains(t, err, "needs an id")
}

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog("")
	require.Len(t, c, 1)
	tpl, ok := c.ByID("rust-actix-postgres")
	require.True(t, ok)
	assert.Equal(t, "/templates/spark", tpl.Path)
	assert.Equal(t, "PostgreSQL", tpl.Database)
	assert.Equal(t, "/opt/t/spark", DefaultCatalog("/opt/t")[0].Path)
}
