// Package boilerplate describes the project templates a pipeline can start
// from and reads their files for the README preview.
package boilerplate

import (
	"fmt"
	"path"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Template is one boilerplate entry.
type Template struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Language    string `yaml:"language" json:"language"`
	Framework   string `yaml:"framework" json:"framework"`
	Database    string `yaml:"database,omitempty" json:"database,omitempty"`
	// Path is the template directory on disk.
	Path string `yaml:"path" json:"path"`
}

// Catalog is an ordered list of templates.
type Catalog []Template

// DefaultCatalog is used when no catalog file is configured.
func DefaultCatalog(basePath string) Catalog {
	if basePath == "" {
		basePath = "/templates"
	}
	return Catalog{{
		ID:          "rust-actix-postgres",
		Name:        "Rust + Actix-web + PostgreSQL",
		Description: "RESTful API with Rust, Actix-web framework and PostgreSQL database",
		Language:    "Rust",
		Framework:   "Actix-web",
		Database:    "PostgreSQL",
		Path:        path.Join(basePath, "spark"),
	}}
}

type catalogFile struct {
	Templates Catalog `yaml:"templates"`
}

// LoadCatalog reads a YAML catalog of the form `templates: [...]`.
func LoadCatalog(fs afero.Fs, file string) (Catalog, error) {
	data, err := afero.ReadFile(fs, file)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", file, err)
	}
	for i, t := range cf.Templates {
		if t.ID == "" || t.Name == "" {
			return nil, fmt.Errorf("catalog %s: template %d needs an id and a name", file, i+1)
		}
	}
	return cf.Templates, nil
}

// ByName finds a template by display name.
func (c Catalog) ByName(name string) (Template, bool) {
	for _, t := range c {
		if t.Name == name {
			return t, true
		}
	}
	return Template{}, false
}

// ByID finds a template by id.
func (c Catalog) ByID(id string) (Template, bool) {
	for _, t := range c {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}
