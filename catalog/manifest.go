package catalog

import (
	"io/fs"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/wippyai/dbn-playground/errors"
)

// Manifest is the parsed form of a catalog definition file:
//
//	default = "lines.dbn"
//
//	example "paper.dbn" {
//	  description = "Fill the paper with gray"
//	}
type Manifest struct {
	Default string
	Entries []Entry
}

type hclManifest struct {
	Default  *string       `hcl:"default,optional"`
	Examples []*hclExample `hcl:"example,block"`
}

type hclExample struct {
	Name        string  `hcl:"name,label"`
	Description *string `hcl:"description,optional"`
}

// ParseManifest decodes an HCL manifest. filename is used in diagnostics.
func ParseManifest(src []byte, filename string) (*Manifest, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.ParseFailed("manifest "+filename, diags)
	}

	var raw hclManifest
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return nil, errors.ParseFailed("manifest "+filename, diags)
	}

	m := &Manifest{Entries: make([]Entry, 0, len(raw.Examples))}
	if raw.Default != nil {
		m.Default = *raw.Default
	}
	for _, ex := range raw.Examples {
		e := Entry{Name: ex.Name}
		if ex.Description != nil {
			e.Description = *ex.Description
		}
		m.Entries = append(m.Entries, e)
	}
	return m, nil
}

// LoadManifest reads and parses the manifest at name inside fsys.
func LoadManifest(fsys fs.FS, name string) (*Manifest, error) {
	src, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "read manifest "+name)
	}
	return ParseManifest(src, name)
}

// Catalog defines a catalog from the manifest entries.
func (m *Manifest) Catalog() (*Catalog, error) {
	return NewFromEntries(m.Entries)
}
