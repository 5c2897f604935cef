package button

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Def is the static definition of a button, loaded from YAML.
type Def struct {
	Name   string `yaml:"name"`
	Recipe string `yaml:"recipe"`
	Set    string `yaml:"set"`
	Flavor string `yaml:"flavor"`
}

type catalogFile struct {
	Buttons []Def `yaml:"buttons"`
}

// Catalog holds all known button definitions keyed by name.
type Catalog struct {
	defs map[string]Def
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{defs: make(map[string]Def)}
}

// Register adds def after checking its recipe.
//
// Precondition: def.Name is non-empty.
// Postcondition: returns an error on a duplicate name or an unparsable recipe.
func (c *Catalog) Register(def Def) error {
	if def.Name == "" {
		return fmt.Errorf("button catalog: empty button name")
	}
	if _, dup := c.defs[def.Name]; dup {
		return fmt.Errorf("button catalog: duplicate button %q", def.Name)
	}
	if _, err := New(def.Name, def.Recipe); err != nil {
		return fmt.Errorf("button catalog: %w", err)
	}
	c.defs[def.Name] = def
	return nil
}

// Get returns the definition for name.
func (c *Catalog) Get(name string) (Def, bool) {
	d, ok := c.defs[name]
	return d, ok
}

// Button builds an unloaded Button for name.
func (c *Catalog) Button(name string) (*Button, error) {
	d, ok := c.defs[name]
	if !ok {
		return nil, fmt.Errorf("button catalog: unknown button %q", name)
	}
	return New(d.Name, d.Recipe)
}

// All returns every definition sorted by name.
func (c *Catalog) All() []Def {
	out := make([]Def, 0, len(c.defs))
	for _, d := range c.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LoadFile reads a YAML catalog of the form `buttons: [{name, recipe, set}]`.
//
// Precondition: path must be a readable file.
// Postcondition: Returns a non-nil Catalog, or an error if the file fails to parse.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading button catalog %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing button catalog: %w", err)
	}
	c := NewCatalog()
	for _, d := range f.Buttons {
		if err := c.Register(d); err != nil {
			return nil, err
		}
	}
	return c, nil
}
