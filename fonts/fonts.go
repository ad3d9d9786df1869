// Package fonts provides the explicit font catalog handed to the editor at
// startup. Families are enumerated {name, parsed font} pairs; nothing is
// registered as a side effect of importing a package.
package fonts

import (
	"fmt"
	"sort"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

const DefaultFamily = "Go Regular"

type Catalog struct {
	families map[string]*sfnt.Font
}

// Default builds the catalog shipped with the editor.
func Default() (*Catalog, error) {
	c := &Catalog{families: make(map[string]*sfnt.Font)}
	for name, ttf := range map[string][]byte{
		DefaultFamily: goregular.TTF,
		"Go Bold":     gobold.TTF,
		"Go Italic":   goitalic.TTF,
		"Go Mono":     gomono.TTF,
	} {
		f, err := opentype.Parse(ttf)
		if err != nil {
			return nil, fmt.Errorf("parse font %s: %w", name, err)
		}
		c.families[name] = f
	}
	return c, nil
}

func (c *Catalog) Has(name string) bool {
	_, ok := c.families[name]
	return ok
}

// Families returns the selectable family names in stable order.
func (c *Catalog) Families() []string {
	names := make([]string, 0, len(c.families))
	for name := range c.families {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Face resolves a family at the given pixel size. Unknown families fall back
// to the default so a document created against a richer catalog still renders.
func (c *Catalog) Face(name string, size float64) (font.Face, error) {
	f, ok := c.families[name]
	if !ok {
		f = c.families[DefaultFamily]
	}
	if f == nil {
		return nil, fmt.Errorf("font catalog has no default family")
	}
	if size <= 0 {
		size = 12
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
