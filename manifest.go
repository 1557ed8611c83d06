package bloom

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest declares the asset lists of a game, in staggered order.
type Manifest struct {
	Lists []ManifestList `yaml:"lists"`
}

// ManifestList is one named asset list.
type ManifestList struct {
	Name   string            `yaml:"name"`
	Assets []AssetDescriptor `yaml:"assets"`
}

// LoadManifest reads a YAML manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return m, nil
}

// ParseManifest decodes a YAML manifest and validates it: list names must be
// unique and every asset needs a url. Missing ids default to the url's
// trimmed filename.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(m.Lists))
	for i := range m.Lists {
		l := &m.Lists[i]
		if l.Name == "" {
			return nil, fmt.Errorf("list %d has no name", i)
		}
		if seen[l.Name] {
			return nil, fmt.Errorf("duplicate list %q", l.Name)
		}
		seen[l.Name] = true
		for j := range l.Assets {
			a := &l.Assets[j]
			if a.URL == "" {
				return nil, fmt.Errorf("list %q asset %d has no url", l.Name, j)
			}
			if a.ID == "" {
				a.ID = SheetKey(a.URL)
			}
		}
	}
	return &m, nil
}

// Order returns the list names in declaration order.
func (m *Manifest) Order() []string {
	names := make([]string, len(m.Lists))
	for i, l := range m.Lists {
		names[i] = l.Name
	}
	return names
}

// AssetKind selects how a fetched asset is decoded.
type AssetKind uint8

const (
	KindAuto  AssetKind = iota // chosen from the url's extension
	KindImage                  // png, jpeg, gif, webp
	KindSheet                  // TexturePacker JSON descriptor
	KindFont                   // ttf, otf
	KindRaw                    // bytes as fetched
)

var assetKindNames = [...]string{"auto", "image", "sheet", "font", "raw"}

func (k AssetKind) String() string {
	if int(k) < len(assetKindNames) {
		return assetKindNames[k]
	}
	return "unknown"
}

// UnmarshalYAML accepts the kind names.
func (k *AssetKind) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		*k = KindAuto
		return nil
	}
	for i, name := range assetKindNames {
		if name == s {
			*k = AssetKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown asset kind %q", s)
}

// AssetDescriptor names one asset of a list.
type AssetDescriptor struct {
	ID  string `yaml:"id"`
	URL string `yaml:"url"`
	// Sheet names the sprite sheet the asset belongs to: for an image, the
	// sheet it backs; for a descriptor, the registry key (default: the
	// url's trimmed filename).
	Sheet string `yaml:"sheet"`
	// Localize marks a sheet that has per-language variants ("ui_fr").
	Localize bool      `yaml:"localize"`
	Kind     AssetKind `yaml:"kind"`
}
