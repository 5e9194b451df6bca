// internal/domain/catalog/seed.go
package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

type seedFile struct {
	Images []Image `yaml:"images"`
}

// SeedImages returns the placeholder catalog shipped with the binary.
func SeedImages() ([]Image, error) {
	return ParseSeed(seedYAML)
}

func ParseSeed(raw []byte) ([]Image, error) {
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("catalog: parse seed: %w", err)
	}
	seen := make(map[string]struct{}, len(f.Images))
	for idx := range f.Images {
		img := &f.Images[idx]
		img.Normalize()
		if err := img.Validate(); err != nil {
			return nil, fmt.Errorf("catalog: seed entry %d (%q): %w", idx, img.Name, err)
		}
		if img.ID == "" {
			continue
		}
		if _, dup := seen[img.ID]; dup {
			return nil, fmt.Errorf("catalog: seed entry %d: duplicate id %q", idx, img.ID)
		}
		seen[img.ID] = struct{}{}
	}
	return f.Images, nil
}
