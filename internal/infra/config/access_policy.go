// internal/infra/config/access_policy.go
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AccessPolicyFile is the on-disk form of the gating table:
//
//	paths:
//	  images: public
//	  configurations: public
type AccessPolicyFile struct {
	Paths map[string]string `yaml:"paths"`
}

// LoadAccessPolicy reads and validates a policy file. Values must be
// "public" or "protected".
func LoadAccessPolicy(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read access policy: %w", err)
	}
	return ParseAccessPolicy(raw)
}

func ParseAccessPolicy(raw []byte) (map[string]string, error) {
	var f AccessPolicyFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("config: parse access policy: %w", err)
	}
	out := make(map[string]string, len(f.Paths))
	for p, access := range f.Paths {
		key := strings.Trim(strings.TrimSpace(p), "/")
		if key == "" {
			return nil, fmt.Errorf("config: access policy: empty path")
		}
		access = strings.ToLower(strings.TrimSpace(access))
		switch access {
		case "public", "protected":
		default:
			return nil, fmt.Errorf("config: access policy: %q has unknown access %q", p, access)
		}
		out[key] = access
	}
	return out, nil
}
