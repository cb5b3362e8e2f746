//go:build !(rp2040 || rp2350)

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"sentrycode-go/errcode"
)

// LoadFile overlays a YAML (or JSON) file onto Default and validates it.
func LoadFile(path string) (Config, error) {
	c := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read config: %w", err)
	}
	if err := c.MergeYAML(raw); err != nil {
		return c, err
	}
	return c, c.Validate()
}

// MergeYAML is Merge for YAML documents.
func (c *Config) MergeYAML(raw []byte) error {
	if err := yaml.Unmarshal(raw, c); err != nil {
		return &errcode.E{C: errcode.InvalidPayload, Op: "config", Msg: err.Error(), Err: err}
	}
	return nil
}
