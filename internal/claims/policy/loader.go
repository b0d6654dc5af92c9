package policy

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_policy.yaml
var defaultPolicy []byte

// Load reads a policy file. YAML and JSON are both accepted; JSON documents
// are valid YAML and go through the same decoder.
func Load(path string) (*Terms, error) {
	// #nosec G304 -- path comes from operator configuration.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy %s: %w", path, err)
	}
	terms, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("policy %s: %w", path, err)
	}
	return terms, nil
}

// Parse decodes, validates and hashes a policy document.
func Parse(data []byte) (*Terms, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var t Terms
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("decode policy: %w", err)
	}
	if err := t.prepare(); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}

	sum := sha256.Sum256(data)
	t.hash = "sha256:" + hex.EncodeToString(sum[:])
	return &t, nil
}

// Default returns the policy shipped with the binary.
func Default() (*Terms, error) {
	return Parse(defaultPolicy)
}

// LoadOrDefault loads path, or the embedded policy when path is empty.
func LoadOrDefault(path string) (*Terms, error) {
	if path == "" {
		return Default()
	}
	return Load(path)
}

// New validates terms assembled in code, for tests and tooling.
func New(t Terms) (*Terms, error) {
	if err := t.prepare(); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}
	return &t, nil
}
