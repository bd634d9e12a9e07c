package registry

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mergington/activities/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// DefaultSeed returns the built-in activity catalogue.
func DefaultSeed() (model.Seed, error) {
	return ParseSeed(bytes.NewReader(defaultSeed))
}

// LoadSeed reads a seed document from path. An empty path selects the
// built-in catalogue.
func LoadSeed(path string) (model.Seed, error) {
	if path == "" {
		return DefaultSeed()
	}
	f, err := os.Open(path)
	if err != nil {
		return model.Seed{}, fmt.Errorf("failed to open seed file %s: %w", path, err)
	}
	defer f.Close()

	seed, err := ParseSeed(f)
	if err != nil {
		return model.Seed{}, fmt.Errorf("seed file %s: %w", path, err)
	}
	return seed, nil
}

// ParseSeed decodes and validates a YAML seed document.
func ParseSeed(r io.Reader) (model.Seed, error) {
	var seed model.Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		if errors.Is(err, io.EOF) {
			return model.Seed{}, errors.New("seed document is empty")
		}
		return model.Seed{}, fmt.Errorf("failed to decode YAML seed: %w", err)
	}
	if err := validateSeed(seed); err != nil {
		return model.Seed{}, err
	}
	return seed, nil
}

func validateSeed(seed model.Seed) error {
	seen := make(map[string]struct{}, len(seed.Activities))
	for i, a := range seed.Activities {
		if a.Name == "" {
			return fmt.Errorf("activity #%d: name is required", i+1)
		}
		if _, dup := seen[a.Name]; dup {
			return fmt.Errorf("activity %q: duplicate name", a.Name)
		}
		if a.MaxParticipants < 0 {
			return fmt.Errorf("activity %q: max_participants cannot be negative", a.Name)
		}
		seen[a.Name] = struct{}{}
	}
	return nil
}

// MarshalSeed renders a seed document as YAML.
func MarshalSeed(w io.Writer, seed model.Seed) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(seed); err != nil {
		return fmt.Errorf("encode seed: %w", err)
	}
	return enc.Close()
}
