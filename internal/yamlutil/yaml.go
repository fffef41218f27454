// Package yamlutil decodes the two YAML sources mailify reads: front matter
// blocks at the top of Markdown documents and CLI configuration files.
package yamlutil

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// MaxInputSize limits YAML input to prevent memory exhaustion (default 1MB).
var MaxInputSize = 1 << 20

var (
	ErrNilData        = errors.New("yamlutil: nil or empty data")
	ErrNilDestination = errors.New("yamlutil: nil destination pointer")
	ErrInputTooLarge  = errors.New("yamlutil: input exceeds maximum size")
)

// Mode selects how unknown keys are treated.
type Mode int

const (
	// Lenient ignores unknown keys. Front matter uses it because documents
	// often carry keys meant for other tools.
	Lenient Mode = iota
	// Strict rejects unknown keys so typos in config files surface.
	Strict
)

func (m Mode) String() string {
	if m == Strict {
		return "strict"
	}
	return "lenient"
}

// Decode parses data into v. Errors carry the line and column reported by
// the parser.
func Decode(data []byte, v any, mode Mode) error {
	if len(data) == 0 {
		return ErrNilData
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	if v == nil {
		return ErrNilDestination
	}

	var opts []yaml.DecodeOption
	if mode == Strict {
		opts = append(opts, yaml.Strict())
	}
	if err := yaml.UnmarshalWithOptions(data, v, opts...); err != nil {
		return fmt.Errorf("yamlutil: %s decode: %w", mode, err)
	}
	return nil
}
