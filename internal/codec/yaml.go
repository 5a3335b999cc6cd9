package codec

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"netaudit/internal/domain"
)

// YAMLCodec handles YAML export of summaries
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// Export exports a summary to YAML
func (c *YAMLCodec) Export(summary *domain.Summary, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(summary); err != nil {
		return domain.NewError(domain.KindExport, "yaml", fmt.Errorf("failed to encode YAML: %w", err))
	}

	return nil
}

// Decode reads a summary previously written by Export
func (c *YAMLCodec) Decode(r io.Reader) (*domain.Summary, error) {
	var summary domain.Summary
	if err := yaml.NewDecoder(r).Decode(&summary); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &summary, nil
}
