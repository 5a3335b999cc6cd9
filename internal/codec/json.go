package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"netaudit/internal/domain"
)

// JSONCodec handles JSON export of summaries and graph views
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Export exports a summary to indented JSON
func (c *JSONCodec) Export(summary *domain.Summary, w io.Writer) error {
	return c.encode(summary, w)
}

// ExportGraph exports the vis-network view of a topology
func (c *JSONCodec) ExportGraph(graph *domain.Graph, w io.Writer) error {
	return c.encode(graph, w)
}

// Decode reads a summary previously written by Export
func (c *JSONCodec) Decode(r io.Reader) (*domain.Summary, error) {
	var summary domain.Summary
	if err := json.NewDecoder(r).Decode(&summary); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return &summary, nil
}

func (c *JSONCodec) encode(v any, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(v); err != nil {
		return domain.NewError(domain.KindExport, "json", fmt.Errorf("failed to encode JSON: %w", err))
	}

	return nil
}
