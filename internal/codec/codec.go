package codec

import (
	"fmt"
	"io"
	"strings"

	"netaudit/internal/domain"
)

// Exporter interface for writing an analysis summary in some format
type Exporter interface {
	Export(summary *domain.Summary, w io.Writer) error
	Format() string
}

// InventoryParser interface for reading device inventories used by the collector
type InventoryParser interface {
	ParseInventory(r io.Reader) ([]domain.InventoryDevice, error)
	Format() string
}

// ExporterFor returns the exporter registered for a format name
func ExporterFor(format string) (Exporter, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	case "text", "txt", "console":
		return NewTextCodec(), nil
	}
	return nil, domain.NewError(domain.KindExport, "ExporterFor", fmt.Errorf("unknown format %q", format))
}
