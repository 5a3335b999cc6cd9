package codec

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/samber/lo"

	"netaudit/internal/domain"
)

// TextCodec renders a console report of a summary
type TextCodec struct{}

// NewTextCodec creates a new text codec
func NewTextCodec() *TextCodec {
	return &TextCodec{}
}

// Format returns the codec format identifier
func (c *TextCodec) Format() string {
	return "text"
}

// Export writes the human readable report
func (c *TextCodec) Export(summary *domain.Summary, w io.Writer) error {
	var b strings.Builder

	b.WriteString("=== Topology Summary ===\n")
	fmt.Fprintf(&b, "Run: %s\n", summary.RunID)
	fmt.Fprintf(&b, "Nodes: %d, Links: %d\n", len(summary.Nodes), len(summary.Edges))

	fmt.Fprintf(&b, "Issues found: %d\n", len(summary.Issues))
	for _, i := range summary.Issues {
		fmt.Fprintf(&b, " - [%s] %s\n", i.Type, i.Describe())
	}

	if len(summary.LoadBalance) > 0 {
		b.WriteString("\nLoad-Balancing Suggestions:\n")
		for _, r := range summary.LoadBalance {
			fmt.Fprintf(&b, " - %s load=%d kbps > cap=%d kbps\n", r.Link, r.LoadKbps, r.CapacityKbps)
		}
	} else {
		b.WriteString("\nNo load issues detected in sample demand.\n")
	}

	if len(summary.Recommendations) > 0 {
		b.WriteString("\nRecommendations:\n")
		for _, r := range summary.Recommendations {
			fmt.Fprintf(&b, " - %s\n", r)
		}
	}

	if len(summary.Day1SimLog) > 0 {
		b.WriteString("\nDay-1 discovery:\n")
		routers := lo.Keys(summary.Day1SimLog)
		sort.Strings(routers)
		for _, r := range routers {
			counts := lo.CountValuesBy(summary.Day1SimLog[r], func(e domain.SimEvent) domain.MessageType {
				return e.Type
			})
			fmt.Fprintf(&b, " - %s: %d hello, %d ack\n", r, counts[domain.MsgNeighborHello], counts[domain.MsgNeighborAck])
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return domain.NewError(domain.KindExport, "text", err)
	}
	return nil
}
