package resolve

import (
	"context"
	"log/slog"
)

// Signals translates extracted (source, signal-name) pairs into
// fault-record signal ids. Lookup failures never propagate: any error
// yields an empty list and the record is posted without signal links.
type Signals struct {
	catalog SignalCatalog
}

// NewSignals creates a signal resolver backed by the fault-record signal
// catalog.
func NewSignals(catalog SignalCatalog) *Signals {
	return &Signals{catalog: catalog}
}

// IDs returns the ids matching names under source, in API response order.
func (s *Signals) IDs(ctx context.Context, source string, names []string) []int64 {
	if source == "" || len(names) == 0 {
		return []int64{}
	}

	ids, err := s.catalog.SignalsBySource(ctx, source, names)
	if err != nil {
		slog.Warn("Signal lookup failed, posting without signals", "source", source, "error", err)
		return []int64{}
	}
	if ids == nil {
		ids = []int64{}
	}

	return ids
}
