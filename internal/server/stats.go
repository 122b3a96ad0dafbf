package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/sajjad-MoBe/tuplespace/internal/storage"
)

// FormatStats renders a snapshot as the console status block
func FormatStats(snap storage.Snapshot) string {
	var b strings.Builder
	b.WriteString("Tuple Space Status\n")
	fmt.Fprintf(&b, "Number of tuples: %d\n", snap.Tuples)
	fmt.Fprintf(&b, "Total clients: %d\n", snap.TotalClients)
	fmt.Fprintf(&b, "Total operations: %d\n", snap.TotalOperations)
	fmt.Fprintf(&b, "Total READs: %d\n", snap.TotalReads)
	fmt.Fprintf(&b, "Total GETs: %d\n", snap.TotalGets)
	fmt.Fprintf(&b, "Total PUTs: %d\n", snap.TotalPuts)
	fmt.Fprintf(&b, "Errors: %d\n", snap.TotalErrors)
	fmt.Fprintf(&b, "Average tuple size: %.2f\n", snap.AverageTupleSize)
	return b.String()
}

// reportStats prints a snapshot every interval until the server stops
func (s *Server) reportStats(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := fmt.Fprint(s.statsOut, FormatStats(s.store.Snapshot())); err != nil {
				s.logger.Warn("Failed to write stats: %v", err)
			}
		case <-s.done:
			return
		}
	}
}
