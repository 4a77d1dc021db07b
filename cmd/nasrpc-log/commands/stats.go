package commands

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/nasrpc/nasrpc-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Connections       map[string]*ConnectionStats
	Methods           map[string]*MethodStats
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// ConnectionStats holds statistics for a single connection.
type ConnectionStats struct {
	FirstSeen  time.Time
	LastSeen   time.Time
	Events     int
	RemoteAddr string
	Variant    string
	LastState  string
}

// MethodStats holds per-method call statistics.
type MethodStats struct {
	Calls        int
	Results      int
	Errors       int
	TotalLatency time.Duration
	Timed        int
}

// AverageRoundTrip is the mean round trip of replies that carried one.
func (m *MethodStats) AverageRoundTrip() time.Duration {
	if m.Timed == 0 {
		return 0
	}
	return m.TotalLatency / time.Duration(m.Timed)
}

// Collect reads every event of the log file at path into Stats.
func Collect(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Connections:       make(map[string]*ConnectionStats),
		Methods:           make(map[string]*MethodStats),
	}

	for event, err := range reader.All() {
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}
	return stats, nil
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByLayer[event.Layer]++
	s.EventsByCategory[event.Category]++
	s.EventsByDirection[event.Direction]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	conn, ok := s.Connections[event.ConnectionID]
	if !ok {
		conn = &ConnectionStats{
			FirstSeen: event.Timestamp,
			LastSeen:  event.Timestamp,
		}
		s.Connections[event.ConnectionID] = conn
	}
	conn.Events++
	if event.Timestamp.After(conn.LastSeen) {
		conn.LastSeen = event.Timestamp
	}
	if conn.RemoteAddr == "" {
		conn.RemoteAddr = event.RemoteAddr
	}
	if conn.Variant == "" {
		conn.Variant = event.Variant
	}
	if event.StateChange != nil {
		conn.LastState = event.StateChange.NewState
	}

	if msg := event.Message; msg != nil && msg.Method != "" {
		ms, ok := s.Methods[msg.Method]
		if !ok {
			ms = &MethodStats{}
			s.Methods[msg.Method] = ms
		}
		switch msg.Type {
		case log.MessageTypeCall:
			ms.Calls++
		case log.MessageTypeResult:
			ms.Results++
		case log.MessageTypeError:
			ms.Errors++
		}
		if msg.RoundTrip != nil {
			ms.TotalLatency += *msg.RoundTrip
			ms.Timed++
		}
	}

	if event.Error != nil {
		s.Errors++
	}
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := Collect(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== nasrpc Protocol Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerTransport, log.LayerWire, log.LayerEngine} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryMessage, log.CategoryControl, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", dir.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if len(stats.Methods) > 0 {
		fmt.Fprintln(w, "Methods:")
		names := make([]string, 0, len(stats.Methods))
		for name := range stats.Methods {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			ms := stats.Methods[name]
			fmt.Fprintf(w, "  %-28s calls=%d results=%d errors=%d", name, ms.Calls, ms.Results, ms.Errors)
			if ms.Timed > 0 {
				fmt.Fprintf(w, " avg=%s", formatDuration(ms.AverageRoundTrip()))
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Connections: %d\n", len(stats.Connections))
	if len(stats.Connections) > 0 {
		ids := make([]string, 0, len(stats.Connections))
		for id := range stats.Connections {
			ids = append(ids, id)
		}
		slices.SortFunc(ids, func(a, b string) int {
			if c := stats.Connections[a].FirstSeen.Compare(stats.Connections[b].FirstSeen); c != 0 {
				return c
			}
			return strings.Compare(a, b)
		})

		fmt.Fprintln(w)
		for _, id := range ids {
			cs := stats.Connections[id]
			duration := cs.LastSeen.Sub(cs.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortenConnID(id), cs.Events, duration)
			if cs.RemoteAddr != "" {
				fmt.Fprintf(w, "           Remote: %s (%s)\n", cs.RemoteAddr, cs.Variant)
			}
			if cs.LastState != "" {
				fmt.Fprintf(w, "           Final state: %s\n", cs.LastState)
			}
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
