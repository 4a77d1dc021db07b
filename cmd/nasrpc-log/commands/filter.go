package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/nasrpc/nasrpc-go/pkg/log"
)

// FilterOptions specifies filtering criteria for the filter command.
type FilterOptions struct {
	Output        string
	ConnID        string
	CorrelationID string
	Method        string
	TimeStart     string
	TimeEnd       string
	Layer         string
	Direction     string
	Category      string
}

func (opts FilterOptions) toLogFilter() (log.Filter, error) {
	filter := log.Filter{
		ConnectionID:  opts.ConnID,
		CorrelationID: opts.CorrelationID,
		Method:        opts.Method,
	}

	if opts.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeStart)
		if err != nil {
			return filter, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}

	if opts.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeEnd)
		if err != nil {
			return filter, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}

	if opts.Layer != "" {
		l, err := parseLayer(opts.Layer)
		if err != nil {
			return filter, err
		}
		filter.Layer = &l
	}

	if opts.Direction != "" {
		d, err := parseDirection(opts.Direction)
		if err != nil {
			return filter, err
		}
		filter.Direction = &d
	}

	if opts.Category != "" {
		c, err := parseCategory(opts.Category)
		if err != nil {
			return filter, err
		}
		filter.Category = &c
	}
	return filter, nil
}

// RunFilter filters the log file and writes matching events to a new file.
// A summary line goes to w.
func RunFilter(path string, opts FilterOptions, w io.Writer) error {
	filter, err := opts.toLogFilter()
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	logger, err := log.NewFileLogger(opts.Output)
	if err != nil {
		return fmt.Errorf("failed to create output logger: %w", err)
	}
	defer logger.Close()

	for event, err := range reader.All() {
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		logger.Log(event)
	}

	written, dropped := logger.Stats()
	if dropped > 0 {
		return fmt.Errorf("failed to write %d of %d events to %s", dropped, written+dropped, opts.Output)
	}
	fmt.Fprintf(w, "Filtered %d events to %s\n", written, opts.Output)
	return nil
}
