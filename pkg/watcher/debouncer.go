package watcher

import (
	"context"
	"time"

	"github.com/xhedwig/ofdp-sdg/pkg/logging"
)

// Debouncer merges bursts of change events. A batch is released once no
// event arrived for quietPeriod, or maxWait after its first event.
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Debouncer) run(ctx context.Context) {
	defer close(d.output)

	var (
		quiet    = time.NewTimer(time.Hour)
		deadline = time.NewTimer(time.Hour)
		pending  []string
		seen     = make(map[string]bool)
		armed    bool
	)
	quiet.Stop()
	deadline.Stop()
	defer quiet.Stop()
	defer deadline.Stop()

	flush := func() bool {
		quiet.Stop()
		deadline.Stop()
		armed = false
		if len(pending) == 0 {
			return true
		}

		logging.Debug("flushing topology changes", "files", len(pending))
		event := ChangeEvent{Paths: pending, Timestamp: time.Now()}
		pending = nil
		seen = make(map[string]bool)

		select {
		case d.output <- event:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				return
			}
			for _, p := range event.Paths {
				if !seen[p] {
					seen[p] = true
					pending = append(pending, p)
				}
			}
			quiet.Reset(d.quietPeriod)
			if !armed {
				deadline.Reset(d.maxWait)
				armed = true
			}

		case <-quiet.C:
			if !flush() {
				return
			}

		case <-deadline.C:
			if !flush() {
				return
			}
		}
	}
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}
