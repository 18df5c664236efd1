package logging

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/eunmann/mdstream/pkg/humanfmt"
)

// EventFileWritten is logged once per output file a command commits.
const EventFileWritten = "file_written"

// CompletionEvent collects the fields of one info-level completion record.
// Fields are emitted in the order they were added. In pretty mode byte
// counts, rates and the duration get a human readable "_h" companion.
type CompletionEvent struct {
	log       zerolog.Logger
	event     string
	component string
	elapsed   time.Duration
	fields    []func(*zerolog.Event)
}

// NewCompletionEvent starts an event named event for component.
func NewCompletionEvent(log zerolog.Logger, event, component string, elapsed time.Duration) *CompletionEvent {
	return &CompletionEvent{
		log:       log,
		event:     event,
		component: component,
		elapsed:   elapsed,
	}
}

// FileWritten starts a file_written event.
func FileWritten(log zerolog.Logger, component string, elapsed time.Duration) *CompletionEvent {
	return NewCompletionEvent(log, EventFileWritten, component, elapsed)
}

func (ce *CompletionEvent) add(f func(*zerolog.Event)) *CompletionEvent {
	ce.fields = append(ce.fields, f)
	return ce
}

func (ce *CompletionEvent) Str(key, val string) *CompletionEvent {
	return ce.add(func(e *zerolog.Event) { e.Str(key, val) })
}

func (ce *CompletionEvent) Int(key string, val int) *CompletionEvent {
	return ce.add(func(e *zerolog.Event) { e.Int(key, val) })
}

func (ce *CompletionEvent) Float64(key string, val float64) *CompletionEvent {
	return ce.add(func(e *zerolog.Event) { e.Float64(key, val) })
}

// Bytes adds a byte count.
func (ce *CompletionEvent) Bytes(key string, n int64) *CompletionEvent {
	human := IsPrettyMode()
	return ce.add(func(e *zerolog.Event) {
		e.Int64(key, n)
		if human {
			e.Str(key+"_h", humanfmt.Bytes(n))
		}
	})
}

// BytesUint64 adds a byte count kept in a uint64 counter.
func (ce *CompletionEvent) BytesUint64(key string, n uint64) *CompletionEvent {
	human := IsPrettyMode()
	return ce.add(func(e *zerolog.Event) {
		e.Uint64(key, n)
		if human {
			e.Str(key+"_h", humanfmt.BytesUint64(n))
		}
	})
}

// Throughput adds the rate of n bytes over the elapsed time. It is skipped
// when no time elapsed.
func (ce *CompletionEvent) Throughput(n int64) *CompletionEvent {
	if ce.elapsed <= 0 {
		return ce
	}
	human := IsPrettyMode()
	elapsed := ce.elapsed
	return ce.add(func(e *zerolog.Event) {
		e.Float64("throughput_bps", float64(n)/elapsed.Seconds())
		if human {
			e.Str("throughput_h", humanfmt.Throughput(n, elapsed))
		}
	})
}

// Log emits the event at info level.
func (ce *CompletionEvent) Log(msg string) {
	e := ce.log.Info().
		Str("event", ce.event).
		Str("component", ce.component).
		Int64("duration_ms", ce.elapsed.Milliseconds())
	if IsPrettyMode() {
		e.Str("duration_h", humanfmt.Duration(ce.elapsed))
	}
	for _, f := range ce.fields {
		f(e)
	}
	e.Msg(msg)
}
