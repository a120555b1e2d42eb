// Structured logging facade for every primitive in this package.
//
// Primitives never format messages with fmt.Sprintf; they build structured
// fields (Str/Int/Err) through a *logiface.Logger[*Event], matching how the
// rest of the pack instruments contention, dispatch and cancellation.

package asyncprimitives

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/joeycumines/logiface"
)

// Event is a minimal logiface.Event implementation: one level plus an
// ordered field list, rendered as newline-delimited key=value text.
type Event struct {
	logiface.UnimplementedEvent
	level  logiface.Level
	msg    string
	err    error
	fields []eventField
}

type eventField struct {
	key string
	val any
}

func (e *Event) Level() logiface.Level { return e.level }

func (e *Event) AddField(key string, val any) {
	e.fields = append(e.fields, eventField{key, val})
}

func (e *Event) AddMessage(msg string) bool {
	e.msg = msg
	return true
}

func (e *Event) AddError(err error) bool {
	e.err = err
	return true
}

func (e *Event) AddString(key string, val string) bool {
	e.AddField(key, val)
	return true
}

func (e *Event) AddInt(key string, val int) bool {
	e.AddField(key, val)
	return true
}

func (e *Event) reset() {
	e.level = logiface.LevelDisabled
	e.msg = ""
	e.err = nil
	e.fields = e.fields[:0]
}

// eventFactory produces pooled *Event values for a Logger.
type eventFactory struct {
	pool sync.Pool
}

func newEventFactory() *eventFactory {
	f := &eventFactory{}
	f.pool.New = func() any { return &Event{} }
	return f
}

func (f *eventFactory) NewEvent(level logiface.Level) *Event {
	e := f.pool.Get().(*Event)
	e.level = level
	return e
}

func (f *eventFactory) ReleaseEvent(e *Event) {
	e.reset()
	f.pool.Put(e)
}

// plainWriter renders an Event as one line of "level msg key=val ..." text.
type plainWriter struct {
	mu  sync.Mutex
	out io.Writer
}

func (w *plainWriter) Write(e *Event) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s", e.level)
	if e.msg != "" {
		fmt.Fprintf(&buf, " %s", e.msg)
	}
	for _, f := range e.fields {
		fmt.Fprintf(&buf, " %s=%v", f.key, f.val)
	}
	if e.err != nil {
		fmt.Fprintf(&buf, " err=%v", e.err)
	}
	buf.WriteByte('\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := w.out.Write(buf.Bytes())
	return err
}

// Logger is the type every primitive's Option accepts. The zero value is not
// usable directly; use [NewLogger] or [NewNoopLogger].
type Logger = logiface.Logger[*Event]

// NewLogger builds a Logger that writes plain key=value lines to out, at or
// above level. Pass [logiface.LevelDisabled] for a logger that never writes.
func NewLogger(out io.Writer, level logiface.Level) *Logger {
	return logiface.New[*Event](
		logiface.WithEventFactory[*Event](newEventFactory()),
		logiface.WithWriter[*Event](&plainWriter{out: out}),
		logiface.WithLevel[*Event](level),
	)
}

// NewNoopLogger returns a Logger with no writer configured; every call is a
// cheap no-op. This is the default for every primitive that isn't given a
// Logger option explicitly.
func NewNoopLogger() *Logger {
	return logiface.New[*Event](
		logiface.WithEventFactory[*Event](newEventFactory()),
		logiface.WithLevel[*Event](logiface.LevelDisabled),
	)
}
