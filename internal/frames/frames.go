// Package frames records the step-by-step trace of a run.
package frames

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"jiki/internal/ast"
	"jiki/internal/diagnostics"
	"jiki/internal/object"
)

type Status string

const (
	SUCCESS Status = "SUCCESS"
	ERROR   Status = "ERROR"
)

type Mode int

const (
	// ModeTrace snapshots variables and keeps descriptions.
	ModeTrace Mode = iota
	// ModeBenchmark only records timing and status.
	ModeBenchmark
)

func (m Mode) String() string {
	if m == ModeBenchmark {
		return "benchmark"
	}
	return "trace"
}

// Frame is one evaluated step. Frames are never modified once recorded.
type Frame struct {
	Index    int
	Time     int64
	TimeInMs float64
	Line     int
	Location ast.Location
	Status   Status
	// Variables is a deep copy of every variable visible when the step
	// completed. It is nil in benchmark mode.
	Variables map[string]object.Object
	Result    object.Object
	Error     *diagnostics.Error

	describe    func(*Frame) string
	once        sync.Once
	description string
}

// Description renders the human readable explanation of the step the first
// time it is asked for.
func (f *Frame) Description() string {
	f.once.Do(func() {
		if f.describe != nil {
			f.description = f.describe(f)
			f.describe = nil
		}
	})
	return f.description
}

// VariableNames returns the snapshot names in sorted order.
func (f *Frame) VariableNames() []string {
	names := make([]string, 0, len(f.Variables))
	for name := range f.Variables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FormatVariables renders the snapshot as `{a: 1, b: "x"}`.
func (f *Frame) FormatVariables() string {
	var b strings.Builder
	b.WriteString("{")
	for i, name := range f.VariableNames() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(f.Variables[name].Inspect())
	}
	b.WriteString("}")
	return b.String()
}

// String renders the frame as one timeline row:
//
//	    20  line 2  SUCCESS  Created the variable x and set it to 8.  {x: 8}
func (f *Frame) String() string {
	row := fmt.Sprintf("%6d  line %-3d %-7s  %s", f.Time, f.Line, f.Status, f.Description())
	if len(f.Variables) > 0 {
		row += "  " + f.FormatVariables()
	}
	return row
}

// Entry is what the evaluator knows about a completed step.
type Entry struct {
	Time     int64
	Location ast.Location
	Status   Status
	Result   object.Object
	Error    *diagnostics.Error
	// Visible are the live bindings; the recorder copies what it keeps.
	Visible  map[string]object.Object
	Describe func(*Frame) string
}

type Recorder struct {
	mode   Mode
	frames []*Frame
	logger *slog.Logger
}

func NewRecorder(mode Mode, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{mode: mode, logger: logger}
}

func (r *Recorder) Mode() Mode { return r.mode }

// Record appends a frame for e and returns it.
func (r *Recorder) Record(e Entry) *Frame {
	f := &Frame{
		Index:    len(r.frames),
		Time:     e.Time,
		TimeInMs: float64(e.Time) / 1000,
		Line:     e.Location.Line,
		Location: e.Location,
		Status:   e.Status,
		Error:    e.Error,
	}

	if r.mode == ModeTrace {
		f.Variables = snapshot(e.Visible)
		if e.Result != nil {
			f.Result = object.CloneForSnapshot(e.Result)
		}
		f.describe = e.Describe
	}

	r.frames = append(r.frames, f)

	if e.Status == ERROR {
		r.logger.Debug("error frame",
			slog.Int("index", f.Index),
			slog.Int("line", f.Line),
			slog.String("type", string(e.Error.Type)))
	}
	return f
}

// Frames returns the recorded frames in time order.
func (r *Recorder) Frames() []*Frame {
	out := make([]*Frame, len(r.frames))
	copy(out, r.frames)
	return out
}

func (r *Recorder) Len() int { return len(r.frames) }

// Last returns the most recent frame, or nil.
func (r *Recorder) Last() *Frame {
	if len(r.frames) == 0 {
		return nil
	}
	return r.frames[len(r.frames)-1]
}

func snapshot(visible map[string]object.Object) map[string]object.Object {
	out := make(map[string]object.Object, len(visible))
	for name, v := range visible {
		if !object.IsVariable(v) {
			continue
		}
		out[name] = object.CloneForSnapshot(v)
	}
	return out
}
