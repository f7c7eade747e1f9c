// Package repl runs an interactive JikiScript session. Every accepted
// chunk is appended to the session program, the whole program is run again
// and only the frames the new chunk produced are printed.
package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/peterh/liner"

	"jiki/internal/diagnostics"
	"jiki/internal/frames"
	"jiki/internal/interpreter"
	"jiki/internal/util"
)

const (
	PROMPT   = ">> "
	CONTINUE = ".. "
)

// Session is the program typed so far.
type Session struct {
	opts   interpreter.Options
	chunks []string
	seen   int
}

func NewSession(opts interpreter.Options) *Session {
	return &Session{opts: opts}
}

// Source is the session program.
func (s *Session) Source() string {
	return strings.Join(s.chunks, "\n")
}

func (s *Session) Reset() {
	s.chunks = nil
	s.seen = 0
}

// Incomplete reports whether src only fails to parse because a block is
// still open.
func (s *Session) Incomplete(src string) bool {
	_, err := interpreter.Compile(s.joined(src), s.opts.Features)
	return err != nil && err.Type == diagnostics.MissingEnd
}

func (s *Session) joined(chunk string) string {
	if len(s.chunks) == 0 {
		return chunk
	}
	return s.Source() + "\n" + chunk
}

// Submit runs the session with chunk appended. A chunk that does not
// compile is dropped and the compile error is returned; otherwise the
// chunk is kept and the frames it added are returned.
func (s *Session) Submit(chunk string) ([]*frames.Frame, *interpreter.Result) {
	src := s.joined(chunk)
	result := interpreter.InterpretSource(src, s.opts)
	if len(result.Frames) == 0 && result.Error != nil && result.Error.Kind == diagnostics.KindSyntax {
		return nil, result
	}

	s.chunks = append(s.chunks, chunk)
	var added []*frames.Frame
	if s.seen < len(result.Frames) {
		added = result.Frames[s.seen:]
	}
	s.seen = len(result.Frames)
	return added, result
}

type lineReader interface {
	Prompt(prompt string) (string, error)
}

type scannerReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func (r *scannerReader) Prompt(prompt string) (string, error) {
	fmt.Fprint(r.out, prompt)
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

// Start reads from in without line editing. It is what tests and piped
// input use.
func Start(in io.Reader, out io.Writer, opts interpreter.Options) {
	loop(&scannerReader{scanner: bufio.NewScanner(in), out: out}, out, NewSession(opts), nil)
}

// StartInteractive runs the session on the terminal with line editing and
// a history file. An empty historyPath disables history.
func StartInteractive(out io.Writer, opts interpreter.Options, historyPath string) {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			_, _ = ln.ReadHistory(f)
			f.Close()
		}
		defer func() {
			f, err := os.Create(historyPath)
			if err != nil {
				slog.Warn("cannot write history", slog.String("path", historyPath), slog.Any("error", err))
				return
			}
			_, _ = ln.WriteHistory(f)
			f.Close()
		}()
	}

	loop(ln, out, NewSession(opts), func(entry string) {
		ln.AppendHistory(strings.ReplaceAll(entry, "\n", " "))
	})
}

func loop(r lineReader, out io.Writer, session *Session, remember func(string)) {
	for {
		chunk, ok := readChunk(r, session)
		if !ok {
			fmt.Fprintln(out)
			return
		}

		switch strings.TrimSpace(chunk) {
		case "":
			continue
		case ":quit":
			return
		case ":reset":
			session.Reset()
			fmt.Fprintln(out, "session cleared")
			continue
		case ":source":
			fmt.Fprintln(out, session.Source())
			continue
		}

		if remember != nil {
			remember(chunk)
		}

		added, result := session.Submit(chunk)
		if result.Error != nil && result.Error.Kind == diagnostics.KindSyntax {
			printSyntaxError(out, chunk, result.Error, session)
			continue
		}
		for _, f := range added {
			fmt.Fprintln(out, f.String())
		}
		if result.Halted {
			fmt.Fprintf(out, "halted: %s\n", result.Error.Message)
		}
	}
}

// readChunk keeps prompting while the input so far is an open block.
func readChunk(r lineReader, session *Session) (string, bool) {
	var b strings.Builder
	for {
		prompt := PROMPT
		if b.Len() > 0 {
			prompt = CONTINUE
		}
		line, err := r.Prompt(prompt)
		if err != nil {
			if b.Len() > 0 && errors.Is(err, io.EOF) {
				return b.String(), true
			}
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		if strings.HasPrefix(strings.TrimSpace(b.String()), ":") || !session.Incomplete(b.String()) {
			return b.String(), true
		}
	}
}

// printSyntaxError shows the error against the chunk. Locations count from
// the start of the session program, so the line is shifted back.
func printSyntaxError(out io.Writer, chunk string, err *diagnostics.Error, session *Session) {
	offset := 0
	if src := session.Source(); src != "" {
		offset = strings.Count(src, "\n") + 1
	}
	line := err.Location.Line - offset
	if line < 1 {
		line = 1
	}
	fmt.Fprintln(out, util.GetContextLines(chunk, line, err.Location.Column, err.Message))
}
