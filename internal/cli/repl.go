package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"

	"github.com/at-ishikawa/aicalc/internal/calculator"
	"github.com/at-ishikawa/aicalc/internal/history"
	"github.com/at-ishikawa/aicalc/internal/inference"
	"github.com/at-ishikawa/aicalc/internal/orchestrator"
)

var errEnd = errors.New("end")

type Calculator interface {
	Evaluate(ctx context.Context, expression string, forceAI bool) (orchestrator.Outcome, error)
	Subscribe(listener func(orchestrator.StateChange))
}

const helpText = `Enter an expression such as 12 * (3 + 4), or a question for the AI.
Input starting with + - * / % continues from the previous result.

Commands:
  :ai <input>       ask the AI directly
  :history          show previous calculations
  :clear-history    delete previous calculations
  :reset            forget the previous result
  :help             show this help
  :quit             exit
`

// REPL is an interactive terminal calculator.
type REPL struct {
	calculator   Calculator
	store        history.Store
	stdinReader  *bufio.Reader
	stdoutWriter io.Writer

	// lastResult is the last numeric result, used to continue a calculation
	lastResult string

	bold    *color.Color
	faint   *color.Color
	ai      *color.Color
	failure *color.Color
}

func NewREPL(calc Calculator, store history.Store, stdin io.Reader, stdout io.Writer) *REPL {
	r := &REPL{
		calculator:   calc,
		store:        store,
		stdinReader:  bufio.NewReader(stdin),
		stdoutWriter: stdout,
		bold:         color.New(color.Bold),
		faint:        color.New(color.Faint),
		ai:           color.New(color.FgCyan, color.Bold),
		failure:      color.New(color.FgRed),
	}
	calc.Subscribe(func(change orchestrator.StateChange) {
		if change.To == orchestrator.StateEvaluatingAI {
			_, _ = r.faint.Fprintln(r.stdoutWriter, "Asking AI...")
		}
	})
	return r
}

// Run reads input until EOF, :quit or an interrupt.
func (r *REPL) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	_, _ = r.faint.Fprintln(r.stdoutWriter, "Type :help for commands.")

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := r.Session(ctx); err != nil {
				if !errors.Is(err, errEnd) {
					errCh <- err
				}
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
		_, _ = fmt.Fprintln(r.stdoutWriter, "Received interrupt signal, exiting...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("error: %w", err)
		}
	}
	return nil
}

// Session handles one line of input.
func (r *REPL) Session(ctx context.Context) error {
	_, _ = r.bold.Fprint(r.stdoutWriter, "> ")

	line, err := r.stdinReader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("error reading input: %w", err)
	}
	if errors.Is(err, io.EOF) && line == "" {
		_, _ = fmt.Fprintln(r.stdoutWriter)
		return errEnd
	}
	line = strings.TrimRight(line, "\r\n")

	command, argument, _ := strings.Cut(strings.TrimSpace(line), " ")
	switch command {
	case ":quit", ":q", ":exit":
		return errEnd
	case ":help":
		_, _ = fmt.Fprint(r.stdoutWriter, helpText)
		return nil
	case ":history":
		return r.printHistory(ctx)
	case ":clear-history":
		if err := r.store.Clear(ctx); err != nil {
			return fmt.Errorf("store.Clear() > %w", err)
		}
		_, _ = fmt.Fprintln(r.stdoutWriter, "History cleared.")
		return nil
	case ":reset":
		r.lastResult = ""
		return nil
	case ":ai":
		return r.evaluate(ctx, strings.TrimSpace(argument), true)
	}
	return r.evaluate(ctx, r.continueFromLastResult(line), false)
}

func (r *REPL) continueFromLastResult(line string) string {
	if r.lastResult == "" || line == "" {
		return line
	}
	if strings.ContainsRune("+-*/%×÷", []rune(line)[0]) {
		return r.lastResult + line
	}
	return line
}

func (r *REPL) evaluate(ctx context.Context, expression string, forceAI bool) error {
	outcome, err := r.calculator.Evaluate(ctx, expression, forceAI)
	if errors.Is(err, orchestrator.ErrEmptyExpression) {
		return nil
	}
	if errors.Is(err, orchestrator.ErrBusy) {
		_, _ = r.faint.Fprintln(r.stdoutWriter, "A calculation is already in progress.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("calculator.Evaluate() > %w", err)
	}

	if outcome.IsAI {
		_, _ = r.ai.Fprint(r.stdoutWriter, "[AI] ")
	}
	result := outcome.Result
	if result.IsError() {
		_, _ = r.failure.Fprintln(r.stdoutWriter, result.Value)
		if errors.Is(result.Cause, inference.ErrMissingCredential) {
			_, _ = r.faint.Fprintln(r.stdoutWriter, "AI is not configured. Set API_KEY to enable AI evaluation.")
		}
		r.lastResult = ""
		return nil
	}

	_, _ = r.bold.Fprintf(r.stdoutWriter, "%s = %s\n", expression, result.Value)
	if result.Kind == calculator.KindNumber {
		r.lastResult = result.Value
	} else {
		r.lastResult = ""
	}
	return nil
}

func (r *REPL) printHistory(ctx context.Context) error {
	entries, err := r.store.List(ctx)
	if err != nil {
		return fmt.Errorf("store.List() > %w", err)
	}
	return WriteHistory(r.stdoutWriter, entries)
}

// WriteHistory prints one line per entry in the given order.
func WriteHistory(w io.Writer, entries []history.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No calculations yet.")
		return err
	}
	for _, entry := range entries {
		tag := ""
		if entry.IsAI {
			tag = " [AI]"
		}
		if _, err := fmt.Fprintf(w, "%s  %s = %s%s\n",
			entry.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			entry.Expression,
			entry.Result,
			tag,
		); err != nil {
			return err
		}
	}
	return nil
}
