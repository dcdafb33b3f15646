package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"
)

// Executor runs one parsed shell line.
type Executor func(ctx context.Context, args []string) error

// Line reads input lines; *liner.State implements it.
type Line interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	ReadHistory(r io.Reader) (int, error)
	WriteHistory(w io.Writer) (int, error)
	Close() error
}

// Shell is an interactive read-eval loop.
type Shell struct {
	Prompt    string
	Completer *Completer
	History   *History
	Exec      Executor
	Err       io.Writer

	line Line
}

// NewShell creates a shell reading from the terminal through liner.
func NewShell(prompt string, completer *Completer, history *History, exec Executor, errOut io.Writer) *Shell {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	if completer != nil {
		state.SetCompleter(completer.Complete)
	}
	return newShell(prompt, completer, history, exec, errOut, state)
}

func newShell(prompt string, completer *Completer, history *History, exec Executor, errOut io.Writer, line Line) *Shell {
	if history == nil {
		history = NewHistoryAt("")
	}
	return &Shell{
		Prompt:    prompt,
		Completer: completer,
		History:   history,
		Exec:      exec,
		Err:       errOut,
		line:      line,
	}
}

// Run loops until EOF, "exit"/"quit" or ctx cancellation. Errors of a
// single line are printed and do not end the loop. Ctrl+C aborts the
// current line only.
func (s *Shell) Run(ctx context.Context) error {
	defer s.line.Close()

	if err := s.History.Load(s.line.ReadHistory); err != nil {
		fmt.Fprintf(s.Err, "warning: history: %v\n", err)
	}
	defer func() {
		if err := s.History.Save(s.line.WriteHistory); err != nil {
			fmt.Fprintf(s.Err, "warning: history: %v\n", err)
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		input, err := s.line.Prompt(s.Prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.Err)
			return nil
		}
		if err != nil {
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		s.line.AppendHistory(input)

		switch input {
		case "exit", "quit":
			return nil
		}

		args, err := Split(input)
		if err != nil {
			fmt.Fprintf(s.Err, "error: %v\n", err)
			continue
		}
		if err := s.Exec(ctx, args); err != nil {
			fmt.Fprintf(s.Err, "error: %v\n", err)
		}
	}
}
