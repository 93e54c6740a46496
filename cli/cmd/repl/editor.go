package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/ardnew/nixsyn/lang"
	"github.com/ardnew/nixsyn/log"
)

const defaultEditor = "vi"

type (
	// editDoneMsg carries the edited document text.
	editDoneMsg struct{ text string }
	// editCancelledMsg is sent when the user cleared the editor content.
	editCancelledMsg struct{}
	// editErrorMsg is sent when the editor could not be run.
	editErrorMsg struct{ err error }
)

// editDocumentCommand implements [tea.ExecCommand] for the edit-check-retry
// loop. The document text is written to a temp file and opened in the
// user's editor. If the result has syntax errors the user is asked whether
// to edit again; answering no keeps the text with its errors.
type editDocumentCommand struct {
	text      string
	cancelled bool
	ctxFunc   func() context.Context
	logger    log.Logger
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editDocumentCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editDocumentCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editDocumentCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the loop. On return c.text holds the accepted text, or
// c.cancelled is set if the user emptied the file.
func (c *editDocumentCommand) Run() error {
	ctx := c.ctxFunc()

	editor, err := findEditor()
	if err != nil {
		return err
	}

	f, err := os.CreateTemp("", "nixsyn-repl-*.nix")
	if err != nil {
		return err
	}

	path := f.Name()

	defer os.Remove(path)

	if err := f.Close(); err != nil {
		return err
	}

	in := bufio.NewScanner(c.stdin)

	for {
		if err := os.WriteFile(path, []byte(c.text), 0o600); err != nil {
			return err
		}

		text, err := runEditor(ctx, editor, path, c.stdin, c.stdout, c.stderr)
		if err != nil {
			return err
		}

		if strings.TrimSpace(text) == "" {
			c.cancelled = true

			return nil
		}

		c.text = text

		_, perr := lang.ParseString(ctx, text, lang.WithCache(false))

		c.logger.TraceContext(ctx, "editor parse attempt",
			slog.Int("content_length", len(text)),
			slog.Bool("success", perr == nil),
		)

		var pe *lang.ParseError
		if !errors.As(perr, &pe) {
			return nil
		}

		for _, s := range pe.Snippets() {
			fmt.Fprintf(c.stderr, "%d:%d: %s\n%s", s.Line, s.Column, s.Message, s.Context)
		}

		if !confirm(c.stdout, in, "Edit again? [Y/n] ") {
			return nil
		}
	}
}

// confirm asks a yes/no question. Anything but an explicit no is yes; a
// closed input is no.
func confirm(w io.Writer, in *bufio.Scanner, question string) bool {
	fmt.Fprint(w, question)

	if !in.Scan() {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(in.Text())) {
	case "n", "no":
		return false
	}

	return true
}

// findEditor returns the command named by $VISUAL or $EDITOR, falling back
// to vi when it can be found on the path.
func findEditor() ([]string, error) {
	for _, name := range []string{"VISUAL", "EDITOR"} {
		if fields := strings.Fields(os.Getenv(name)); len(fields) > 0 {
			return fields, nil
		}
	}

	if _, err := exec.LookPath(defaultEditor); err != nil {
		return nil, ErrNoEditor
	}

	return []string{defaultEditor}, nil
}

// runEditor runs editor on path and returns the edited file content.
func runEditor(
	ctx context.Context,
	editor []string,
	path string,
	stdin io.Reader,
	stdout, stderr io.Writer,
) (string, error) {
	cmd := exec.CommandContext(ctx, editor[0], append(editor[1:], path)...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)

	return string(data), err
}
