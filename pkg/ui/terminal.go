package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Logo is printed by the scrape command unless --quiet is set
const Logo = `
  ┌─┐┌┬┐┌─┐ ┬┬  ┬ ┬┌─┐┬─┐┬  ┬┌─┐┌─┐┌┬┐
  ├┤ ││││ │ │││  ├─┤├─┤├┬┘└┐┌┘├┤ └─┐ │
  └─┘┴ ┴└─┘└┘┴┘  ┴ ┴┴ ┴┴└─ └┘ └─┘└─┘ ┴
`

// Out receives everything this package prints. Stdout is left to emitted
// results.
var Out io.Writer = os.Stderr

var colorEnabled = isTerminal(os.Stderr)

// SetColor turns ANSI colouring on or off
func SetColor(enabled bool) {
	colorEnabled = enabled
}

var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

func colorize(format string) func(string) string {
	return func(text string) string {
		if !colorEnabled {
			return text
		}
		return fmt.Sprintf(format, text)
	}
}

func PrintLogo() {
	fmt.Fprint(Out, Cyan(Logo))
}

// PrintError prints an error message in red, with an optional detail
func PrintError(msg string, args ...interface{}) {
	fmt.Fprintln(Out, Red(withDetail(msg, args)))
}

func PrintSuccess(msg string) {
	fmt.Fprintln(Out, Green(msg))
}

// PrintInfo prints a label/value pair
func PrintInfo(label string, value string) {
	fmt.Fprintf(Out, "%s: %s\n", Cyan(label), Yellow(value))
}

func PrintWarning(msg string, args ...interface{}) {
	fmt.Fprintln(Out, Yellow(withDetail(msg, args)))
}

func PrintHighlight(msg string) {
	fmt.Fprintln(Out, Magenta(msg))
}

func withDetail(msg string, args []interface{}) string {
	if len(args) == 0 {
		return msg
	}
	if s := fmt.Sprintf("%v", args[0]); s != "" {
		return msg + ": " + s
	}
	return msg
}

// ReadSecret prompts on Out and reads a line from in without echo when in
// is a terminal.
func ReadSecret(prompt string, in *os.File) (string, error) {
	fmt.Fprint(Out, prompt)
	if term.IsTerminal(int(in.Fd())) {
		b, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(Out)
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	var line string
	if _, err := fmt.Fscanln(in, &line); err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// IsTerminal reports whether w is attached to a terminal
func IsTerminal(w io.Writer) bool {
	return isTerminal(w)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
