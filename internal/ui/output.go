package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	debugStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	headerStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	panelStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(0, 1)
)

// Output handles styled terminal output.
type Output struct {
	out     io.Writer
	err     io.Writer
	noColor bool
}

// NewOutput creates an Output writing to stdout and stderr.
// NO_COLOR and HAX_NO_COLOR disable styling.
func NewOutput() *Output {
	return &Output{
		out:     os.Stdout,
		err:     os.Stderr,
		noColor: IsNoColor(),
	}
}

// NewOutputTo creates an unstyled Output writing to out and errOut.
func NewOutputTo(out, errOut io.Writer) *Output {
	return &Output{out: out, err: errOut, noColor: true}
}

// IsNoColor reports whether styling is disabled by the environment.
func IsNoColor() bool {
	return os.Getenv("NO_COLOR") != "" || isTruthy(os.Getenv("HAX_NO_COLOR"))
}

// SetNoColor disables colored output.
func (o *Output) SetNoColor(v bool) {
	o.noColor = v
}

// Writer returns the writer for regular output.
func (o *Output) Writer() io.Writer {
	return o.out
}

func (o *Output) prefixed(w io.Writer, style lipgloss.Style, icon, plain, msg string) {
	if o.noColor {
		fmt.Fprintf(w, "%s %s\n", plain, msg)
		return
	}
	fmt.Fprintf(w, "%s %s\n", style.Render(icon), msg)
}

// Success prints a success message with a green checkmark.
func (o *Output) Success(format string, args ...any) {
	o.prefixed(o.out, successStyle, "✓", "OK", fmt.Sprintf(format, args...))
}

// Error prints an error message with a red X.
func (o *Output) Error(format string, args ...any) {
	o.prefixed(o.err, errorStyle, "✗", "FAIL", fmt.Sprintf(format, args...))
}

// Warning prints a warning message with a yellow exclamation.
func (o *Output) Warning(format string, args ...any) {
	o.prefixed(o.err, warningStyle, "!", "WARN", fmt.Sprintf(format, args...))
}

// Info prints an informational message.
func (o *Output) Info(format string, args ...any) {
	fmt.Fprintf(o.out, format+"\n", args...)
}

// Println prints a line to stdout.
func (o *Output) Println(format string, args ...any) {
	fmt.Fprintf(o.out, format+"\n", args...)
}

// Debug prints a debug message to stderr.
func (o *Output) Debug(format string, args ...any) {
	o.prefixed(o.err, debugStyle, "[debug]", "DEBUG", fmt.Sprintf(format, args...))
}

// Dim prints a de-emphasized line.
func (o *Output) Dim(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if !o.noColor {
		msg = dimStyle.Render(msg)
	}
	fmt.Fprintln(o.out, msg)
}

// Panel prints lines inside a rounded box, headed by title.
func (o *Output) Panel(title string, lines ...string) {
	if o.noColor {
		fmt.Fprintf(o.out, "== %s ==\n", title)
		for _, l := range lines {
			fmt.Fprintf(o.out, "  %s\n", l)
		}
		return
	}
	body := headerStyle.Render(title)
	if len(lines) > 0 {
		body += "\n" + strings.Join(lines, "\n")
	}
	fmt.Fprintln(o.out, panelStyle.Render(body))
}

// Table prints a simple aligned table.
func (o *Output) Table(headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = pad(h, widths[i])
	}
	header := strings.TrimRight(strings.Join(cells, "  "), " ")
	if !o.noColor {
		header = headerStyle.Render(header)
	}
	fmt.Fprintln(o.out, header)

	seps := make([]string, len(widths))
	for i, w := range widths {
		seps[i] = strings.Repeat("-", w)
	}
	fmt.Fprintln(o.out, strings.Join(seps, "  "))

	for _, row := range rows {
		cells = cells[:0]
		for i, cell := range row {
			if i < len(widths) {
				cells = append(cells, pad(cell, widths[i]))
			}
		}
		fmt.Fprintln(o.out, strings.TrimRight(strings.Join(cells, "  "), " "))
	}
}

func pad(s string, width int) string {
	if n := width - lipgloss.Width(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}
