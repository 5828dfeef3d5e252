// Package ui renders CLI output: status lines, statements and result tables.
package ui

import (
	"database/sql/driver"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"
)

var (
	accent = lipgloss.Color("#00D9FF")
	muted  = lipgloss.Color("#6C757D")

	sectionStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(muted)
)

type tone struct {
	glyph string
	style lipgloss.Style
	out   io.Writer
}

var (
	success = tone{"✓", lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF88")).Bold(true), os.Stdout}
	failure = tone{"✗", lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444")).Bold(true), os.Stderr}
	info    = tone{"ℹ", lipgloss.NewStyle().Foreground(accent), os.Stdout}
)

func (t tone) print(format string, args []interface{}) {
	fmt.Fprintln(t.out, t.style.Render(t.glyph+" "+fmt.Sprintf(format, args...)))
}

func terminalWidth() int {
	if w := pterm.GetTerminalWidth(); w > 0 {
		return w
	}
	return 80
}

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...interface{}) { success.print(format, args) }

// PrintError prints an error message to stderr
func PrintError(format string, args ...interface{}) { failure.print(format, args) }

// PrintInfo prints an info message
func PrintInfo(format string, args ...interface{}) { info.print(format, args) }

// PrintSection prints an underlined section title
func PrintSection(title string) {
	fmt.Println(sectionStyle.Width(terminalWidth()).Render(title))
}

// PrintTable prints rows under headers using pterm
func PrintTable(headers []string, rows [][]string) error {
	data := append(pterm.TableData{headers}, rows...)
	return pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Render()
}

// PrintMarkdown renders markdown for the terminal
func PrintMarkdown(content string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(terminalWidth()),
	)
	if err != nil {
		return err
	}
	out, err := r.Render(content)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

// StatementMarkdown formats a statement and its bind arguments as markdown
func StatementMarkdown(sql string, args []interface{}) string {
	var b strings.Builder
	b.WriteString("```sql\n")
	b.WriteString(sql)
	b.WriteString("\n```\n")
	if len(args) > 0 {
		b.WriteString("\n| # | value | type |\n|---|---|---|\n")
		for i, a := range args {
			fmt.Fprintf(&b, "| %d | `%s` | %T |\n", i+1, FormatValue(a), a)
		}
	}
	return b.String()
}

// PrintStatement prints a statement and its bind arguments. Plain output
// is a single SQL line followed by one argument per line.
func PrintStatement(sql string, args []interface{}, pretty bool) error {
	if pretty {
		return PrintMarkdown(StatementMarkdown(sql, args))
	}
	fmt.Println(sql)
	argColor := color.New(color.FgCyan)
	for i, a := range args {
		argColor.Printf("$%d = %s\n", i+1, FormatValue(a))
	}
	return nil
}

// FormatValue renders a bound or scanned value for display
func FormatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case driver.Valuer:
		if dv, err := t.Value(); err == nil {
			return FormatValue(dv)
		}
	case []byte:
		return fmt.Sprintf("\\x%x", t)
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}
