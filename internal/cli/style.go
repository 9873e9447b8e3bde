package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/medigate/medigate-cli/internal/api"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	idStyle    = lipgloss.NewStyle().Width(5).Foreground(lipgloss.Color("245"))
)

func printTitle(w io.Writer, title string, count int) {
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render(title), mutedStyle.Render(fmt.Sprintf("(%d)", count)))
}

func printRow(w io.Writer, id any, main string, details ...string) {
	line := idStyle.Render(fmt.Sprint(id)) + main
	if len(details) > 0 {
		line += "  " + mutedStyle.Render(strings.Join(details, " · "))
	}
	fmt.Fprintln(w, line)
}

func printOK(w io.Writer, msg string) {
	fmt.Fprintln(w, okStyle.Render("✓ "+msg))
}

func printEmpty(w io.Writer, msg string) {
	fmt.Fprintln(w, mutedStyle.Render(msg))
}

func yesNo(v bool, yes, no string) string {
	if v {
		return okStyle.Render(yes)
	}
	return warnStyle.Render(no)
}

// unwrap returns the data of a successful result or its failure as an error.
func unwrap[T any](res api.Result[T]) (T, error) {
	if !res.OK() {
		var zero T
		return zero, res.Err()
	}
	return res.Data, nil
}
