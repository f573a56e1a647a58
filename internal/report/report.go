// Package report renders run results and the source registry for the
// terminal.
package report

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/cryptovalleyjobs/jobfeed/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")) // bright blue

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("245"))

	dividerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dim gray

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Width(12)
)

// column is one fixed-width table column.
type column struct {
	title string
	width int
}

// cell pads or cuts s to exactly width runes before styling, so rows line up.
func cell(s string, width int, style lipgloss.Style) string {
	if utf8.RuneCountInString(s) > width {
		r := []rune(s)
		s = string(r[:width-1]) + "…"
	}
	return style.Render(s + strings.Repeat(" ", width-utf8.RuneCountInString(s)))
}

func header(cols []column) string {
	var b strings.Builder
	total := 0
	for _, c := range cols {
		b.WriteString(cell(c.title, c.width, headerStyle))
		total += c.width
	}
	b.WriteString("\n")
	b.WriteString(dividerStyle.Render(strings.Repeat("─", total)))
	b.WriteString("\n")
	return b.String()
}

// RunSummary renders a scrape run as a per-source table plus totals.
func RunSummary(s model.RunSummary) string {
	cols := []column{{"Company", 26}, {"Strategy", 12}, {"Found", 7}, {"New", 6}, {"Dup", 6}, {"Filtered", 10}, {"Status", 40}}

	var b strings.Builder
	title := "Scrape run"
	if s.DryRun {
		title += " (dry run)"
	}
	b.WriteString(titleStyle.Render(title))
	if s.RunID != "" {
		b.WriteString(" " + dimStyle.Render(s.RunID))
	}
	b.WriteString("\n\n")
	b.WriteString(header(cols))

	for _, r := range s.Sources {
		status, style := "ok", okStyle
		switch {
		case r.Skipped:
			status, style = "skipped", dimStyle
		case r.Err != nil:
			status, style = r.Err.Error(), errStyle
		}
		b.WriteString(cell(r.Company, cols[0].width, lipgloss.NewStyle()))
		b.WriteString(cell(r.Strategy, cols[1].width, dimStyle))
		b.WriteString(cell(fmt.Sprint(r.Found), cols[2].width, lipgloss.NewStyle()))
		b.WriteString(cell(fmt.Sprint(r.New), cols[3].width, lipgloss.NewStyle()))
		b.WriteString(cell(fmt.Sprint(r.Duplicates), cols[4].width, lipgloss.NewStyle()))
		b.WriteString(cell(fmt.Sprint(r.Filtered), cols[5].width, lipgloss.NewStyle()))
		b.WriteString(cell(status, cols[6].width, style))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Done: %d new jobs inserted, %d source errors", s.Inserted(), s.Errors()))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  (%d duplicates, %d filtered, %d skipped, %s)",
		s.Duplicates(), s.Filtered(), s.Skipped(), s.FinishedAt.Sub(s.StartedAt).Round(time.Second))))
	b.WriteString("\n")
	return b.String()
}

// JobReport renders a backfill or logos run.
func JobReport(r model.JobReport) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(r.Job))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Updated") + okStyle.Render(fmt.Sprint(r.Updated)) + "\n")
	if r.Job == "logos" {
		b.WriteString(labelStyle.Render("Skipped") + dimStyle.Render(fmt.Sprint(r.Skipped)) + "\n")
	}
	failStyle := dimStyle
	if r.Failed > 0 {
		failStyle = errStyle
	}
	b.WriteString(labelStyle.Render("Failed") + failStyle.Render(fmt.Sprint(r.Failed)) + "\n")
	b.WriteString(labelStyle.Render("Duration") + r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String() + "\n")
	return b.String()
}

// Sources renders the source registry in order. delay reports the rate limit
// gap for a strategy; known reports whether a strategy is supported.
func Sources(sources []model.SourceConfig, delay func(strategy string) time.Duration, known func(strategy string) bool) string {
	cols := []column{{"Company", 26}, {"Strategy", 12}, {"Address", 56}, {"Delay", 8}}

	var b strings.Builder
	b.WriteString(header(cols))

	counts := map[string]int{}
	unknown := 0
	for _, src := range sources {
		address := src.URL
		if address == "" {
			address = src.Board
		}
		strategyStyle := dimStyle
		if !known(src.Type) {
			strategyStyle = errStyle
			unknown++
		}
		counts[src.Type]++

		b.WriteString(cell(src.Company, cols[0].width, lipgloss.NewStyle()))
		b.WriteString(cell(src.Type, cols[1].width, strategyStyle))
		b.WriteString(cell(address, cols[2].width, lipgloss.NewStyle()))
		b.WriteString(cell(delay(src.Type).String(), cols[3].width, dimStyle))
		b.WriteString("\n")
	}

	var parts []string
	for _, strategy := range []string{
		model.StrategyGreenhouse, model.StrategyLever, model.StrategyAshby,
		model.StrategyGeneric, model.StrategyLinkedIn,
	} {
		if n := counts[strategy]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, strategy))
		}
	}
	if unknown > 0 {
		parts = append(parts, errStyle.Render(fmt.Sprintf("%d unsupported", unknown)))
	}
	b.WriteString(fmt.Sprintf("\nTotal: %d sources", len(sources)))
	if len(parts) > 0 {
		b.WriteString(" (" + strings.Join(parts, ", ") + ")")
	}
	b.WriteString("\n")
	return b.String()
}
