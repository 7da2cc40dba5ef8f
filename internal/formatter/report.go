package formatter

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/plstat/internal/models"
	"github.com/desertthunder/plstat/internal/tasks"
	"github.com/olekukonko/tablewriter"
)

// Section titles of a rendered report.
const (
	SummaryTitle    = "Playlist summary"
	TracksTitle     = "Track details"
	PopularityTitle = "Popularity distribution"
	ArtistsTitle    = "Top artists in this playlist"
	GenresTitle     = "Top genres in this playlist"
)

// NoGenres replaces the genre chart when no track carries a genre.
const NoGenres = "No genre information available for this playlist"

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	widgetStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#626262")).Padding(0, 2)
	metricStyle = lipgloss.NewStyle().Bold(true)
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	infoStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#626262"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
)

// RenderOptions size the charts.
type RenderOptions struct {
	BarWidth   int // Cells of the longest bar, 40 when zero
	LabelWidth int // Label column width, longer labels are truncated, 28 when zero
}

func (o RenderOptions) withDefaults() RenderOptions {
	if o.BarWidth <= 0 {
		o.BarWidth = 40
	}
	if o.LabelWidth <= 0 {
		o.LabelWidth = 28
	}
	return o
}

// RenderReport writes the complete results view: warnings, summary widgets, track table and the three charts.
func RenderReport(w io.Writer, report *tasks.Report, opts RenderOptions) error {
	_, err := io.WriteString(w, Report(report, opts))
	return err
}

// Report renders the results view to a string.
func Report(report *tasks.Report, opts RenderOptions) string {
	opts = opts.withDefaults()

	var b strings.Builder
	for _, warning := range report.Warnings {
		b.WriteString(warnStyle.Render("⚠ "+warning.Message()) + "\n")
	}
	if len(report.Warnings) > 0 {
		b.WriteString("\n")
	}

	section(&b, SummaryTitle, Widgets(report.Summary))
	section(&b, TracksTitle, Table(report.Tracks))
	section(&b, PopularityTitle, PopularityChart(report.Tracks, opts))
	section(&b, ArtistsTitle, CountChart(report.Summary.TopArtists, opts))

	if report.HasGenres() {
		section(&b, GenresTitle, CountChart(report.Summary.TopGenres, opts))
	} else {
		section(&b, GenresTitle, infoStyle.Render(NoGenres))
	}

	return b.String()
}

func section(b *strings.Builder, title, body string) {
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")
	b.WriteString(strings.TrimRight(body, "\n"))
	b.WriteString("\n\n")
}

// Widgets renders the three summary metrics side by side.
func Widgets(s models.Summary) string {
	widget := func(label, value string) string {
		return widgetStyle.Render(label + "\n" + metricStyle.Render(value))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		widget("Tracks", strconv.Itoa(s.TotalTracks)),
		widget("Total length (hours)", s.HoursLabel()),
		widget("Average popularity", s.PopularityLabel()),
	)
}

// Table renders the track details in playlist order.
func Table(tracks []models.EnrichedTrack) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.Header(TrackColumns)

	for _, t := range tracks {
		if err := table.Append(TrackRow(t)); err != nil {
			return fmt.Sprintf("unable to render tracks: %v", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Sprintf("unable to render tracks: %v", err)
	}
	return buf.String()
}

// PopularityChart draws one bar per track on a 0-100 scale.
//
// Tracks are labelled by name, so duplicates simply repeat. Missing popularity is shown as N/A without a bar.
func PopularityChart(tracks []models.EnrichedTrack, opts RenderOptions) string {
	bars := make([]bar, 0, len(tracks))
	for _, t := range tracks {
		if t.Popularity == nil {
			bars = append(bars, bar{label: t.Name, value: 0, shown: models.NotAvailable})
			continue
		}
		bars = append(bars, bar{label: t.Name, value: float64(*t.Popularity), shown: strconv.Itoa(*t.Popularity)})
	}
	return barChart(bars, 100, opts)
}

// CountChart draws a frequency table as bars scaled to its largest count.
func CountChart(counts []models.Count, opts RenderOptions) string {
	peak := 0
	bars := make([]bar, 0, len(counts))
	for _, c := range counts {
		peak = max(peak, c.Count)
		bars = append(bars, bar{label: c.Label, value: float64(c.Count), shown: strconv.Itoa(c.Count)})
	}
	return barChart(bars, float64(peak), opts)
}

type bar struct {
	label string
	value float64
	shown string
}

// barChart renders horizontal bars, one row each, in the given order.
// Each axis label carries the bar's value so missing data stays readable.
func barChart(bars []bar, peak float64, opts RenderOptions) string {
	if len(bars) == 0 {
		return ""
	}
	opts = opts.withDefaults()

	labelWidth := 0
	data := make([]barchart.BarData, 0, len(bars))
	for _, b := range bars {
		label := barLabel(b.label, b.shown, opts.LabelWidth)
		labelWidth = max(labelWidth, lipgloss.Width(label))
		data = append(data, barchart.BarData{
			Label:  label,
			Values: []barchart.BarValue{{Name: b.label, Value: b.value, Style: barStyle}},
		})
	}
	if peak <= 0 {
		peak = 1
	}

	chart := barchart.New(labelWidth+1+opts.BarWidth, len(data),
		barchart.WithHorizontalBars(),
		barchart.WithBarWidth(1),
		barchart.WithBarGap(0),
		barchart.WithMaxValue(peak),
		barchart.WithDataSet(data),
	)
	chart.Draw()
	return chart.View() + "\n"
}

// barLabel pads the truncated label to width and appends the displayed value.
func barLabel(label, shown string, width int) string {
	label = truncate(label, width)
	pad := strings.Repeat(" ", max(0, width-lipgloss.Width(label)))
	return label + pad + " " + shown
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// Playlists lists the selection labels, one per line, numbered from 1.
func Playlists(playlists []models.PlaylistSummary) string {
	var b strings.Builder
	for i, p := range playlists {
		fmt.Fprintf(&b, "%2d. %s\n", i+1, p.Label())
	}
	return b.String()
}
