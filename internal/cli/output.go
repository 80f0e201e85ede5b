// Package cli renders comparison results, models and history for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/hyperjump/awase/internal/models"
	"github.com/hyperjump/awase/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable tables (default).
	OutputText OutputFormat = "text"
	// OutputCompact prints one diff-style line per flagged sentence.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

// sentenceWidth caps the sentence column of text tables.
const sentenceWidth = 100

// ParseOutputFormat validates a --format value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", OutputText:
		return OutputText, nil
	case OutputCompact, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, compact or json)", s)
	}
}

// ShouldColorize reports whether w is a terminal.
func ShouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// WriteComparison writes a comparison result to w in the given format.
func WriteComparison(w io.Writer, result *models.ComparisonResult, format OutputFormat, colorize bool) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, result)
	case OutputCompact:
		return writeComparisonCompact(w, result, colorize)
	default:
		return writeComparisonText(w, result, colorize)
	}
}

func writeComparisonText(w io.Writer, result *models.ComparisonResult, colorize bool) error {
	fmt.Fprintf(w, "Model: %s | Threshold: %.2f | Sentences: %d original, %d counterpart\n",
		result.Model, result.Threshold, len(result.OriginalSentences), len(result.TranslatedSentences))
	writeStatus(w, result, colorize)

	sections := []struct {
		title     string
		sentences []string
		indices   []int
		color     string
	}{
		{"Missing from counterpart", result.MissingInfo, result.MissingInfoIndices, ansiRed},
		{"Extra in counterpart", result.ExtraInfo, result.ExtraInfoIndices, ansiGreen},
	}
	for _, s := range sections {
		title := fmt.Sprintf("%s (%d)", s.title, len(s.sentences))
		if colorize {
			title = s.color + title + ansiReset
		}
		fmt.Fprintf(w, "\n%s\n", title)
		if len(s.sentences) == 0 {
			fmt.Fprintln(w, "  none")
			continue
		}
		rows := make([][]string, len(s.sentences))
		for i, sentence := range s.sentences {
			rows[i] = []string{strconv.Itoa(s.indices[i]), utils.Truncate(utils.CollapseWhitespace(sentence), sentenceWidth)}
		}
		fmt.Fprintln(w, renderTable([]string{"#", "Sentence"}, rows, []text.Align{text.AlignRight, text.AlignLeft}))
	}
	return nil
}

func writeComparisonCompact(w io.Writer, result *models.ComparisonResult, colorize bool) error {
	for i, s := range result.MissingInfo {
		line := fmt.Sprintf("- [%d] %s", result.MissingInfoIndices[i], s)
		if colorize {
			line = ansiRed + line + ansiReset
		}
		fmt.Fprintln(w, line)
	}
	for i, s := range result.ExtraInfo {
		line := fmt.Sprintf("+ [%d] %s", result.ExtraInfoIndices[i], s)
		if colorize {
			line = ansiGreen + line + ansiReset
		}
		fmt.Fprintln(w, line)
	}
	writeStatus(w, result, colorize)
	return nil
}

func writeStatus(w io.Writer, result *models.ComparisonResult, colorize bool) {
	if result.Success {
		return
	}
	line := "Degraded: " + strings.Join(result.Failures, "; ")
	if colorize {
		line = ansiYellow + line + ansiReset
	}
	fmt.Fprintln(w, line)
}

// WriteLLMComparison writes an LLM comparison to w in the given format.
func WriteLLMComparison(w io.Writer, result *models.LLMComparison, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, result)
	}
	if !result.Success {
		fmt.Fprintf(w, "LLM comparison failed: %s\n", result.Error)
		return nil
	}
	for _, s := range result.MissingInfo {
		fmt.Fprintf(w, "- %s\n", s)
	}
	for _, s := range result.ExtraInfo {
		fmt.Fprintf(w, "+ %s\n", s)
	}
	return nil
}

// WriteTranslation writes a translation; text and compact print the
// translated text alone so it can be piped into another command.
func WriteTranslation(w io.Writer, result *models.Translation, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, result)
	}
	if !result.Success {
		fmt.Fprintf(w, "Translation failed: %s\n", result.Error)
		return nil
	}
	fmt.Fprintln(w, result.Text)
	return nil
}

// WriteModels writes registry entries, marking the selected one.
func WriteModels(w io.Writer, entries []models.ModelEntry, selected string, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No models.")
		return nil
	}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		mark := ""
		if e.Name == selected {
			mark = "*"
		}
		rows[i] = []string{mark, e.Name, string(e.Source), e.Path, e.AddedAt.Format("2006-01-02")}
	}
	if format == OutputCompact {
		for _, r := range rows {
			fmt.Fprintf(w, "%1s %s\n", r[0], r[1])
		}
		return nil
	}
	fmt.Fprintln(w, renderTable([]string{"", "Name", "Source", "Path", "Added"}, rows, nil))
	return nil
}

// WriteHistory writes stored comparison summaries.
func WriteHistory(w io.Writer, records []*models.ComparisonRecord, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, records)
	}
	if len(records) == 0 {
		fmt.Fprintln(w, "No comparisons recorded.")
		return nil
	}
	rows := make([][]string, len(records))
	for i, r := range records {
		status := "ok"
		if !r.Success {
			status = "degraded"
		}
		rows[i] = []string{
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.SourceLanguage + "->" + r.TargetLanguage,
			r.Model,
			fmt.Sprintf("%.2f", r.Threshold),
			strconv.Itoa(r.MissingCount),
			strconv.Itoa(r.ExtraCount),
			status,
		}
	}
	if format == OutputCompact {
		for _, r := range rows {
			fmt.Fprintf(w, "%s %s -%s +%s %s\n", r[0], r[1], r[5], r[6], r[7])
		}
		return nil
	}
	fmt.Fprintln(w, renderTable(
		[]string{"ID", "Created", "Languages", "Model", "Threshold", "Missing", "Extra", "Status"},
		rows,
		[]text.Align{text.AlignLeft, text.AlignLeft, text.AlignLeft, text.AlignLeft, text.AlignRight, text.AlignRight, text.AlignRight, text.AlignLeft},
	))
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderTable(headers []string, rows [][]string, aligns []text.Align) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, columns)
	for i := range configs {
		align := text.AlignLeft
		if i < len(aligns) {
			align = aligns[i]
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft}
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}
