// package formatter provides functions to export chart data and run reports to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/desertthunder/chartsync/internal/models"
	"github.com/desertthunder/chartsync/internal/shared"
)

const chartDateLayout = "2006-01-02"

// ChartToCSV converts harvested chart entries to CSV with columns: Date, Song, Artist
func ChartToCSV(entries []models.ChartEntry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Date", "Song", "Artist"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, entry := range entries {
		record := []string{
			entry.ChartDate.Format(chartDateLayout),
			entry.Song,
			entry.Artist,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ChartToMarkdown converts harvested chart entries to a Markdown table
func ChartToMarkdown(entries []models.ChartEntry, title string) ([]byte, error) {
	var buf bytes.Buffer

	if title != "" {
		buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	}
	buf.WriteString(fmt.Sprintf("**Entries**: %d\n\n", len(entries)))
	buf.WriteString("| # | Date | Song | Artist |\n")
	buf.WriteString("|---|------|------|--------|\n")

	for i, entry := range entries {
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s |\n",
			i+1, entry.ChartDate.Format(chartDateLayout), entry.Song, entry.Artist))
	}

	return buf.Bytes(), nil
}

// ChartToText converts harvested chart entries to plain text
func ChartToText(entries []models.ChartEntry) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Entries: %d\n\n", len(entries)))
	for i, entry := range entries {
		buf.WriteString(fmt.Sprintf("%d. %s  %s - %s\n",
			i+1, entry.ChartDate.Format(chartDateLayout), entry.Artist, entry.Song))
	}

	return buf.Bytes(), nil
}

// NotFoundToCSV converts resolution failures to CSV with columns: Song, Artist
func NotFoundToCSV(entries []models.NotFoundEntry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Song", "Artist"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, entry := range entries {
		if err := writer.Write([]string{entry.Song, entry.Artist}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// NotFoundToMarkdown converts resolution failures to a Markdown report
func NotFoundToMarkdown(entries []models.NotFoundEntry) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Unresolved chart entries\n\n")
	if len(entries) == 0 {
		buf.WriteString("Every chart entry resolved to a catalog track.\n")
		return buf.Bytes(), nil
	}

	buf.WriteString(fmt.Sprintf("**Count**: %s\n\n", strconv.Itoa(len(entries))))
	for i, entry := range entries {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, entry.Artist, entry.Song))
	}

	return buf.Bytes(), nil
}

// WriteChartExport writes harvested entries to a file in the given format.
//
// Formats: csv, markdown, txt, json (the default).
func WriteChartExport(entries []models.ChartEntry, format, path string) (string, error) {
	var data []byte
	var err error

	switch format {
	case "csv":
		data, err = ChartToCSV(entries)
	case "markdown", "md":
		data, err = ChartToMarkdown(entries, "UK Singles Chart number ones")
	case "txt", "text":
		data, err = ChartToText(entries)
	default:
		type row struct {
			Date   string `json:"date"`
			Song   string `json:"song"`
			Artist string `json:"artist"`
		}
		rows := make([]row, len(entries))
		for i, entry := range entries {
			rows[i] = row{entry.ChartDate.Format(chartDateLayout), entry.Song, entry.Artist}
		}
		data, err = shared.MarshalJSON(rows, true)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate %s export: %w", format, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

// WriteNotFoundReport writes this run's resolution failures to a file in
// the given format. Formats: csv, markdown, json (the default).
func WriteNotFoundReport(entries []models.NotFoundEntry, format, path string) (string, error) {
	var data []byte
	var err error

	switch format {
	case "csv":
		data, err = NotFoundToCSV(entries)
	case "markdown", "md":
		data, err = NotFoundToMarkdown(entries)
	default:
		data, err = shared.MarshalJSON(entries, true)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate %s report: %w", format, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return path, nil
}
