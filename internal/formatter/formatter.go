// package formatter provides functions to export track listings to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wavecrest/harmonia/internal/models"
)

// ExportToCSV converts a track listing to CSV format with columns: Source, ID, Name, Artist, Album
func ExportToCSV(songs []models.Song) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Source", "ID", "Name", "Artist", "Album"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range songs {
		record := []string{
			string(song.Source),
			song.ID,
			song.Name,
			song.Artist,
			song.Album,
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

// ExportToMarkdown converts a track listing to Markdown under the given title
func ExportToMarkdown(title string, songs []models.Song) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(songs)))

	for i, song := range songs {
		albumPart := ""
		if song.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", song.Album)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%s]\n", i+1, song.Artist, song.Name, albumPart, song.Source))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a track listing to plain text format
func ExportToText(title string, songs []models.Song) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("%s\n", title))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(songs)))

	for i, song := range songs {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, song.Artist, song.Name))
	}

	return buf.Bytes(), nil
}

// WriteExport writes a track listing to path, choosing the format from the
// file extension (.csv, .md, anything else is plain text).
func WriteExport(path, title string, songs []models.Song) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		data, err = ExportToCSV(songs)
	case ".md", ".markdown":
		data, err = ExportToMarkdown(title, songs)
	default:
		data, err = ExportToText(title, songs)
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}
