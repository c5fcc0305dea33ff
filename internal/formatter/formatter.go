// package formatter writes playlists out as M3U, CSV, Markdown or plain text, and writes bulk export manifests.
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/lark/internal/models"
	"github.com/desertthunder/lark/internal/shared"
)

// Formats accepted by [WriteExport].
const (
	FormatM3U      = "m3u"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
	FormatJSON     = "json"
)

// ParseFormat normalises a user-supplied format name.
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m3u", "m3u8", "":
		return FormatM3U, nil
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
	}
}

// ExportToM3U renders an extended M3U playlist. Paths are written as stored.
func ExportToM3U(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("#EXTM3U\n")
	buf.WriteString(fmt.Sprintf("#PLAYLIST:%s\n", export.Playlist.Name))
	for _, track := range export.Tracks {
		buf.WriteString(fmt.Sprintf("#EXTINF:%d,%s - %s\n", track.Duration, track.Artist, track.Name))
		buf.WriteString(track.Path)
		buf.WriteByte('\n')
	}

	return buf.Bytes(), nil
}

// ExportToCSV converts a PlaylistExport to CSV with columns: TrackID, Title, Artist, Album, Duration, Path
func ExportToCSV(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"TrackID", "Title", "Artist", "Album", "Duration", "Path"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range export.Tracks {
		record := []string{
			strconv.FormatInt(track.TrackID, 10),
			track.Name,
			track.Artist,
			track.Album,
			strconv.Itoa(track.Duration),
			track.Path,
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

// ExportToMarkdown renders a heading, a summary and a numbered track list.
func ExportToMarkdown(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", export.Playlist.Name))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n", len(export.Tracks)))
	buf.WriteString(fmt.Sprintf("**Length**: %s\n\n", shared.FormatSeconds(float64(export.TotalDuration()))))

	buf.WriteString("## Tracks\n\n")
	for i, track := range export.Tracks {
		albumPart := ""
		if track.Album != "" && track.Album != models.UnknownAlbum {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%s]\n",
			i+1, track.Artist, track.Name, albumPart, shared.FormatSeconds(float64(track.Duration))))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a PlaylistExport to plain text format
func ExportToText(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", export.Playlist.Name))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(export.Tracks)))

	for i, track := range export.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, track.Artist, track.Name))
	}

	return buf.Bytes(), nil
}

// ToMetadataJSON generates a JSON representation of playlist metadata (without tracks)
func ToMetadataJSON(export *models.PlaylistExport) ([]byte, error) {
	meta := struct {
		models.Playlist
		TrackCount int       `json:"track_count"`
		Duration   int       `json:"duration"`
		ExportedAt time.Time `json:"exported_at"`
	}{export.Playlist, len(export.Tracks), export.TotalDuration(), export.ExportedAt}
	return json.MarshalIndent(meta, "", "  ")
}

// FileName is the base name used for a playlist's export files: "<id>_<slug>".
func FileName(p models.Playlist) string {
	var b strings.Builder
	for _, r := range strings.ToLower(p.Name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('_')
		}
	}
	slug := strings.Trim(b.String(), "_")
	if slug == "" {
		return strconv.FormatInt(p.PlaylistID, 10)
	}
	return fmt.Sprintf("%d_%s", p.PlaylistID, slug)
}

// WriteExport writes export in format into dir and returns the created files.
//
// CSV produces {base}_tracks.csv and {base}_metadata.json; Markdown produces {base}/README.md;
// the other formats produce a single {base}.{ext} file.
func WriteExport(export *models.PlaylistExport, format, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	base := filepath.Join(dir, FileName(export.Playlist))

	switch format {
	case FormatCSV:
		res, err := WriteCSVExport(export, base)
		if err != nil {
			return nil, err
		}
		return []string{res.TracksFile, res.MetadataFile}, nil
	case FormatMarkdown:
		return WriteMarkdownExport(export, base)
	case FormatText:
		return writeSingle(export, ExportToText, base+"_tracks.txt")
	case FormatJSON:
		return writeSingle(export, func(e *models.PlaylistExport) ([]byte, error) {
			return json.MarshalIndent(e, "", "  ")
		}, base+".json")
	case FormatM3U:
		return writeSingle(export, ExportToM3U, base+".m3u")
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
	}
}

func writeSingle(export *models.PlaylistExport, render func(*models.PlaylistExport) ([]byte, error), path string) ([]string, error) {
	data, err := render(export)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return []string{path}, nil
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport creates {base}_tracks.csv and {base}_metadata.json.
func WriteCSVExport(export *models.PlaylistExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = FileName(export.Playlist)
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		TracksFile:   tracksFile,
		MetadataFile: metadataFile,
	}, nil
}

// WriteMarkdownExport writes {outputDir}/README.md.
func WriteMarkdownExport(export *models.PlaylistExport, outputDir string) ([]string, error) {
	if outputDir == "" {
		outputDir = FileName(export.Playlist)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	mdData, err := ExportToMarkdown(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	return []string{mdFile}, nil
}

type manifestEntry struct {
	PlaylistID int64    `json:"playlist_id"`
	Name       string   `json:"name"`
	Status     string   `json:"status"`
	Files      []string `json:"files,omitempty"`
	Error      string   `json:"error,omitempty"`
}

type manifest struct {
	Format            string          `json:"format"`
	ExportedAt        time.Time       `json:"exported_at"`
	TotalPlaylists    int             `json:"total_playlists"`
	SuccessfulExports int             `json:"successful_exports"`
	FailedExports     int             `json:"failed_exports"`
	OutputDirectory   string          `json:"output_directory"`
	Playlists         []manifestEntry `json:"playlists"`
}

// WriteBulkExportManifest writes a JSON summary of a bulk export to path.
func WriteBulkExportManifest(result *models.BulkExportResult, format, path string) error {
	m := manifest{
		Format:            format,
		ExportedAt:        time.Now().UTC(),
		TotalPlaylists:    result.TotalPlaylists,
		SuccessfulExports: result.SuccessfulExports,
		FailedExports:     result.FailedExports,
		OutputDirectory:   result.OutputDirectory,
		Playlists:         make([]manifestEntry, 0, len(result.Results)),
	}

	for _, r := range result.Results {
		entry := manifestEntry{PlaylistID: r.PlaylistID, Name: r.PlaylistName, Files: r.Files, Status: "success"}
		if !r.Success {
			entry.Status = "failed"
			if r.Error != nil {
				entry.Error = r.Error.Error()
			}
		}
		m.Playlists = append(m.Playlists, entry)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
