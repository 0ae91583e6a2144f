package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/idelchi/topdirs/internal/report"
	"github.com/idelchi/topdirs/internal/topdirs"
)

const (
	// TabSpacing is the number of spaces between tabwriter columns.
	TabSpacing = 2
)

// PrintJSON outputs the report in JSON format.
func PrintJSON(rep *report.Report, writer io.Writer) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	if _, err := fmt.Fprintln(writer, string(data)); err != nil {
		return err
	}

	return nil
}

// PrintPaths outputs one directory per line, largest first.
func PrintPaths(result *topdirs.Result, writer io.Writer) error {
	for _, record := range result.Records {
		if _, err := fmt.Fprintln(writer, record.Path); err != nil {
			return err
		}
	}

	return nil
}

// PrintTable outputs the report in human-readable table format.
//
//nolint:forbidigo // This function prints output to the console.
func PrintTable(rep *report.Report, writer io.Writer) error {
	w := tabwriter.NewWriter(writer, 0, 4, TabSpacing, ' ', 0)

	fmt.Fprintf(w, "\nTop %d largest folders:\t\t\n", rep.TopN)

	for _, dir := range rep.Records {
		fmt.Fprintf(w, "  %d) '%s'\t%.2f GB\t%s", dir.Rank, dir.Path, dir.SizeGiB, dir.Size)

		if rep.Filesystem != nil {
			fmt.Fprintf(w, " (%.1f%%)", dir.Percent)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "\nStats:\t\t")
	fmt.Fprintf(w, "Total directories:\t%d\n", rep.Directories)

	if rep.ProbeFailures > 0 {
		fmt.Fprintf(w, "Unreadable directories:\t%d\n", rep.ProbeFailures)
	}

	if fs := rep.Filesystem; fs != nil {
		fmt.Fprintf(w, "Filesystem:\t%s, %s used of %s (%.1f%%)\n",
			fs.Filesystem, humanize.IBytes(fs.UsedBytes), humanize.IBytes(fs.TotalBytes), fs.UsagePercent)
	}

	fmt.Fprintf(w, "\nAnalysis completed in %.2f seconds\n", rep.ElapsedSeconds)

	return w.Flush()
}
