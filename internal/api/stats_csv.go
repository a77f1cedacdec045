package api

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"podo/internal/backend"
	"podo/internal/services"
)

// StatsCSVHeader is the first row of every stats export.
var StatsCSVHeader = []string{"name", "tags", "type", "mean", "median", "std", "ci_90", "ci_95", "ci_99"}

// WriteStatsCSV writes one row per contributing file. Tags are joined with
// semicolons.
func WriteStatsCSV(w io.Writer, stats []backend.StimulusStats) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(StatsCSVHeader); err != nil {
		return err
	}
	for _, stat := range stats {
		numbers := []string{
			formatStat(stat.Mean),
			formatStat(stat.Median),
			formatStat(stat.Std),
			formatStat(stat.CI90),
			formatStat(stat.CI95),
			formatStat(stat.CI99),
		}
		for _, file := range stat.Files {
			row := append([]string{file.Name, strings.Join(file.Tags, ";"), file.Type}, numbers...)
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatStat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// DownloadStatsCSV fetches the statistics of an evaluation and writes them
// to outputPath.
func (c *Client) DownloadStatsCSV(ctx context.Context, evaluationID, outputPath string) error {
	if strings.TrimSpace(outputPath) == "" {
		return services.Wrap(services.ErrValidation, "api", "download stats", "output path is required", nil)
	}
	stats, err := c.Stats(ctx, evaluationID)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outputPath, err)
	}
	if err := WriteStatsCSV(f, stats); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", outputPath, err)
	}
	return f.Close()
}
