package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"stochos/internal/model"
)

const runIndexFile = "run_index.json"

// RunConfig echoes the configuration that produced a run, written next to
// its outputs so artifacts are self-describing.
type RunConfig struct {
	RunID       string    `json:"run_id"`
	Model       string    `json:"model"`
	Strategy    string    `json:"strategy"`
	Samples     int       `json:"samples"`
	Seed        int64     `json:"seed"`
	MaxAttempts int       `json:"max_attempts,omitempty"`
	BurnIn      int       `json:"burn_in,omitempty"`
	Thin        int       `json:"thin,omitempty"`
	Steps       []float64 `json:"steps,omitempty"`
	Workers     int       `json:"workers,omitempty"`
}

// RunArtifacts is everything written into one run's artifact directory.
type RunArtifacts struct {
	Config          RunConfig                 `json:"config"`
	Variables       []model.VariableSummary   `json:"variables"`
	Histograms      map[string][]HistogramBin `json:"histograms,omitempty"`
	Proposed        int                       `json:"proposed"`
	Accepted        int                       `json:"accepted"`
	AcceptanceRatio float64                   `json:"acceptance_ratio"`
	StopReason      string                    `json:"stop_reason"`
	Series          map[string][]float64      `json:"-"`
}

// PriorComparison contrasts a conditioned run against a prior-predictive
// companion run of the same model and seed.
type PriorComparison struct {
	Model          string             `json:"model"`
	Samples        int                `json:"samples"`
	Seed           int64              `json:"seed"`
	PriorMeans     map[string]float64 `json:"prior_means"`
	PosteriorMeans map[string]float64 `json:"posterior_means"`
	MeanShift      map[string]float64 `json:"mean_shift"`
}

type RunIndexEntry struct {
	RunID           string  `json:"run_id"`
	Model           string  `json:"model"`
	Strategy        string  `json:"strategy"`
	Samples         int     `json:"samples"`
	Seed            int64   `json:"seed"`
	Collected       int     `json:"collected"`
	AcceptanceRatio float64 `json:"acceptance_ratio"`
	StopReason      string  `json:"stop_reason"`
	CreatedAtUTC    string  `json:"created_at_utc"`
}

// WriteRunArtifacts lays down one run directory: config.json,
// summary.json, histograms.json and a traces.csv with the sampled series
// in acceptance order (the input to external plotting and fitting tools).
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "config.json"), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "summary.json"), map[string]any{
		"variables":        artifacts.Variables,
		"proposed":         artifacts.Proposed,
		"accepted":         artifacts.Accepted,
		"acceptance_ratio": artifacts.AcceptanceRatio,
		"stop_reason":      artifacts.StopReason,
	}); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "histograms.json"), artifacts.Histograms); err != nil {
		return "", err
	}
	if err := writeTracesCSV(filepath.Join(runDir, "traces.csv"), artifacts.Series); err != nil {
		return "", err
	}

	return runDir, nil
}

func writeTracesCSV(path string, series map[string][]float64) error {
	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := 0
	for _, name := range names {
		if len(series[name]) > rows {
			rows = len(series[name])
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(names); err != nil {
		return err
	}
	record := make([]string, len(names))
	for i := 0; i < rows; i++ {
		for j, name := range names {
			if i < len(series[name]) {
				record[j] = strconv.FormatFloat(series[name][i], 'g', -1, 64)
			} else {
				record[j] = ""
			}
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns the index newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range []string{"config.json", "summary.json", "histograms.json", "traces.csv"} {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	comparePath := filepath.Join(src, "prior_check.json")
	if _, err := os.Stat(comparePath); err == nil {
		if err := copyFile(comparePath, filepath.Join(dst, "prior_check.json")); err != nil {
			return "", err
		}
	} else if !os.IsNotExist(err) {
		return "", err
	}

	return dst, nil
}

func WritePriorComparison(runDir string, report PriorComparison) error {
	return writeJSON(filepath.Join(runDir, "prior_check.json"), report)
}

func ReadPriorComparison(baseDir, runID string) (PriorComparison, bool, error) {
	path := filepath.Join(baseDir, runID, "prior_check.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return PriorComparison{}, false, nil
		}
		return PriorComparison{}, false, err
	}

	var report PriorComparison
	if err := json.Unmarshal(data, &report); err != nil {
		return PriorComparison{}, false, err
	}
	return report, true, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	path := filepath.Join(baseDir, runID, "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RunConfig{}, false, nil
		}
		return RunConfig{}, false, err
	}

	var cfg RunConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, false, err
	}
	return cfg, true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
