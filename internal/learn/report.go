package learn

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// WriteReport dumps one loop run into dir for the external reporting and
// training stages: log.txt (invocation and termination reason),
// unified.json (the feature vocabulary contract), alarms.csv (ranked
// alarms, ascending score), curve.csv and precision.csv.
func WriteReport(dir string, res *Result, unified UnifiedKeys, argv []string) error {
	logBody := fmt.Sprintf("%s\nReason: %s\n", strings.Join(argv, " "), res.Reason)
	if err := os.WriteFile(filepath.Join(dir, "log.txt"), []byte(logBody), 0o644); err != nil {
		return fmt.Errorf("write log.txt: %w", err)
	}

	unifiedData, err := json.Marshal(unified)
	if err != nil {
		return fmt.Errorf("marshal unified keys: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "unified.json"), unifiedData, 0o644); err != nil {
		return fmt.Errorf("write unified.json: %w", err)
	}

	if err := writeAlarmsCSV(filepath.Join(dir, "alarms.csv"), res.Alarms); err != nil {
		return err
	}
	if err := writeCurveCSV(filepath.Join(dir, "curve.csv"), res.Curve); err != nil {
		return err
	}
	return writePrecisionCSV(filepath.Join(dir, "precision.csv"), res.Precision)
}

func writeAlarmsCSV(path string, alarms []ScoredAlarm) error {
	ranked := make([]ScoredAlarm, len(alarms))
	copy(ranked, alarms)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score < ranked[j].Score })

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create alarms.csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"bc", "slice_id", "trace_id", "score", "alarms"}); err != nil {
		return fmt.Errorf("write alarms header: %w", err)
	}
	for _, a := range ranked {
		rec := []string{
			a.Point.BC,
			strconv.Itoa(a.Point.SliceID),
			strconv.Itoa(a.Point.TraceID),
			strconv.FormatFloat(a.Score, 'g', -1, 64),
			strings.Join(a.Point.AlarmNames(), ";"),
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write alarm row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func writeCurveCSV(path string, curve []int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create curve.csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"event", "outliers"}); err != nil {
		return fmt.Errorf("write curve header: %w", err)
	}
	for i, v := range curve {
		if err := w.Write([]string{strconv.Itoa(i), strconv.Itoa(v)}); err != nil {
			return fmt.Errorf("write curve row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func writePrecisionCSV(path string, precision []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create precision.csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"step", "precision"}); err != nil {
		return fmt.Errorf("write precision header: %w", err)
	}
	for i, v := range precision {
		if err := w.Write([]string{strconv.Itoa(i), strconv.FormatFloat(v, 'g', -1, 64)}); err != nil {
			return fmt.Errorf("write precision row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
