package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/keepfit/keepfit/internal/telemetry/tracing"
	"github.com/keepfit/keepfit/internal/training/diary"
	"github.com/keepfit/keepfit/internal/training/workouts"
)

var csvHeader = []string{"date", "source", "kind", "exercise", "activity", "sets", "reps_per_set", "duration", "notes"}

type workoutsLister interface {
	ListRange(ctx context.Context, userID, dateFrom, dateTo string) ([]workouts.Record, error)
}

type diaryLister interface {
	ListRange(ctx context.Context, userID, dateFrom, dateTo string) ([]diary.Entry, error)
}

// Exporter flattens workout records and diary entries into one CSV
// stream, newest first.
type Exporter struct {
	workouts workoutsLister
	diaries  diaryLister
}

func NewExporter(workoutsStore workoutsLister, diaryStore diaryLister) *Exporter {
	return &Exporter{
		workouts: workoutsStore,
		diaries:  diaryStore,
	}
}

type row struct {
	date   string
	fields []string
}

// WriteCSV writes all training data in [dateFrom, dateTo] to w.
func (e *Exporter) WriteCSV(ctx context.Context, w io.Writer, userID, dateFrom, dateTo string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "export.writeCsv")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	records, err := e.workouts.ListRange(ctx, userID, dateFrom, dateTo)
	if err != nil {
		return fmt.Errorf("list workouts: %w", err)
	}
	entries, err := e.diaries.ListRange(ctx, userID, dateFrom, dateTo)
	if err != nil {
		return fmt.Errorf("list diary entries: %w", err)
	}

	rows := make([]row, 0, len(records)+len(entries))
	for _, record := range records {
		rows = append(rows, row{
			date: record.Date,
			fields: []string{
				record.Date, "workout", "exercise",
				string(record.ExerciseID), "",
				strconv.Itoa(record.Sets), joinReps(record.RepsPerSet),
				"", "",
			},
		})
	}
	for _, entry := range entries {
		fields := []string{
			entry.Date, "diary", entry.Kind,
			string(entry.ExerciseID), entry.ActivityName,
			"", "", "", entry.Notes,
		}
		if entry.Kind == diary.KindExercise {
			fields[5] = strconv.Itoa(entry.Sets)
			fields[6] = joinReps(entry.RepsPerSet)
		} else {
			fields[7] = strconv.Itoa(entry.Duration)
		}
		rows = append(rows, row{date: entry.Date, fields: fields})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].date > rows[j].date
	})

	csvWriter := csv.NewWriter(w)
	if err = csvWriter.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		if err = csvWriter.Write(r.fields); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

func joinReps(repsPerSet []int) string {
	if len(repsPerSet) == 0 {
		return ""
	}
	parts := make([]string, len(repsPerSet))
	for i, reps := range repsPerSet {
		parts[i] = strconv.Itoa(reps)
	}
	return strings.Join(parts, "|")
}
