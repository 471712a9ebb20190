package workouts

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/keepfit/keepfit/internal/training"
)

// repoMock keeps records in memory, for handler and service tests.
type repoMock struct {
	mutex   sync.Mutex
	records map[string]Record
}

func NewMockWorkoutsRepo() *repoMock {
	return &repoMock{
		records: make(map[string]Record),
	}
}

func (r *repoMock) Add(_ context.Context, record Record) (*Record, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now
	r.records[record.ID] = record
	return &record, nil
}

func (r *repoMock) Update(_ context.Context, record *Record) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	existing, ok := r.records[record.ID]
	if !ok || existing.UserID != record.UserID {
		return ErrWorkoutNotFound
	}
	record.UpdatedAt = time.Now()
	r.records[record.ID] = *record
	return nil
}

func (r *repoMock) Get(_ context.Context, userID, id string) (*Record, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	record, ok := r.records[id]
	if !ok || record.UserID != userID {
		return nil, ErrWorkoutNotFound
	}
	return &record, nil
}

func (r *repoMock) GetByKey(_ context.Context, userID, date string, exerciseID training.ExerciseID) (*Record, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, record := range r.records {
		if record.UserID == userID && record.Date == date && record.ExerciseID == exerciseID {
			found := record
			return &found, nil
		}
	}
	return nil, ErrWorkoutNotFound
}

func (r *repoMock) ListByDate(_ context.Context, userID, date string) ([]Record, error) {
	return r.ListRange(context.Background(), userID, date, date)
}

func (r *repoMock) ListRange(_ context.Context, userID, dateFrom, dateTo string) ([]Record, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var records []Record
	for _, record := range r.records {
		if record.UserID == userID && record.Date >= dateFrom && record.Date <= dateTo {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Date > records[j].Date
	})
	return records, nil
}

func (r *repoMock) Delete(_ context.Context, userID, id string) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	record, ok := r.records[id]
	if !ok || record.UserID != userID {
		return false, nil
	}
	delete(r.records, id)
	return true, nil
}
