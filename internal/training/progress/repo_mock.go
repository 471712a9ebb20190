package progress

import (
	"context"
	"sync"
	"time"

	"github.com/keepfit/keepfit/internal/training"
)

type repoMock struct {
	mutex   sync.Mutex
	records map[string]Record
}

func NewMockProgressRepo() *repoMock {
	return &repoMock{
		records: make(map[string]Record),
	}
}

func (r *repoMock) key(userID string, exerciseID training.ExerciseID) string {
	return userID + "|" + string(exerciseID)
}

func (r *repoMock) Get(_ context.Context, userID string, exerciseID training.ExerciseID) (*Record, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	record, ok := r.records[r.key(userID, exerciseID)]
	if !ok {
		return nil, ErrProgressNotFound
	}
	return &record, nil
}

func (r *repoMock) List(_ context.Context, userID string) ([]Record, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var records []Record
	for _, record := range r.records {
		if record.UserID == userID {
			records = append(records, record)
		}
	}
	return records, nil
}

func (r *repoMock) Upsert(_ context.Context, record Record) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	r.records[r.key(record.UserID, record.ExerciseID)] = record
	return nil
}
