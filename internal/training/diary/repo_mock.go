package diary

import (
	"context"
	"sort"
	"sync"
	"time"
)

// repoMock keeps entries in memory, append-only like the real repo.
type repoMock struct {
	mutex   sync.Mutex
	entries []Entry
}

func NewMockDiaryRepo() *repoMock {
	return &repoMock{}
}

func (r *repoMock) Add(_ context.Context, entry Entry) (*Entry, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, entry)
	return &entry, nil
}

func (r *repoMock) ListRange(_ context.Context, userID, dateFrom, dateTo string) ([]Entry, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var entries []Entry
	for _, entry := range r.entries {
		if entry.UserID == userID && entry.Date >= dateFrom && entry.Date <= dateTo {
			entries = append(entries, entry)
		}
	}
	sortNewestFirst(entries)
	return entries, nil
}

func (r *repoMock) ListRecent(_ context.Context, userID string, limit int) ([]Entry, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var entries []Entry
	for _, entry := range r.entries {
		if entry.UserID == userID {
			entries = append(entries, entry)
		}
	}
	sortNewestFirst(entries)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (r *repoMock) HasEntries(_ context.Context, userID, date string) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, entry := range r.entries {
		if entry.UserID == userID && entry.Date == date {
			return true, nil
		}
	}
	return false, nil
}

func sortNewestFirst(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date > entries[j].Date
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}
