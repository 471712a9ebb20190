package schedules

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

type repoMock struct {
	schedules map[string]*Schedule // keyed by user|plan|date
}

func NewMockSchedulesRepo() *repoMock {
	return &repoMock{
		schedules: make(map[string]*Schedule),
	}
}

func mockKey(userID, planID, date string) string {
	return userID + "|" + planID + "|" + date
}

func (r *repoMock) Add(_ context.Context, schedule Schedule) (*Schedule, error) {
	key := mockKey(schedule.UserID, schedule.PlanID, schedule.Date)
	if _, ok := r.schedules[key]; ok {
		return nil, &pgconn.PgError{Code: "23505"}
	}
	now := time.Now()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now
	r.schedules[key] = &schedule
	return &schedule, nil
}

func (r *repoMock) Upsert(_ context.Context, schedule Schedule) (*Schedule, error) {
	key := mockKey(schedule.UserID, schedule.PlanID, schedule.Date)
	schedule.UpdatedAt = time.Now()
	r.schedules[key] = &schedule
	return &schedule, nil
}

func (r *repoMock) GetByDate(_ context.Context, userID, planID, date string) (*Schedule, error) {
	if planID == "" {
		for _, s := range r.schedules {
			if s.UserID == userID && s.Date == date {
				return s, nil
			}
		}
		return nil, ErrScheduleNotFound
	}
	s, ok := r.schedules[mockKey(userID, planID, date)]
	if !ok {
		return nil, ErrScheduleNotFound
	}
	return s, nil
}

func (r *repoMock) ListRange(_ context.Context, userID, planID, dateFrom, dateTo string) ([]Schedule, error) {
	var result []Schedule
	for _, s := range r.schedules {
		if s.UserID != userID {
			continue
		}
		if planID != "" && s.PlanID != planID {
			continue
		}
		if s.Date >= dateFrom && s.Date <= dateTo {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (r *repoMock) Update(_ context.Context, schedule *Schedule) error {
	key := mockKey(schedule.UserID, schedule.PlanID, schedule.Date)
	if _, ok := r.schedules[key]; !ok {
		return ErrScheduleNotFound
	}
	schedule.UpdatedAt = time.Now()
	r.schedules[key] = schedule
	return nil
}

func (r *repoMock) UpdateBoth(ctx context.Context, first, second *Schedule) error {
	if err := r.Update(ctx, first); err != nil {
		return err
	}
	return r.Update(ctx, second)
}

func (r *repoMock) UpdateStatus(_ context.Context, userID, planID, date string, status Status) error {
	for _, s := range r.schedules {
		if s.UserID != userID || s.Date != date {
			continue
		}
		if planID != "" && s.PlanID != planID {
			continue
		}
		s.Status = status
		s.UpdatedAt = time.Now()
		return nil
	}
	return ErrScheduleNotFound
}
