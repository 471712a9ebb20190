package plans

import (
	"context"
)

type repoMock struct {
	plans map[string]*Plan
}

func NewMockPlansRepo() *repoMock {
	return &repoMock{
		plans: make(map[string]*Plan),
	}
}

func (r *repoMock) Add(_ context.Context, plan Plan) (*Plan, error) {
	for _, p := range r.plans {
		if p.UserID == plan.UserID && p.Status == PlanActive {
			p.Status = PlanArchived
		}
	}
	plan.Status = PlanActive
	r.plans[plan.ID] = &plan
	return &plan, nil
}

func (r *repoMock) GetActive(_ context.Context, userID string) (*Plan, error) {
	for _, p := range r.plans {
		if p.UserID == userID && p.Status == PlanActive {
			return p, nil
		}
	}
	return nil, ErrPlanNotFound
}

func (r *repoMock) Get(_ context.Context, userID, planID string) (*Plan, error) {
	p, ok := r.plans[planID]
	if !ok || p.UserID != userID {
		return nil, ErrPlanNotFound
	}
	return p, nil
}

func (r *repoMock) ArchiveActive(_ context.Context, userID string) (int, error) {
	archived := 0
	for _, p := range r.plans {
		if p.UserID == userID && p.Status == PlanActive {
			p.Status = PlanArchived
			archived++
		}
	}
	return archived, nil
}
