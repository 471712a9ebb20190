package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/keepfit/keepfit/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrProfileNotFound = errors.New("profile not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Get(ctx context.Context, userID string) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profile.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var profile Profile
	if err = r.db.QueryRow(
		ctx,
		`SELECT user_id, ability_level, training_frequency, session_duration, injury_notes, created_at, updated_at
			FROM training_profile
			WHERE user_id = $1;`,
		userID,
	).Scan(
		&profile.UserID, &profile.AbilityLevel, &profile.TrainingFrequency,
		&profile.SessionDuration, &profile.InjuryNotes,
		&profile.CreatedAt, &profile.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// Upsert writes the user's profile, creating it on first use.
func (r *Repo) Upsert(ctx context.Context, profile Profile) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profile.upsert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	now := time.Now()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	if _, err = r.db.Exec(
		ctx,
		`INSERT INTO training_profile
				(user_id, ability_level, training_frequency, session_duration, injury_notes, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (user_id) DO UPDATE SET
				ability_level = EXCLUDED.ability_level,
				training_frequency = EXCLUDED.training_frequency,
				session_duration = EXCLUDED.session_duration,
				injury_notes = EXCLUDED.injury_notes,
				updated_at = EXCLUDED.updated_at;`,
		profile.UserID, profile.AbilityLevel, profile.TrainingFrequency,
		profile.SessionDuration, profile.InjuryNotes,
		profile.CreatedAt, profile.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return &profile, nil
}
