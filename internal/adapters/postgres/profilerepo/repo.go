package profilerepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/vitalcoach/coach-api/internal/adapters/postgres"
	"github.com/vitalcoach/coach-api/internal/domain"
	"github.com/vitalcoach/coach-api/internal/ports/out/profilerepo"
)

// Repo is a Postgres implementation of profilerepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

var _ profilerepo.Repository = (*Repo)(nil)

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Get(ctx context.Context, userID domain.UserID) (profilerepo.Record, error) {
	if r.pool == nil {
		return profilerepo.Record{}, postgres.ErrNilPool
	}
	row := r.pool.QueryRow(ctx, `
		SELECT name, sex, birthdate, height_cm, weight_kg, goal, activity, diet,
		       allergies, injuries, equipment, advanced, targets, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`, string(userID))

	var (
		rec                          profilerepo.Record
		sex, goal, activityLvl, diet *string
	)
	if err := row.Scan(
		&rec.Name,
		&sex,
		&rec.Birthdate,
		&rec.HeightCm,
		&rec.WeightKg,
		&goal,
		&activityLvl,
		&diet,
		&rec.Allergies,
		&rec.Injuries,
		&rec.Equipment,
		&rec.Advanced,
		&rec.Targets,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return profilerepo.Record{}, profilerepo.ErrNotFound
		}
		return profilerepo.Record{}, err
	}
	rec.UserID = userID
	rec.Sex = enumPtr[domain.Sex](sex)
	rec.Goal = enumPtr[domain.Goal](goal)
	rec.Activity = enumPtr[domain.ActivityLevel](activityLvl)
	rec.Diet = enumPtr[domain.Diet](diet)
	if rec.Birthdate != nil {
		b := rec.Birthdate.UTC()
		rec.Birthdate = &b
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, nil
}

// Upsert inserts or replaces the row for rec.UserID. created_at is only written on insert.
func (r *Repo) Upsert(ctx context.Context, rec profilerepo.Record) error {
	if r.pool == nil {
		return postgres.ErrNilPool
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profiles (
			user_id, name, sex, birthdate, height_cm, weight_kg, goal, activity, diet,
			allergies, injuries, equipment, advanced, targets, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			sex = EXCLUDED.sex,
			birthdate = EXCLUDED.birthdate,
			height_cm = EXCLUDED.height_cm,
			weight_kg = EXCLUDED.weight_kg,
			goal = EXCLUDED.goal,
			activity = EXCLUDED.activity,
			diet = EXCLUDED.diet,
			allergies = EXCLUDED.allergies,
			injuries = EXCLUDED.injuries,
			equipment = EXCLUDED.equipment,
			advanced = EXCLUDED.advanced,
			targets = EXCLUDED.targets,
			updated_at = EXCLUDED.updated_at
	`,
		string(rec.UserID),
		rec.Name,
		stringPtr(rec.Sex),
		rec.Birthdate,
		rec.HeightCm,
		rec.WeightKg,
		stringPtr(rec.Goal),
		stringPtr(rec.Activity),
		stringPtr(rec.Diet),
		nonNil(rec.Allergies),
		nonNil(rec.Injuries),
		nonNil(rec.Equipment),
		rec.Advanced,
		rec.Targets,
		rec.CreatedAt.UTC(),
		rec.UpdatedAt.UTC(),
	)
	return err
}

func (r *Repo) ListAnswers(ctx context.Context, userID domain.UserID) ([]profilerepo.Answer, error) {
	if r.pool == nil {
		return nil, postgres.ErrNilPool
	}
	rows, err := r.pool.Query(ctx, `
		SELECT question_key, answer, updated_at
		FROM onboarding_answers
		WHERE user_id = $1
		ORDER BY question_key ASC
	`, string(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []profilerepo.Answer{}
	for rows.Next() {
		a := profilerepo.Answer{UserID: userID}
		if err := rows.Scan(&a.QuestionKey, &a.Answer, &a.UpdatedAt); err != nil {
			return nil, err
		}
		a.UpdatedAt = a.UpdatedAt.UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repo) UpsertAnswers(ctx context.Context, answers []profilerepo.Answer) error {
	if r.pool == nil {
		return postgres.ErrNilPool
	}
	if len(answers) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, a := range answers {
			batch.Queue(`
				INSERT INTO onboarding_answers (user_id, question_key, answer, updated_at)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (user_id, question_key) DO UPDATE SET
					answer = EXCLUDED.answer,
					updated_at = EXCLUDED.updated_at
			`, string(a.UserID), a.QuestionKey, a.Answer, a.UpdatedAt.UTC())
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

func enumPtr[T ~string](s *string) *T {
	if s == nil {
		return nil
	}
	v := T(*s)
	return &v
}

func stringPtr[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func nonNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}
