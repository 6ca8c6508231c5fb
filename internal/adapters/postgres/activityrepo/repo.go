// Package activityrepo reads recent activity from one table per domain.
package activityrepo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/vitalcoach/coach-api/internal/adapters/postgres"
	"github.com/vitalcoach/coach-api/internal/domain"
	"github.com/vitalcoach/coach-api/internal/ports/out/activityrepo"
)

type table struct {
	name string
	// orderBy is the domain's own timestamp column.
	orderBy string
}

var tables = map[domain.ActivityDomain]table{
	domain.DomainTraining:   {name: "training_sessions", orderBy: "performed_at"},
	domain.DomainNutrition:  {name: "meals", orderBy: "eaten_at"},
	domain.DomainRecovery:   {name: "recovery_logs", orderBy: "logged_at"},
	domain.DomainMobility:   {name: "mobility_sessions", orderBy: "performed_at"},
	domain.DomainPain:       {name: "pain_checks", orderBy: "checked_at"},
	domain.DomainBreathwork: {name: "breathwork_sessions", orderBy: "performed_at"},
	domain.DomainAppearance: {name: "appearance_sessions", orderBy: "performed_at"},
}

// Repo is a Postgres implementation of activityrepo.Source.
type Repo struct {
	pool *pgxpool.Pool
}

var _ activityrepo.Source = (*Repo)(nil)

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func lookup(d domain.ActivityDomain) (table, error) {
	t, ok := tables[d]
	if !ok {
		return table{}, fmt.Errorf("unknown activity domain %q", d)
	}
	return t, nil
}

func (r *Repo) Recent(ctx context.Context, userID domain.UserID, d domain.ActivityDomain, limit int) ([]domain.ActivityRecord, error) {
	if r.pool == nil {
		return nil, postgres.ErrNilPool
	}
	t, err := lookup(d)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, %[2]s, payload
		FROM %[1]s
		WHERE user_id = $1
		ORDER BY %[2]s DESC, id
		LIMIT $2
	`, t.name, t.orderBy), string(userID), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.ActivityRecord{}
	for rows.Next() {
		var (
			rec     domain.ActivityRecord
			payload []byte
		)
		if err := rows.Scan(&rec.ID, &rec.OccurredAt, &payload); err != nil {
			return nil, err
		}
		rec.OccurredAt = rec.OccurredAt.UTC()
		if len(payload) > 0 {
			rec.Payload = json.RawMessage(payload)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Add inserts records for one domain in a single transaction. Existing ids are left untouched.
func (r *Repo) Add(ctx context.Context, userID domain.UserID, d domain.ActivityDomain, recs ...domain.ActivityRecord) error {
	if r.pool == nil {
		return postgres.ErrNilPool
	}
	t, err := lookup(d)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return nil
	}
	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, %s, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`, t.name, t.orderBy)
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, rec := range recs {
			var payload any
			if len(rec.Payload) > 0 {
				payload = string(rec.Payload)
			}
			batch.Queue(stmt, rec.ID, string(userID), rec.OccurredAt.UTC(), payload)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}
