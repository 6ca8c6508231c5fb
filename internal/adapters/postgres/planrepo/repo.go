package planrepo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/vitalcoach/coach-api/internal/adapters/postgres"
	"github.com/vitalcoach/coach-api/internal/domain"
	"github.com/vitalcoach/coach-api/internal/ports/out/planrepo"
)

// Repo is a Postgres implementation of planrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

var _ planrepo.Repository = (*Repo)(nil)

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Save(ctx context.Context, p planrepo.Plan) error {
	if r.pool == nil {
		return postgres.ErrNilPool
	}
	id, err := uuid.Parse(string(p.ID))
	if err != nil {
		return fmt.Errorf("invalid plan id: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO generated_plans (id, user_id, kind, content, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		id,
		string(p.UserID),
		string(p.Kind),
		p.Content,
		p.Notes,
		p.CreatedAt.UTC(),
	)
	return err
}

func (r *Repo) ListRecent(ctx context.Context, userID domain.UserID, limit int) ([]planrepo.Plan, error) {
	if r.pool == nil {
		return nil, postgres.ErrNilPool
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, kind, content, notes, created_at
		FROM generated_plans
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`, string(userID), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []planrepo.Plan{}
	for rows.Next() {
		var (
			id   uuid.UUID
			kind string
			p    = planrepo.Plan{UserID: userID}
		)
		if err := rows.Scan(&id, &kind, &p.Content, &p.Notes, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.ID = domain.PlanID(id.String())
		p.Kind = planrepo.Kind(kind)
		p.CreatedAt = p.CreatedAt.UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}
