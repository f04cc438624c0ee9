package postgres

import (
	"context"
	"time"

	"github.com/econest/web/internal/web/domain"
)

type profilesRepo struct {
	db dbtx
}

const profileColumns = `id, user_id, email, created_at, updated_at`

func (r *profilesRepo) GetProfileByUserID(ctx context.Context, userID string) (domain.Profile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM public.profiles WHERE user_id = $1 LIMIT 1`, userID)
	p, err := scanProfile(row)
	if err != nil {
		return domain.Profile{}, mapNotFound(err)
	}
	return p, nil
}

func (r *profilesRepo) InsertProfileIfMissing(ctx context.Context, p domain.Profile) (bool, error) {
	created, updated := stamps(p)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO public.profiles (`+profileColumns+`) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO NOTHING`,
		p.ID, p.UserID, p.Email, created, updated)
	if err != nil {
		return false, mapUniqueViolation(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *profilesRepo) ListProfiles(ctx context.Context, limit, offset int) ([]domain.Profile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM public.profiles ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *profilesRepo) CountProfiles(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM public.profiles`).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(s scanner) (domain.Profile, error) {
	var p domain.Profile
	if err := s.Scan(&p.ID, &p.UserID, &p.Email, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return domain.Profile{}, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

func stamps(p domain.Profile) (time.Time, time.Time) {
	created := p.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	updated := p.UpdatedAt
	if updated.IsZero() {
		updated = created
	}
	return created.UTC(), updated.UTC()
}
