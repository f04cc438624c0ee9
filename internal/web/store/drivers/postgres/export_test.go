package postgres

import "context"

// Truncate empties the application tables between tests.
func Truncate(ctx context.Context, s *Store) (int64, error) {
	res, err := s.db.ExecContext(ctx, `TRUNCATE public.profiles, public.user_roles`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
