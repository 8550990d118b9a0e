package db

import (
	"context"
	"strings"

	"github.com/padraicbc/trainagenda/models"
)

// UserByUsername loads a login for signin.
func (s *Store) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := s.db.NewSelect().Model(user).
		Where("u.username = ?", strings.TrimSpace(username)).
		Scan(ctx)
	if err != nil {
		return nil, translate(err, "user")
	}
	return user, nil
}

// SaveUser inserts a login or, when the username exists, replaces its
// password, role and tenant.
func (s *Store) SaveUser(ctx context.Context, user *models.User) error {
	_, err := s.db.NewInsert().Model(user).
		On("CONFLICT (username) DO UPDATE").
		Set("password = EXCLUDED.password").
		Set("role = EXCLUDED.role").
		Set("tenant_id = EXCLUDED.tenant_id").
		Exec(ctx)
	if err != nil {
		return translate(err, "user")
	}
	return nil
}
