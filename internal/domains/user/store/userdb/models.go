package userdb

import (
	"database/sql"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/hamidoujand/roster/internal/domains/user/bus"
	"github.com/jackc/pgx/v5/pgtype"
)

var typeMap = pgtype.NewMap()

// dbRoles is a postgres TEXT[], decoding is left to pgtype. Writes need no
// valuer, the pgx driver encodes string slices itself.
type dbRoles []string

// Scan implements sql.Scanner.
func (r *dbRoles) Scan(src any) error {
	var roles []string
	if err := typeMap.SQLScanner(&roles).Scan(src); err != nil {
		return fmt.Errorf("scan roles: %w", err)
	}

	*r = roles
	return nil
}

type user struct {
	ID           uuid.UUID      `db:"id"`
	Name         string         `db:"name"`
	Email        string         `db:"email"`
	Roles        dbRoles        `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	Department   sql.NullString `db:"department"`
	Enabled      bool           `db:"enabled"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func toDBUser(usr bus.User) user {
	return user{
		ID:           usr.ID,
		Name:         usr.Name,
		Email:        usr.Email.Address,
		Roles:        bus.RolesToString(usr.Roles),
		PasswordHash: usr.PasswordHash,
		Department: sql.NullString{
			String: usr.Department,
			Valid:  usr.Department != "",
		},
		Enabled:   usr.Enabled,
		CreatedAt: usr.CreatedAt.UTC(),
		UpdatedAt: usr.UpdatedAt.UTC(),
	}
}

func toBusUser(usr user) (bus.User, error) {
	roles, err := bus.ParseManyRoles(usr.Roles)
	if err != nil {
		return bus.User{}, fmt.Errorf("parse roles of user[%s]: %w", usr.ID, err)
	}

	return bus.User{
		ID:   usr.ID,
		Name: usr.Name,
		Email: mail.Address{
			Name:    usr.Name,
			Address: usr.Email,
		},
		Roles:        roles,
		PasswordHash: usr.PasswordHash,
		Department:   usr.Department.String,
		Enabled:      usr.Enabled,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
	}, nil
}

func toBusUsers(usrs []user) ([]bus.User, error) {
	out := make([]bus.User, len(usrs))
	for i, usr := range usrs {
		busUser, err := toBusUser(usr)
		if err != nil {
			return nil, err
		}
		out[i] = busUser
	}
	return out, nil
}
