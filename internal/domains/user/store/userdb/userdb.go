// Package userdb contains the postgres store of the users domain.
package userdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/google/uuid"
	"github.com/hamidoujand/roster/internal/domains/user/bus"
	"github.com/hamidoujand/roster/internal/order"
	"github.com/hamidoujand/roster/internal/page"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const uniqueViolation = "23505"

const columns = "id, name, email, roles, password_hash, department, enabled, created_at, updated_at"

// Store manages the set of apis for users database access.
type Store struct {
	db     *sqlx.DB
	tracer trace.Tracer
}

// NewStore constructs a store, a nil tracer disables spans.
func NewStore(db *sqlx.DB, tracer trace.Tracer) *Store {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}

	return &Store{
		db:     db,
		tracer: tracer,
	}
}

// Create inserts a new user.
func (s *Store) Create(ctx context.Context, usr bus.User) error {
	const q = `
	INSERT INTO users
		(id, name, email, roles, password_hash, department, enabled, created_at, updated_at)
	VALUES
		(:id, :name, :email, :roles, :password_hash, :department, :enabled, :created_at, :updated_at)`

	ctx, span := s.tracer.Start(ctx, "user.store.create")
	defer span.End()

	if _, err := s.db.NamedExecContext(ctx, q, toDBUser(usr)); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return bus.ErrDuplicatedEmail
		}
		return fmt.Errorf("namedExecContext: %w", err)
	}

	return nil
}

// QueryByID gets the user with the given id.
func (s *Store) QueryByID(ctx context.Context, id uuid.UUID) (bus.User, error) {
	data := struct {
		ID string `db:"id"`
	}{
		ID: id.String(),
	}

	const q = `SELECT ` + columns + ` FROM users WHERE id = :id`

	ctx, span := s.tracer.Start(ctx, "user.store.queryByID")
	defer span.End()

	return s.queryOne(ctx, q, data)
}

// QueryByEmail gets the user with the given email.
func (s *Store) QueryByEmail(ctx context.Context, email mail.Address) (bus.User, error) {
	data := struct {
		Email string `db:"email"`
	}{
		Email: email.Address,
	}

	const q = `SELECT ` + columns + ` FROM users WHERE email = :email`

	ctx, span := s.tracer.Start(ctx, "user.store.queryByEmail")
	defer span.End()

	return s.queryOne(ctx, q, data)
}

func (s *Store) queryOne(ctx context.Context, q string, data any) (bus.User, error) {
	rows, err := s.db.NamedQueryContext(ctx, q, data)
	if err != nil {
		return bus.User{}, fmt.Errorf("namedQueryContext: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return bus.User{}, fmt.Errorf("next: %w", err)
		}
		return bus.User{}, bus.ErrUserNotFound
	}

	var usr user
	if err := rows.StructScan(&usr); err != nil {
		return bus.User{}, fmt.Errorf("structScan: %w", err)
	}

	return toBusUser(usr)
}

// Query returns one page of users matching the filter.
func (s *Store) Query(ctx context.Context, filter bus.QueryFilter, orderBy order.By, pg page.Page) ([]bus.User, error) {
	data := map[string]any{
		"offset":        pg.Offset(),
		"rows_per_page": pg.Rows,
	}

	buf := bytes.NewBufferString("SELECT " + columns + " FROM users")
	applyFilter(filter, data, buf)

	orderClause, err := orderByClause(orderBy)
	if err != nil {
		return nil, fmt.Errorf("orderByClause: %w", err)
	}
	buf.WriteString(orderClause)
	buf.WriteString(" OFFSET :offset ROWS FETCH NEXT :rows_per_page ROWS ONLY")

	ctx, span := s.tracer.Start(ctx, "user.store.query", trace.WithAttributes(
		attribute.Int("page", pg.Number),
		attribute.Int("rows", pg.Rows),
	))
	defer span.End()

	rows, err := s.db.NamedQueryContext(ctx, buf.String(), data)
	if err != nil {
		return nil, fmt.Errorf("namedQueryContext: %w", err)
	}
	defer rows.Close()

	var usrs []user
	for rows.Next() {
		var usr user
		if err := rows.StructScan(&usr); err != nil {
			return nil, fmt.Errorf("structScan: %w", err)
		}
		usrs = append(usrs, usr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("next: %w", err)
	}

	return toBusUsers(usrs)
}

// Count returns the number of users matching the filter.
func (s *Store) Count(ctx context.Context, filter bus.QueryFilter) (int, error) {
	data := map[string]any{}

	buf := bytes.NewBufferString("SELECT COUNT(1) AS count FROM users")
	applyFilter(filter, data, buf)

	ctx, span := s.tracer.Start(ctx, "user.store.count")
	defer span.End()

	rows, err := s.db.NamedQueryContext(ctx, buf.String(), data)
	if err != nil {
		return 0, fmt.Errorf("namedQueryContext: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, fmt.Errorf("next: %w", err)
		}
		return 0, errors.New("count returned no rows")
	}

	var count int
	if err := rows.Scan(&count); err != nil {
		return 0, fmt.Errorf("scan: %w", err)
	}

	return count, nil
}
