// Package bus provides the business api of the users domain.
package bus

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/hamidoujand/roster/internal/order"
	"github.com/hamidoujand/roster/internal/page"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrDuplicatedEmail = errors.New("email already in use")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidFilter   = errors.New("invalid filter")
	ErrAuthFailed      = errors.New("authentication failed")
)

// Storer is the behaviour the bus needs from the persistence layer.
type Storer interface {
	Create(ctx context.Context, usr User) error
	QueryByID(ctx context.Context, userID uuid.UUID) (User, error)
	QueryByEmail(ctx context.Context, email mail.Address) (User, error)
	Query(ctx context.Context, filter QueryFilter, orderBy order.By, page page.Page) ([]User, error)
	Count(ctx context.Context, filter QueryFilter) (int, error)
}

// Bus manages the set of apis for users.
type Bus struct {
	store  Storer
	tracer trace.Tracer
}

// New constructs a users bus, a nil tracer disables spans.
func New(store Storer, tracer trace.Tracer) *Bus {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}

	return &Bus{
		store:  store,
		tracer: tracer,
	}
}

// Create hashes the password and stores a new enabled user.
func (b *Bus) Create(ctx context.Context, nu NewUser) (User, error) {
	ctx, span := b.tracer.Start(ctx, "user.bus.create")
	defer span.End()

	hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("generateFromPassword: %w", err)
	}

	//postgres keeps microseconds, truncate so what we return matches what is stored.
	now := time.Now().UTC().Truncate(time.Microsecond)

	usr := User{
		ID:           uuid.New(),
		Name:         nu.Name,
		Email:        nu.Email,
		Roles:        nu.Roles,
		PasswordHash: hash,
		Department:   nu.Department,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := b.store.Create(ctx, usr); err != nil {
		return User{}, fmt.Errorf("create: %w", err)
	}

	return usr, nil
}

// QueryByID finds the user with the given id.
func (b *Bus) QueryByID(ctx context.Context, id uuid.UUID) (User, error) {
	ctx, span := b.tracer.Start(ctx, "user.bus.queryByID")
	defer span.End()

	usr, err := b.store.QueryByID(ctx, id)
	if err != nil {
		return User{}, fmt.Errorf("queryByID: %w", err)
	}

	return usr, nil
}

// Authenticate checks the password of the user with the given email. Unknown
// emails, wrong passwords and disabled users all fail with ErrAuthFailed.
func (b *Bus) Authenticate(ctx context.Context, email mail.Address, password string) (User, error) {
	ctx, span := b.tracer.Start(ctx, "user.bus.authenticate")
	defer span.End()

	usr, err := b.store.QueryByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return User{}, ErrAuthFailed
	}

	if err != nil {
		return User{}, fmt.Errorf("queryByEmail: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(usr.PasswordHash, []byte(password)); err != nil {
		return User{}, ErrAuthFailed
	}

	if !usr.Enabled {
		return User{}, fmt.Errorf("user %s is disabled: %w", usr.ID, ErrAuthFailed)
	}

	return usr, nil
}

// Query returns one page of the users matching the filter.
func (b *Bus) Query(ctx context.Context, filter QueryFilter, orderBy order.By, page page.Page) ([]User, error) {
	ctx, span := b.tracer.Start(ctx, "user.bus.query")
	defer span.End()

	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	usrs, err := b.store.Query(ctx, filter, orderBy, page)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return usrs, nil
}

// Count returns the number of users matching the filter.
func (b *Bus) Count(ctx context.Context, filter QueryFilter) (int, error) {
	ctx, span := b.tracer.Start(ctx, "user.bus.count")
	defer span.End()

	n, err := b.store.Count(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}

	return n, nil
}
