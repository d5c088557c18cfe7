package handler

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/hamidoujand/roster/internal/domains/user/bus"
)

type user struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Roles      []string `json:"roles"`
	Department string   `json:"department"`
	Enabled    bool     `json:"enabled"`
	CreatedAt  string   `json:"createdAt"`
	UpdatedAt  string   `json:"updatedAt"`
}

func toAppUser(usr bus.User) user {
	return user{
		ID:         usr.ID.String(),
		Name:       usr.Name,
		Email:      usr.Email.Address,
		Roles:      bus.RolesToString(usr.Roles),
		Department: usr.Department,
		Enabled:    usr.Enabled,
		CreatedAt:  usr.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  usr.UpdatedAt.Format(time.RFC3339),
	}
}

func toAppUsers(usrs []bus.User) []user {
	out := make([]user, len(usrs))
	for i, usr := range usrs {
		out[i] = toAppUser(usr)
	}
	return out
}

// ==============================================================================

// QueryResult is a single page of users.
type QueryResult struct {
	Users       []user `json:"users"`
	Total       int    `json:"total"`
	Page        int    `json:"page"`
	RowsPerPage int    `json:"rowsPerPage"`
}

// ==============================================================================

type newUser struct {
	Name            string   `json:"name" binding:"required,min=4"`
	Email           string   `json:"email" binding:"required,email"`
	Roles           []string `json:"roles" binding:"gt=0,dive,required,oneof=admin user"`
	Department      string   `json:"department" binding:"required,oneof=sales shipping marketing"`
	Password        string   `json:"password" binding:"required,min=8,max=128"`
	PasswordConfirm string   `json:"passwordConfirm" binding:"required,eqfield=Password"`
}

func toBusNewUser(nu newUser) (bus.NewUser, error) {
	roles, err := bus.ParseManyRoles(nu.Roles)
	if err != nil {
		return bus.NewUser{}, fmt.Errorf("parseManyRoles: %w", err)
	}

	email, err := mail.ParseAddress(nu.Email)
	if err != nil {
		return bus.NewUser{}, fmt.Errorf("parseAddress: %w", err)
	}

	return bus.NewUser{
		Name:       nu.Name,
		Email:      *email,
		Roles:      roles,
		Department: nu.Department,
		Password:   nu.Password,
	}, nil
}

// ==============================================================================

type credentials struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Token is the response of a successful login.
type Token struct {
	Token string `json:"token"`
}
