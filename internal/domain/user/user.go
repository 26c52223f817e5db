package user

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrIDRequired          = errors.New("user: id is required")
	ErrEmailRequired       = errors.New("user: email is required")
	ErrPasswordHashMissing = errors.New("user: password hash is required")
	ErrNameRequired        = errors.New("user: name is required")
	ErrInvalidRole         = errors.New("user: invalid role")
	ErrEmailAlreadyUsed    = errors.New("user: email already used")
	ErrNotFound            = errors.New("user: not found")
)

type ID string

type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleRenter Role = "RENTER"
	RoleAdmin  Role = "ADMIN"
	// RoleSystem is never assigned to a stored user; it identifies scheduled jobs.
	RoleSystem Role = "SYSTEM"
)

var knownRoles = map[string]Role{
	"":                 RoleRenter,
	string(RoleRenter): RoleRenter,
	string(RoleOwner):  RoleOwner,
	string(RoleAdmin):  RoleAdmin,
	string(RoleSystem): RoleSystem,
}

// SelfService reports whether a user may pick the role when registering.
func (r Role) SelfService() bool {
	return r == RoleOwner || r == RoleRenter
}

// Storable reports whether an account may hold the role.
func (r Role) Storable() bool {
	return r != RoleSystem && r != ""
}

type User struct {
	ID           ID
	Email        string
	Name         string
	Phone        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	Save(ctx context.Context, user *User) error
	List(ctx context.Context) ([]*User, error)
	Delete(ctx context.Context, id ID) error
	Count(ctx context.Context) (int, error)
}

type CreateParams struct {
	ID           ID
	Email        string
	Name         string
	Phone        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// NewUser normalizes and validates a new account. A zero CreatedAt means now.
func NewUser(params CreateParams) (*User, error) {
	u := &User{
		ID:           ID(strings.TrimSpace(string(params.ID))),
		Email:        NormalizeEmail(params.Email),
		Name:         strings.TrimSpace(params.Name),
		Phone:        strings.TrimSpace(params.Phone),
		PasswordHash: params.PasswordHash,
	}
	switch {
	case u.ID == "":
		return nil, ErrIDRequired
	case u.Email == "":
		return nil, ErrEmailRequired
	case strings.TrimSpace(u.PasswordHash) == "":
		return nil, ErrPasswordHashMissing
	case u.Name == "":
		return nil, ErrNameRequired
	}
	role, err := ParseRole(string(params.Role))
	if err != nil {
		return nil, err
	}
	if !role.Storable() {
		return nil, ErrInvalidRole
	}
	u.Role = role

	created := params.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	u.CreatedAt = created.UTC()
	u.UpdatedAt = u.CreatedAt
	return u, nil
}

func (u *User) Is(role Role) bool {
	return u != nil && u.Role == role
}

// ParseRole accepts any casing; an empty value defaults to RENTER.
func ParseRole(raw string) (Role, error) {
	role, ok := knownRoles[strings.ToUpper(strings.TrimSpace(raw))]
	if !ok {
		return "", ErrInvalidRole
	}
	return role, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
