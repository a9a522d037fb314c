package domain

import (
	"errors"
	"time"
)

// User represents a system user
type User struct {
	ID             string
	Email          string
	Name           string
	HashedPassword string
	Role           Role
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Active         bool
}

// Role represents a user's access level
type Role string

const (
	// RoleAdmin has full access, including voiding batch uploads
	RoleAdmin Role = "admin"

	// RoleTeller can apply payments and view credits, but cannot void
	RoleTeller Role = "teller"

	// RoleViewer can only view resources, no mutations
	RoleViewer Role = "viewer"
)

// Valid roles
var validRoles = map[Role]bool{
	RoleAdmin:  true,
	RoleTeller: true,
	RoleViewer: true,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// CanApplyPayments checks if the role can apply payments and batches
func (r Role) CanApplyPayments() bool {
	return r == RoleAdmin || r == RoleTeller
}

// CanVoid checks if the role can void batch uploads
func (r Role) CanVoid() bool {
	return r == RoleAdmin
}

// CanViewAll checks if the role can view all resources
func (r Role) CanViewAll() bool {
	// All authenticated users can view
	return r.IsValid()
}

// Authentication errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInsufficientRole = errors.New("insufficient role for this operation")
)
