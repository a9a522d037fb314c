package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/credisol/crediledger/internal/domain"
)

// UserRepository persists back-office operator accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)
}

var (
	errRoleUnknown   = errors.New("invalid role")
	errEmailTaken    = errors.New("user with this email already exists")
	errAccountLocked = errors.New("user account is inactive")
)

// UserUseCase manages the operator accounts behind the login and role
// middleware. Tellers, ops and admins are all rows in the same table; only
// the role differs.
type UserUseCase struct {
	userRepo UserRepository
}

// NewUserUseCase creates a new UserUseCase.
func NewUserUseCase(userRepo UserRepository) *UserUseCase {
	return &UserUseCase{userRepo: userRepo}
}

// CreateUserInput carries the fields of a new operator account.
type CreateUserInput struct {
	Email    string
	Name     string
	Password string
	Role     domain.Role
}

// CreateUser registers an operator account. The password is bcrypt-hashed
// before it touches storage and the hash never leaves this package.
func (uc *UserUseCase) CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	if err := domain.ValidateEmail(input.Email); err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, err
	}
	if !input.Role.IsValid() {
		return nil, errRoleUnknown
	}

	if existing, err := uc.userRepo.GetByEmail(ctx, input.Email); err == nil && existing != nil {
		return nil, errEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:             ulid.Make().String(),
		Email:          input.Email,
		Name:           input.Name,
		HashedPassword: string(hash),
		Role:           input.Role,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return scrub(user), nil
}

// AuthenticateInput carries login credentials.
type AuthenticateInput struct {
	Email    string
	Password string
}

// Authenticate checks credentials against the stored hash. A missing account
// and a wrong password look the same to the caller.
func (uc *UserUseCase) Authenticate(ctx context.Context, input AuthenticateInput) (*domain.User, error) {
	user, err := uc.userRepo.GetByEmail(ctx, input.Email)
	if err != nil || user == nil {
		return nil, domain.ErrUnauthorized
	}

	if !user.Active {
		return nil, errAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(input.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}

	return scrub(user), nil
}

// GetUser retrieves an operator account by ID.
func (uc *UserUseCase) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return scrub(user), nil
}

// UpdateUserInput carries a partial account update; nil fields are left
// untouched.
type UpdateUserInput struct {
	ID       string
	Name     *string
	Role     *domain.Role
	Active   *bool
	Password *string
}

// UpdateUser applies a partial update to an operator account.
func (uc *UserUseCase) UpdateUser(ctx context.Context, input UpdateUserInput) (*domain.User, error) {
	user, err := uc.userRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, errRoleUnknown
		}
		user.Role = *input.Role
	}
	if input.Active != nil {
		user.Active = *input.Active
	}
	if input.Password != nil {
		if err := domain.ValidatePassword(*input.Password); err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.HashedPassword = string(hash)
	}

	user.UpdatedAt = time.Now().UTC()

	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return scrub(user), nil
}

// DeleteUser removes an operator account.
func (uc *UserUseCase) DeleteUser(ctx context.Context, id string) error {
	return uc.userRepo.Delete(ctx, id)
}

// ListUsers lists operator accounts with pagination.
func (uc *UserUseCase) ListUsers(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	limit, offset, _ = domain.ValidatePagination(limit, offset)

	users, err := uc.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	for _, user := range users {
		scrub(user)
	}
	return users, nil
}

// scrub blanks the password hash before a user leaves the use case.
func scrub(u *domain.User) *domain.User {
	u.HashedPassword = ""
	return u
}
