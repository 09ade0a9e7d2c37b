package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	domain "user-management-service/internal/domain/user"
	apperrors "user-management-service/pkg/errors"

	"github.com/go-playground/validator/v10"
)

// Repository defines the interface for user data access operations.
// It abstracts the data layer, allowing the relational and in-memory
// stores to be used interchangeably.
type Repository interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)                    // Insert and assign an id
	GetByID(ctx context.Context, id int64) (*domain.User, error)                         // NotFoundError if absent
	GetByEmail(ctx context.Context, email string) (*domain.User, error)                  // nil, nil if absent; case-insensitive
	ExistsByEmail(ctx context.Context, email string) (bool, error)                       // Case-insensitive
	Update(ctx context.Context, u *domain.User) (*domain.User, error)                    // NotFoundError if absent
	Delete(ctx context.Context, id int64) error                                          // NotFoundError if absent
	List(ctx context.Context) ([]domain.User, error)                                     // All users in id order
	ListBy(ctx context.Context, field domain.Field, value string) ([]domain.User, error) // Exact match in id order
}

// Option configures a Usecase.
type Option func(*Usecase)

// WithNationalityRequired makes nationality a required field on create and full update.
func WithNationalityRequired() Option {
	return func(uc *Usecase) {
		uc.requireNationality = true
	}
}

// Usecase implements the business logic for user management operations.
// mu serializes every check-then-write sequence so the email uniqueness
// check and the write that follows it cannot interleave.
type Usecase struct {
	repo               Repository
	log                *zap.Logger
	validate           *validator.Validate
	requireNationality bool

	mu sync.Mutex
}

// New creates a new instance of Usecase with the provided repository and logger.
func New(r Repository, log *zap.Logger, opts ...Option) *Usecase {
	uc := &Usecase{repo: r, log: log, validate: newValidator()}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return domain.IsNonBlank(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("emailaddr", func(fl validator.FieldLevel) bool {
		return domain.IsValidEmail(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// formatValidationError converts validator.ValidationErrors into a ValidationError
// naming the first offending field.
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		switch e.Tag() {
		case "notblank":
			messages = append(messages, fmt.Sprintf("%s is required", e.Field()))
		case "emailaddr":
			messages = append(messages, "invalid email format")
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", e.Field()))
		}
	}
	return apperrors.NewValidationError(validationErrors[0].Field(), strings.Join(messages, ", "))
}

func (uc *Usecase) checkNationality(nationality string) error {
	if uc.requireNationality && !domain.IsNonBlank(nationality) {
		return apperrors.NewValidationError("Nationality", "Nationality is required")
	}
	return nil
}

func emailConflict() error {
	return apperrors.NewAlreadyExistsError("user", "email already exists")
}

// CreateUser creates a new user after validating the request and checking email uniqueness.
func (uc *Usecase) CreateUser(ctx context.Context, in CreateUserRequest) (*User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Surname = strings.TrimSpace(in.Surname)
	in.Email = strings.TrimSpace(in.Email)
	in.Nationality = strings.TrimSpace(in.Nationality)

	uc.log.Info("creating user", zap.String("name", in.Name), zap.String("email", in.Email))

	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}
	if err := uc.checkNationality(in.Nationality); err != nil {
		uc.log.Warn("validate failed", zap.Error(err))
		return nil, err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	exists, err := uc.repo.ExistsByEmail(ctx, in.Email)
	if err != nil {
		uc.log.Error("failed to check existing email", zap.String("email", in.Email), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to validate email uniqueness", err)
	}
	if exists {
		uc.log.Warn("email already exists", zap.String("email", in.Email))
		return nil, emailConflict()
	}

	created, err := uc.repo.Create(ctx, &domain.User{
		Name:        in.Name,
		Surname:     in.Surname,
		Email:       in.Email,
		Nationality: in.Nationality,
	})
	if err != nil {
		uc.log.Error("failed to create user", zap.Error(err))
		return nil, err
	}

	uc.log.Info("user created", zap.Int64("id", created.ID))
	return toDTO(created), nil
}

// GetUser retrieves a user by ID.
func (uc *Usecase) GetUser(ctx context.Context, in GetUserRequest) (*User, error) {
	u, err := uc.repo.GetByID(ctx, in.ID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			uc.log.Debug("user not found", zap.Int64("id", in.ID))
		} else {
			uc.log.Error("failed to get user", zap.Int64("id", in.ID), zap.Error(err))
		}
		return nil, err
	}
	return toDTO(u), nil
}

// GetUserByEmail retrieves a user by email, ignoring letter case.
func (uc *Usecase) GetUserByEmail(ctx context.Context, in GetUserByEmailRequest) (*User, error) {
	email := strings.TrimSpace(in.Email)
	u, err := uc.repo.GetByEmail(ctx, email)
	if err != nil {
		uc.log.Error("failed to get user by email", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	if u == nil {
		uc.log.Debug("user not found by email", zap.String("email", email))
		return nil, apperrors.NewNotFoundError("user", "User not found with email: "+email)
	}
	return toDTO(u), nil
}

// ListUsers returns every user in id order.
func (uc *Usecase) ListUsers(ctx context.Context) (*ListUsersResponse, error) {
	users, err := uc.repo.List(ctx)
	if err != nil {
		uc.log.Error("failed to list users", zap.Error(err))
		return nil, err
	}
	return &ListUsersResponse{Users: toDTOs(users)}, nil
}

// SearchUsers returns the users whose field equals the given value exactly.
// No match yields an empty list, not an error.
func (uc *Usecase) SearchUsers(ctx context.Context, in SearchUsersRequest) (*ListUsersResponse, error) {
	if !in.Field.Valid() {
		return nil, apperrors.NewValidationError("field", fmt.Sprintf("unsupported search field %q", in.Field))
	}

	uc.log.Info("searching users", zap.String("field", string(in.Field)), zap.String("value", in.Value))

	users, err := uc.repo.ListBy(ctx, in.Field, in.Value)
	if err != nil {
		uc.log.Error("failed to search users", zap.String("field", string(in.Field)), zap.Error(err))
		return nil, err
	}
	return &ListUsersResponse{Users: toDTOs(users)}, nil
}

// UpdateUser applies the request to an existing user. In full mode every field
// is replaced; in partial mode blank fields keep their current value. An email
// change is checked for syntax and for collisions with other users.
func (uc *Usecase) UpdateUser(ctx context.Context, in UpdateUserRequest) (*User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Surname = strings.TrimSpace(in.Surname)
	in.Email = strings.TrimSpace(in.Email)
	in.Nationality = strings.TrimSpace(in.Nationality)

	uc.log.Info("updating user",
		zap.Int64("id", in.ID),
		zap.String("mode", in.Mode.String()),
		zap.String("email", in.Email),
	)

	if err := uc.validateUpdate(in); err != nil {
		uc.log.Warn("validate failed", zap.Int64("id", in.ID), zap.Error(err))
		return nil, err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	current, err := uc.repo.GetByID(ctx, in.ID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			uc.log.Warn("user to update not found", zap.Int64("id", in.ID))
		} else {
			uc.log.Error("failed to load user for update", zap.Int64("id", in.ID), zap.Error(err))
		}
		return nil, err
	}

	next := *current
	applyUpdate(&next, in)

	if !domain.SameEmail(next.Email, current.Email) {
		other, err := uc.repo.GetByEmail(ctx, next.Email)
		if err != nil {
			uc.log.Error("failed to check existing email", zap.String("email", next.Email), zap.Error(err))
			return nil, apperrors.NewInternalError("failed to validate email uniqueness", err)
		}
		if other != nil && other.ID != current.ID {
			uc.log.Warn("email already exists", zap.String("email", next.Email), zap.Int64("existing_id", other.ID))
			return nil, emailConflict()
		}
	}

	updated, err := uc.repo.Update(ctx, &next)
	if err != nil {
		uc.log.Error("failed to update user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, err
	}
	return toDTO(updated), nil
}

func (uc *Usecase) validateUpdate(in UpdateUserRequest) error {
	if in.Mode == UpdateModePartial {
		if in.Email != "" && !domain.IsValidEmail(in.Email) {
			return apperrors.NewValidationError("Email", "invalid email format")
		}
		return nil
	}

	if err := uc.validate.Struct(fullUpdate{Name: in.Name, Surname: in.Surname, Email: in.Email}); err != nil {
		return formatValidationError(err)
	}
	return uc.checkNationality(in.Nationality)
}

func applyUpdate(u *domain.User, in UpdateUserRequest) {
	if in.Mode == UpdateModeFull {
		u.Name, u.Surname, u.Email, u.Nationality = in.Name, in.Surname, in.Email, in.Nationality
		return
	}
	if in.Name != "" {
		u.Name = in.Name
	}
	if in.Surname != "" {
		u.Surname = in.Surname
	}
	if in.Email != "" {
		u.Email = in.Email
	}
	if in.Nationality != "" {
		u.Nationality = in.Nationality
	}
}

// DeleteUser removes a user. Deleting an unknown id returns a NotFoundError.
func (uc *Usecase) DeleteUser(ctx context.Context, in DeleteUserRequest) (*DeleteUserResponse, error) {
	uc.log.Info("deleting user", zap.Int64("id", in.ID))

	uc.mu.Lock()
	defer uc.mu.Unlock()

	if err := uc.repo.Delete(ctx, in.ID); err != nil {
		if apperrors.IsNotFound(err) {
			uc.log.Warn("user to delete not found", zap.Int64("id", in.ID))
		} else {
			uc.log.Error("failed to delete user", zap.Int64("id", in.ID), zap.Error(err))
		}
		return nil, err
	}

	return &DeleteUserResponse{ID: in.ID}, nil
}
