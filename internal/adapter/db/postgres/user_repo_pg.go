package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-management-service/internal/domain/user"
	apperrors "user-management-service/pkg/errors"
)

// UserRepoPG implements the Repository interface on top of GORM. It is tested
// against SQLite and runs against PostgreSQL in production.
type UserRepoPG struct {
	db  *gorm.DB    // GORM database connection
	log *zap.Logger // Structured logger for database operations
}

// NewUserRepoPG creates a new instance of UserRepoPG.
func NewUserRepoPG(db *gorm.DB, log *zap.Logger) *UserRepoPG {
	return &UserRepoPG{db: db, log: log}
}

// UserSchema represents the database schema for the users table.
// EmailKey holds the lower-cased email so the unique index enforces
// case-insensitive uniqueness at the storage layer.
type UserSchema struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"not null"`
	Surname     string `gorm:"not null"`
	Email       string `gorm:"not null"`
	EmailKey    string `gorm:"column:email_key;not null;uniqueIndex:idx_users_email_key"`
	Nationality string `gorm:"not null;index"`
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

func toSchema(u *user.User) UserSchema {
	return UserSchema{
		ID:          u.ID,
		Name:        u.Name,
		Surname:     u.Surname,
		Email:       u.Email,
		EmailKey:    user.EmailKey(u.Email),
		Nationality: u.Nationality,
	}
}

func (m UserSchema) toDomain() user.User {
	return user.User{
		ID:          m.ID,
		Name:        m.Name,
		Surname:     m.Surname,
		Email:       m.Email,
		Nationality: m.Nationality,
	}
}

// AutoMigrate creates or updates the users table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&UserSchema{})
}

// isUniqueViolation recognizes unique index violations whether or not the
// dialector translated them into gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

// Create inserts a new user into the database.
func (r *UserRepoPG) Create(ctx context.Context, u *user.User) (*user.User, error) {
	if u == nil {
		return nil, errors.New("user cannot be nil")
	}

	model := toSchema(u)
	model.ID = 0

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if isUniqueViolation(err) {
			r.log.Warn("duplicate email rejected by db", zap.String("email", u.Email))
			return nil, apperrors.NewAlreadyExistsError("user", "email already exists")
		}
		r.log.Error("failed to create user in db", zap.Error(err), zap.String("email", u.Email))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	r.log.Info("user created in db", zap.Int64("id", model.ID))
	out := model.toDomain()
	return &out, nil
}

// Update overwrites every mutable column of an existing user.
func (r *UserRepoPG) Update(ctx context.Context, u *user.User) (*user.User, error) {
	if u == nil {
		return nil, errors.New("user cannot be nil")
	}

	model := toSchema(u)
	res := r.db.WithContext(ctx).Model(&UserSchema{}).Where("id = ?", u.ID).Updates(map[string]any{
		"name":        model.Name,
		"surname":     model.Surname,
		"email":       model.Email,
		"email_key":   model.EmailKey,
		"nationality": model.Nationality,
	})
	if err := res.Error; err != nil {
		if isUniqueViolation(err) {
			r.log.Warn("duplicate email rejected by db", zap.String("email", u.Email), zap.Int64("id", u.ID))
			return nil, apperrors.NewAlreadyExistsError("user", "email already exists")
		}
		r.log.Error("failed to update user in db", zap.Error(err), zap.Int64("id", u.ID))
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if res.RowsAffected == 0 {
		r.log.Warn("user not found", zap.Int64("id", u.ID))
		return nil, user.NotFoundByID(u.ID)
	}

	r.log.Info("user updated in db", zap.Int64("id", u.ID))
	out := model.toDomain()
	return &out, nil
}

// Delete removes a user from the database by ID.
func (r *UserRepoPG) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&UserSchema{}, id)
	if err := res.Error; err != nil {
		r.log.Error("failed to delete user in db", zap.Error(err), zap.Int64("id", id))
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if res.RowsAffected == 0 {
		r.log.Warn("user not found", zap.Int64("id", id))
		return user.NotFoundByID(id)
	}

	r.log.Info("user deleted in db", zap.Int64("id", id))
	return nil
}

// GetByID retrieves a user from the database by their unique ID.
func (r *UserRepoPG) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("user not found", zap.Int64("id", id))
			return nil, user.NotFoundByID(id)
		}
		r.log.Error("failed to get user from db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	out := model.toDomain()
	return &out, nil
}

// GetByEmail retrieves a user by email address, ignoring letter case.
func (r *UserRepoPG) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).Where("email_key = ?", user.EmailKey(email)).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("user not found by email", zap.String("email", email))
			return nil, nil
		}
		r.log.Error("failed to get user by email from db", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	out := model.toDomain()
	return &out, nil
}

// ExistsByEmail reports whether a user owns email, ignoring letter case.
func (r *UserRepoPG) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&UserSchema{}).Where("email_key = ?", user.EmailKey(email)).Count(&count).Error; err != nil {
		r.log.Error("failed to count users by email", zap.Error(err), zap.String("email", email))
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

// List retrieves every user ordered by id.
func (r *UserRepoPG) List(ctx context.Context) ([]user.User, error) {
	var models []UserSchema
	if err := r.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		r.log.Error("failed to list users from db", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return toDomainList(models), nil
}

// ListBy retrieves the users whose field equals value exactly, ordered by id.
func (r *UserRepoPG) ListBy(ctx context.Context, field user.Field, value string) ([]user.User, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("unsupported search field: %s", field)
	}

	var models []UserSchema
	if err := r.db.WithContext(ctx).Where(map[string]any{string(field): value}).Order("id").Find(&models).Error; err != nil {
		r.log.Error("failed to search users in db", zap.Error(err), zap.String("field", string(field)))
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return toDomainList(models), nil
}

func toDomainList(models []UserSchema) []user.User {
	users := make([]user.User, len(models))
	for i, model := range models {
		users[i] = model.toDomain()
	}
	return users
}
