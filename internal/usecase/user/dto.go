package user

import domain "user-management-service/internal/domain/user"

// UpdateMode selects how UpdateUser treats fields left blank in the request.
type UpdateMode int

const (
	// UpdateModeFull replaces every mutable field; all of them are required.
	UpdateModeFull UpdateMode = iota
	// UpdateModePartial keeps the current value of any field left blank.
	UpdateModePartial
)

// String returns the mode name used in logs.
func (m UpdateMode) String() string {
	if m == UpdateModePartial {
		return "partial"
	}
	return "full"
}

// CreateUserRequest represents the request payload for creating a new user.
// Nationality is checked separately because only the REST service requires it.
type CreateUserRequest struct {
	Name        string `validate:"notblank"`
	Surname     string `validate:"notblank"`
	Email       string `validate:"notblank,emailaddr"`
	Nationality string
}

// UpdateUserRequest represents the request payload for updating an existing user.
type UpdateUserRequest struct {
	ID          int64
	Name        string
	Surname     string
	Email       string
	Nationality string
	Mode        UpdateMode
}

// fullUpdate carries the validation rules applied to a full-replace update.
type fullUpdate struct {
	Name    string `validate:"notblank"`
	Surname string `validate:"notblank"`
	Email   string `validate:"notblank,emailaddr"`
}

// DeleteUserRequest represents the request payload for deleting a user.
type DeleteUserRequest struct {
	ID int64
}

// DeleteUserResponse represents the response payload after deleting a user.
type DeleteUserResponse struct {
	ID int64
}

// GetUserRequest represents the request payload for retrieving a user.
type GetUserRequest struct {
	ID int64
}

// GetUserByEmailRequest looks a user up by email, ignoring letter case.
type GetUserByEmailRequest struct {
	Email string
}

// SearchUsersRequest matches users whose Field equals Value exactly.
type SearchUsersRequest struct {
	Field domain.Field
	Value string
}

// ListUsersResponse represents the response payload for user listing and search.
type ListUsersResponse struct {
	Users []User
}

// User represents a user DTO (Data Transfer Object) for API responses.
type User struct {
	ID          int64
	Name        string
	Surname     string
	Email       string
	Nationality string
}

func toDTO(u *domain.User) *User {
	return &User{
		ID:          u.ID,
		Name:        u.Name,
		Surname:     u.Surname,
		Email:       u.Email,
		Nationality: u.Nationality,
	}
}

func toDTOs(users []domain.User) []User {
	out := make([]User, len(users))
	for i := range users {
		out[i] = *toDTO(&users[i])
	}
	return out
}
