package user

import "context"

// UserUsecase defines the interface for user business logic operations.
type UserUsecase interface {
	CreateUser(ctx context.Context, in CreateUserRequest) (*User, error)
	GetUser(ctx context.Context, in GetUserRequest) (*User, error)
	GetUserByEmail(ctx context.Context, in GetUserByEmailRequest) (*User, error)
	ListUsers(ctx context.Context) (*ListUsersResponse, error)
	SearchUsers(ctx context.Context, in SearchUsersRequest) (*ListUsersResponse, error)
	UpdateUser(ctx context.Context, in UpdateUserRequest) (*User, error)
	DeleteUser(ctx context.Context, in DeleteUserRequest) (*DeleteUserResponse, error)
}
