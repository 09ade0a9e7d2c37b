package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "user-management-service/internal/domain/user"
	usecase "user-management-service/internal/usecase/user"
	apperrors "user-management-service/pkg/errors"
)

// MockUserUsecase is a mock implementation of user.UserUsecase
type MockUserUsecase struct {
	mock.Mock
}

func (m *MockUserUsecase) CreateUser(ctx context.Context, req usecase.CreateUserRequest) (*usecase.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.User), args.Error(1)
}

func (m *MockUserUsecase) GetUser(ctx context.Context, req usecase.GetUserRequest) (*usecase.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.User), args.Error(1)
}

func (m *MockUserUsecase) GetUserByEmail(ctx context.Context, req usecase.GetUserByEmailRequest) (*usecase.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.User), args.Error(1)
}

func (m *MockUserUsecase) ListUsers(ctx context.Context) (*usecase.ListUsersResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ListUsersResponse), args.Error(1)
}

func (m *MockUserUsecase) SearchUsers(ctx context.Context, req usecase.SearchUsersRequest) (*usecase.ListUsersResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ListUsersResponse), args.Error(1)
}

func (m *MockUserUsecase) UpdateUser(ctx context.Context, req usecase.UpdateUserRequest) (*usecase.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.User), args.Error(1)
}

func (m *MockUserUsecase) DeleteUser(ctx context.Context, req usecase.DeleteUserRequest) (*usecase.DeleteUserResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.DeleteUserResponse), args.Error(1)
}

func setupTest(t *testing.T) (*gin.Engine, *MockUserUsecase) {
	gin.SetMode(gin.TestMode)
	mockUsecase := new(MockUserUsecase)
	h := NewUserHandler(mockUsecase, zaptest.NewLogger(t))

	r := gin.New()
	users := r.Group("/api/users")
	users.POST("", h.CreateUser)
	users.GET("", h.ListUsers)
	users.GET("/search/email", h.GetUserByEmail)
	users.GET("/search/name", h.SearchByName)
	users.GET("/search/surname", h.SearchBySurname)
	users.GET("/search/nationality", h.SearchByNationality)
	users.GET("/:id", h.GetUser)
	users.PUT("/:id", h.UpdateUser)
	users.PATCH("/:id", h.PatchUser)
	users.DELETE("/:id", h.DeleteUser)
	return r, mockUsecase
}

func doRequest(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	switch b := body.(type) {
	case nil:
		buf = &bytes.Buffer{}
	case string:
		buf = bytes.NewBufferString(b)
	default:
		data, _ := json.Marshal(b)
		buf = bytes.NewBuffer(data)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

var john = &usecase.User{ID: 1, Name: "John", Surname: "Doe", Email: "john@example.com", Nationality: "American"}

func TestCreateUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		mockUsecase.On("CreateUser", mock.Anything, usecase.CreateUserRequest{
			Name: "John", Surname: "Doe", Email: "john@example.com", Nationality: "American",
		}).Return(john, nil)

		w := doRequest(r, http.MethodPost, "/api/users", UserRequest{
			Name: "John", Surname: "Doe", Email: "john@example.com", Nationality: "American",
		})

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, float64(1), resp["id"])
		assert.Equal(t, "Doe", resp["surname"])
		assert.Equal(t, "American", resp["nationality"])
		mockUsecase.AssertExpectations(t)
	})

	t.Run("Invalid Request Body", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		w := doRequest(r, http.MethodPost, "/api/users", "invalid json")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid request body", decodeError(t, w))
		mockUsecase.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("Validation Error", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		mockUsecase.On("CreateUser", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewValidationError("Email", "invalid email format"))

		w := doRequest(r, http.MethodPost, "/api/users", UserRequest{Name: "John", Surname: "Doe", Email: "bad", Nationality: "x"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid email format", decodeError(t, w))
	})

	t.Run("Duplicate Email", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		mockUsecase.On("CreateUser", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewAlreadyExistsError("user", "email already exists"))

		w := doRequest(r, http.MethodPost, "/api/users", UserRequest{Name: "John", Surname: "Doe", Email: "JOHN@example.com", Nationality: "x"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "email already exists", decodeError(t, w))
	})

	t.Run("Internal Error", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		mockUsecase.On("CreateUser", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewInternalError("failed to validate email uniqueness", errors.New("db down")))

		w := doRequest(r, http.MethodPost, "/api/users", UserRequest{Name: "John", Surname: "Doe", Email: "john@example.com", Nationality: "x"})

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "internal server error", decodeError(t, w))
	})
}

func TestGetUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("GetUser", mock.Anything, usecase.GetUserRequest{ID: 1}).Return(john, nil)

		w := doRequest(r, http.MethodGet, "/api/users/1", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp UserResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, UserResponse{ID: 1, Name: "John", Surname: "Doe", Email: "john@example.com", Nationality: "American"}, resp)
	})

	t.Run("Invalid ID", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		w := doRequest(r, http.MethodGet, "/api/users/abc", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid user id", decodeError(t, w))
		mockUsecase.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
	})

	t.Run("Not Found", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("GetUser", mock.Anything, usecase.GetUserRequest{ID: 999}).Return(nil, domain.NotFoundByID(999))

		w := doRequest(r, http.MethodGet, "/api/users/999", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "User not found with id: 999", decodeError(t, w))
	})
}

func TestListUsers(t *testing.T) {
	r, mockUsecase := setupTest(t)
	mockUsecase.On("ListUsers", mock.Anything).Return(&usecase.ListUsersResponse{Users: []usecase.User{*john}}, nil)

	w := doRequest(r, http.MethodGet, "/api/users", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp []UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "john@example.com", resp[0].Email)
}

func TestListUsers_EmptyIsArray(t *testing.T) {
	r, mockUsecase := setupTest(t)
	mockUsecase.On("ListUsers", mock.Anything).Return(&usecase.ListUsersResponse{Users: []usecase.User{}}, nil)

	w := doRequest(r, http.MethodGet, "/api/users", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestUpdateUser(t *testing.T) {
	t.Run("PUT is a full update", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		updated := &usecase.User{ID: 1, Name: "John", Surname: "Updated", Email: "john@example.com", Nationality: "Canadian"}

		mockUsecase.On("UpdateUser", mock.Anything, usecase.UpdateUserRequest{
			ID: 1, Name: "John", Surname: "Updated", Email: "john@example.com", Nationality: "Canadian", Mode: usecase.UpdateModeFull,
		}).Return(updated, nil)

		w := doRequest(r, http.MethodPut, "/api/users/1", UserRequest{
			Name: "John", Surname: "Updated", Email: "john@example.com", Nationality: "Canadian",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		var resp UserResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Updated", resp.Surname)
		assert.Equal(t, "Canadian", resp.Nationality)
		mockUsecase.AssertExpectations(t)
	})

	t.Run("PATCH is a partial update", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		mockUsecase.On("UpdateUser", mock.Anything, mock.MatchedBy(func(req usecase.UpdateUserRequest) bool {
			return req.ID == 1 && req.Mode == usecase.UpdateModePartial && req.Surname == "Smith" && req.Name == ""
		})).Return(&usecase.User{ID: 1, Name: "John", Surname: "Smith"}, nil)

		w := doRequest(r, http.MethodPatch, "/api/users/1", map[string]string{"surname": "Smith"})

		assert.Equal(t, http.StatusOK, w.Code)
		mockUsecase.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("UpdateUser", mock.Anything, mock.Anything).Return(nil, domain.NotFoundByID(9))

		w := doRequest(r, http.MethodPut, "/api/users/9", UserRequest{Name: "a", Surname: "b", Email: "a@b", Nationality: "c"})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Conflict", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("UpdateUser", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewAlreadyExistsError("user", "email already exists"))

		w := doRequest(r, http.MethodPatch, "/api/users/1", map[string]string{"email": "jane@example.com"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "email already exists", decodeError(t, w))
	})

	t.Run("Invalid ID", func(t *testing.T) {
		r, _ := setupTest(t)

		w := doRequest(r, http.MethodPut, "/api/users/x", UserRequest{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDeleteUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("DeleteUser", mock.Anything, usecase.DeleteUserRequest{ID: 1}).Return(&usecase.DeleteUserResponse{ID: 1}, nil)

		w := doRequest(r, http.MethodDelete, "/api/users/1", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"User deleted successfully"}`, w.Body.String())
	})

	t.Run("Not Found", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("DeleteUser", mock.Anything, usecase.DeleteUserRequest{ID: 2}).Return(nil, domain.NotFoundByID(2))

		w := doRequest(r, http.MethodDelete, "/api/users/2", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestGetUserByEmail(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("GetUserByEmail", mock.Anything, usecase.GetUserByEmailRequest{Email: "JOHN@example.com"}).Return(john, nil)

		w := doRequest(r, http.MethodGet, "/api/users/search/email?email=JOHN@example.com", nil)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Not Found", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("GetUserByEmail", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewNotFoundError("user", "User not found with email: x@y.z"))

		w := doRequest(r, http.MethodGet, "/api/users/search/email?email=x@y.z", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Missing Param", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		w := doRequest(r, http.MethodGet, "/api/users/search/email", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockUsecase.AssertNotCalled(t, "GetUserByEmail", mock.Anything, mock.Anything)
	})
}

func TestSearchUsers(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		field domain.Field
		value string
	}{
		{name: "by name", path: "/api/users/search/name?name=John", field: domain.FieldName, value: "John"},
		{name: "by surname", path: "/api/users/search/surname?surname=Doe", field: domain.FieldSurname, value: "Doe"},
		{name: "by nationality", path: "/api/users/search/nationality?nationality=American", field: domain.FieldNationality, value: "American"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, mockUsecase := setupTest(t)
			mockUsecase.On("SearchUsers", mock.Anything, usecase.SearchUsersRequest{Field: tt.field, Value: tt.value}).
				Return(&usecase.ListUsersResponse{Users: []usecase.User{*john}}, nil)

			w := doRequest(r, http.MethodGet, tt.path, nil)

			assert.Equal(t, http.StatusOK, w.Code)
			var resp []UserResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Len(t, resp, 1)
		})
	}

	t.Run("Missing Param", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		w := doRequest(r, http.MethodGet, "/api/users/search/nationality", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "query parameter 'nationality' is required", decodeError(t, w))
		mockUsecase.AssertNotCalled(t, "SearchUsers", mock.Anything, mock.Anything)
	})

	t.Run("No Match", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("SearchUsers", mock.Anything, mock.Anything).Return(&usecase.ListUsersResponse{Users: []usecase.User{}}, nil)

		w := doRequest(r, http.MethodGet, "/api/users/search/name?name=Nobody", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, "[]", w.Body.String())
	})
}
