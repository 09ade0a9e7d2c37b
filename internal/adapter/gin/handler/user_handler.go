package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domain "user-management-service/internal/domain/user"
	"user-management-service/internal/usecase/user"
	apperrors "user-management-service/pkg/errors"
	"user-management-service/pkg/logger"
	"user-management-service/pkg/security"
)

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	uc  user.UserUsecase
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.UserUsecase, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// UserRequest represents the HTTP request body for creating or updating a user.
// An id in the body is ignored.
type UserRequest struct {
	Name        string `json:"name"`
	Surname     string `json:"surname"`
	Email       string `json:"email"`
	Nationality string `json:"nationality"`
}

// UserResponse represents the HTTP response for user data
type UserResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Surname     string `json:"surname"`
	Email       string `json:"email"`
	Nationality string `json:"nationality"`
}

// MessageResponse represents a plain confirmation message
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

const deletedMessage = "User deleted successfully"

func toResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Surname:     u.Surname,
		Email:       u.Email,
		Nationality: u.Nationality,
	}
}

func toResponses(users []user.User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i := range users {
		out[i] = toResponse(&users[i])
	}
	return out
}

// CreateUser handles POST /api/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	log := logger.WithContext(c.Request.Context(), h.log)

	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("invalid create user request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	log.Info("create user request", zap.String("email", req.Email))

	resp, err := h.uc.CreateUser(c.Request.Context(), user.CreateUserRequest{
		Name:        req.Name,
		Surname:     req.Surname,
		Email:       req.Email,
		Nationality: req.Nationality,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toResponse(resp))
}

// ListUsers handles GET /api/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	resp, err := h.uc.ListUsers(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponses(resp.Users))
}

// GetUser handles GET /api/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	resp, err := h.uc.GetUser(c.Request.Context(), user.GetUserRequest{ID: id})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(resp))
}

// UpdateUser handles PUT /api/users/:id. Every field is replaced.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	h.update(c, user.UpdateModeFull)
}

// PatchUser handles PATCH /api/users/:id. Fields left blank keep their value.
func (h *UserHandler) PatchUser(c *gin.Context) {
	h.update(c, user.UpdateModePartial)
}

func (h *UserHandler) update(c *gin.Context, mode user.UpdateMode) {
	log := logger.WithContext(c.Request.Context(), h.log)

	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("invalid update user request", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	log.Info("update user request", zap.Int64("id", id), zap.String("mode", mode.String()))

	resp, err := h.uc.UpdateUser(c.Request.Context(), user.UpdateUserRequest{
		ID:          id,
		Name:        req.Name,
		Surname:     req.Surname,
		Email:       req.Email,
		Nationality: req.Nationality,
		Mode:        mode,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(resp))
}

// DeleteUser handles DELETE /api/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if _, err := h.uc.DeleteUser(c.Request.Context(), user.DeleteUserRequest{ID: id}); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: deletedMessage})
}

// GetUserByEmail handles GET /api/users/search/email?email=
func (h *UserHandler) GetUserByEmail(c *gin.Context) {
	email, err := security.ValidateSearchTerm("email", c.Query("email"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	resp, err := h.uc.GetUserByEmail(c.Request.Context(), user.GetUserByEmailRequest{Email: email})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(resp))
}

// SearchByName handles GET /api/users/search/name?name=
func (h *UserHandler) SearchByName(c *gin.Context) {
	h.search(c, domain.FieldName)
}

// SearchBySurname handles GET /api/users/search/surname?surname=
func (h *UserHandler) SearchBySurname(c *gin.Context) {
	h.search(c, domain.FieldSurname)
}

// SearchByNationality handles GET /api/users/search/nationality?nationality=
func (h *UserHandler) SearchByNationality(c *gin.Context) {
	h.search(c, domain.FieldNationality)
}

// search reads the query parameter named after the field and returns exact matches.
func (h *UserHandler) search(c *gin.Context, field domain.Field) {
	value, err := security.ValidateSearchTerm(string(field), c.Query(string(field)))
	if err != nil {
		h.handleError(c, err)
		return
	}

	resp, err := h.uc.SearchUsers(c.Request.Context(), user.SearchUsersRequest{Field: field, Value: value})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponses(resp.Users))
}

func (h *UserHandler) parseID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		logger.WithContext(c.Request.Context(), h.log).Warn("invalid user id", zap.String("id", idStr))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return 0, false
	}
	return id, true
}

// handleError converts usecase errors to HTTP responses. Validation errors and
// email conflicts are both client errors and map to 400.
func (h *UserHandler) handleError(c *gin.Context, err error) {
	log := logger.WithContext(c.Request.Context(), h.log).With(
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
	)

	switch {
	case apperrors.IsValidation(err), apperrors.IsAlreadyExists(err):
		log.Warn("request rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case apperrors.IsNotFound(err):
		log.Debug("resource not found", zap.Error(err))
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	default:
		log.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}
