package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-management-service/internal/adapter/gin/middleware"
	"user-management-service/internal/usecase/user"
	apperrors "user-management-service/pkg/errors"
	"user-management-service/pkg/logger"
)

var errMissingPayload = errors.New("request payload was not validated")

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

// ListUsers handles GET /api/v1/user
func (h *UserHandler) ListUsers(c *gin.Context) {
	ctx := c.Request.Context()
	query, _ := middleware.Payload[ListUsersQuery](c)

	if query.Email != "" {
		resp, err := h.uc.FindByEmail(ctx, user.FindByEmailRequest{Email: query.Email})
		if err != nil && !apperrors.IsNotFound(err) {
			h.handleError(c, "ListUsers", err)
			return
		}
		users := []UserResponse{}
		if resp != nil {
			users = append(users, toUserResponse(resp.User))
		}
		c.JSON(http.StatusOK, Response{Status: true, Message: MsgSuccess, Data: users})
		return
	}

	resp, err := h.uc.ListUsers(ctx)
	if err != nil {
		h.handleError(c, "ListUsers", err)
		return
	}

	users := make([]UserResponse, len(resp.Users))
	for i, u := range resp.Users {
		users[i] = toUserResponse(u)
	}
	c.JSON(http.StatusOK, Response{Status: true, Message: MsgSuccess, Data: users})
}

// GetUser handles GET /api/v1/user/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	params, ok := middleware.Payload[UserIDParams](c)
	if !ok {
		h.handleError(c, "GetUser", errMissingPayload)
		return
	}

	resp, err := h.uc.GetUser(c.Request.Context(), user.GetUserRequest{ID: params.ID})
	if err != nil {
		h.handleError(c, "GetUser", err)
		return
	}

	c.JSON(http.StatusOK, Response{Status: true, Message: MsgSuccess, Data: toUserResponse(resp.User)})
}

// CreateUser handles POST /api/v1/user
func (h *UserHandler) CreateUser(c *gin.Context) {
	req, ok := middleware.Payload[CreateUserRequest](c)
	if !ok {
		h.handleError(c, "CreateUser", errMissingPayload)
		return
	}

	_, err := h.uc.CreateUser(c.Request.Context(), user.CreateUserRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		// a taken email is reported in-band, not as an HTTP error
		if apperrors.IsAlreadyExists(err) {
			c.JSON(http.StatusOK, Response{Status: false, Message: MsgEmailTaken})
			return
		}
		h.handleError(c, "CreateUser", err)
		return
	}

	c.JSON(http.StatusOK, Response{Status: true, Message: MsgUserCreated})
}

// UpdateUser handles PATCH /api/v1/user/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	req, ok := middleware.Payload[UpdateUserRequest](c)
	if !ok {
		h.handleError(c, "UpdateUser", errMissingPayload)
		return
	}

	_, err := h.uc.UpdateUser(c.Request.Context(), user.UpdateUserRequest{
		ID:    req.ID,
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		h.handleError(c, "UpdateUser", err)
		return
	}

	c.JSON(http.StatusOK, Response{Status: true, Message: MsgUserUpdated})
}

// DeleteUser handles DELETE /api/v1/user/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	params, ok := middleware.Payload[UserIDParams](c)
	if !ok {
		h.handleError(c, "DeleteUser", errMissingPayload)
		return
	}

	if _, err := h.uc.DeleteUser(c.Request.Context(), user.DeleteUserRequest{ID: params.ID}); err != nil {
		h.handleError(c, "DeleteUser", err)
		return
	}

	c.JSON(http.StatusOK, Response{Status: true, Message: MsgUserDeleted})
}

// ChangePassword handles POST /api/v1/user/change-password/:id
func (h *UserHandler) ChangePassword(c *gin.Context) {
	req, ok := middleware.Payload[ChangePasswordRequest](c)
	if !ok {
		h.handleError(c, "ChangePassword", errMissingPayload)
		return
	}

	_, err := h.uc.ChangePassword(c.Request.Context(), user.ChangePasswordRequest{ID: req.ID, Password: req.Password})
	if err != nil {
		h.handleError(c, "ChangePassword", err)
		return
	}

	c.JSON(http.StatusOK, Response{Status: true, Message: MsgPasswordUpdated})
}

// ToggleStatus handles POST /api/v1/user/state/:id
func (h *UserHandler) ToggleStatus(c *gin.Context) {
	params, ok := middleware.Payload[UserIDParams](c)
	if !ok {
		h.handleError(c, "ToggleStatus", errMissingPayload)
		return
	}

	if _, err := h.uc.ToggleStatus(c.Request.Context(), user.ToggleStatusRequest{ID: params.ID}); err != nil {
		h.handleError(c, "ToggleStatus", err)
		return
	}

	c.JSON(http.StatusOK, Response{Status: true, Message: MsgStatusUpdated})
}

// handleError converts usecase errors to HTTP responses.
// The status comes from the error; validation failures keep the bad request envelope.
func (h *UserHandler) handleError(c *gin.Context, op string, err error) {
	log := logger.WithContext(c.Request.Context(), h.log)
	status := apperrors.StatusCode(err)

	var verr *apperrors.ValidationError
	if errors.As(err, &verr) {
		log.Warn(op+" rejected", zap.Error(err))
		c.JSON(status, gin.H{"status": "bad request", "message": verr.Message})
		return
	}

	switch status {
	case http.StatusNotFound:
		log.Info(op+" user not found", zap.Error(err))
		c.JSON(status, Response{Status: false, Message: MsgUserNotFound})
	case http.StatusConflict:
		log.Warn(op+" email already registered", zap.Error(err))
		c.JSON(status, Response{Status: false, Message: MsgEmailTaken})
	default:
		log.Error(op+" failed", zap.Error(err), zap.Int("status", status))
		c.JSON(status, Response{
			Status:  false,
			Message: MsgInternalError,
			Error:   err.Error(),
		})
	}
}
