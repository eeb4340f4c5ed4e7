package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/filecrate/filecrate/internal/services"
	"github.com/filecrate/filecrate/pkg/response"
)

// UserHandler exposes the user directory used when picking grant targets.
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler constructs a handler for user endpoints.
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]gin.H, 0, len(users))
	for i := range users {
		out = append(out, userPayload(&users[i]))
	}
	response.Success(c, http.StatusOK, out)
}

// GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, userPayload(user))
}
