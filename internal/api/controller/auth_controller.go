package controller

import (
	"ctchen222/bookshelf/internal/api/middleware"
	"ctchen222/bookshelf/internal/api/models"
	"ctchen222/bookshelf/internal/api/response"
	"ctchen222/bookshelf/internal/api/service"

	"github.com/gin-gonic/gin"
)

// AuthController handles registration, login and the current user.
type AuthController struct {
	authService service.AuthService
}

// NewAuthController creates a new AuthController.
func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

// Register handles the user registration endpoint.
func (ac *AuthController) Register(c *gin.Context) {
	var req models.CredentialsRequest
	if err := bindJSON(c, &req); err != nil {
		c.Error(err)
		return
	}

	user, err := ac.authService.Register(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	response.SuccessResponse(c, models.UserResponse{User: user})
}

// Login handles the user login endpoint.
func (ac *AuthController) Login(c *gin.Context) {
	var req models.CredentialsRequest
	if err := bindJSON(c, &req); err != nil {
		c.Error(err)
		return
	}

	user, err := ac.authService.Login(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	response.SuccessResponse(c, models.UserResponse{User: user})
}

// Me returns the authenticated user.
func (ac *AuthController) Me(c *gin.Context) {
	response.SuccessResponse(c, models.UserResponse{User: middleware.CurrentUser(c)})
}
