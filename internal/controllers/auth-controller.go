package controllers

import (
	"errors"
	"net/http"

	"github.com/franciscosanchezn/gin-hr-identity/internal/auth"
	"github.com/franciscosanchezn/gin-hr-identity/internal/middleware"
	"github.com/franciscosanchezn/gin-hr-identity/internal/models"
	"github.com/franciscosanchezn/gin-hr-identity/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuthController manages user accounts and the login session of the
// authorization endpoint.
type AuthController struct {
	userService services.UserService
	server      *auth.AuthorizationServer
	sessions    *middleware.SessionManager
	log         logrus.FieldLogger
}

func NewAuthController(userService services.UserService, server *auth.AuthorizationServer, sessions *middleware.SessionManager, log logrus.FieldLogger) *AuthController {
	return &AuthController{
		userService: userService,
		server:      server,
		sessions:    sessions,
		log:         log,
	}
}

// Register godoc
// @Summary Create a user
// @Description Create an employee or admin account that can sign in on the authorization page
// @Tags Users
// @Accept json
// @Produce json
// @Param user body object{email=string,password=string,name=string,nickname=string,sub=string,role=string} true "User details"
// @Success 201 {object} map[string]interface{} "User created"
// @Failure 400 {object} models.APIError "Invalid request"
// @Failure 409 {object} models.APIError "User already exists"
// @Failure 500 {object} models.APIError "User creation failed"
// @Security BearerAuth
// @Router /api/v1/protected/admin/users [post]
func (ac *AuthController) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
		Name     string `json:"name"`
		Nickname string `json:"nickname"`
		Sub      string `json:"sub"`
		Role     string `json:"role" binding:"omitempty,oneof=admin employee"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrValidationFailed, err.Error()))
		return
	}

	user := &models.User{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Nickname: req.Nickname,
		Sub:      req.Sub,
		Role:     req.Role,
	}

	if err := ac.userService.CreateUser(c.Request.Context(), user); err != nil {
		if errors.Is(err, services.ErrUserAlreadyExists) {
			c.JSON(http.StatusConflict, models.NewAPIError(models.ErrUserExists, "user_already_exists"))
			return
		}
		ac.log.WithError(err).Error("Failed to create user")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "user_creation_failed"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":    user.ID,
		"email": user.Email,
		"name":  user.Name,
		"sub":   user.Subject(),
		"role":  user.Role,
	})
}

// Logout godoc
// @Summary End the login session
// @Description Clears the login session of the authorization page and revokes every token issued to the user
// @Tags OAuth2
// @Success 204 "Logged out"
// @Failure 500 {object} models.OAuth2Error
// @Router /oauth/logout [post]
func (ac *AuthController) Logout(c *gin.Context) {
	if userID := c.GetString(middleware.ContextSessionUserID); userID != "" {
		if err := ac.server.RevokeUserTokens(c.Request.Context(), userID); err != nil {
			oerr := auth.AsOAuthError(err)
			c.JSON(oerr.StatusCode(), models.NewOAuth2Error(oerr.Code(), oerr.Message()))
			return
		}
		ac.log.WithField("user_id", userID).Info("User logged out")
	}
	ac.sessions.Clear(c)
	c.Status(http.StatusNoContent)
}
