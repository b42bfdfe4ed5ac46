package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/franciscosanchezn/gin-hr-identity/internal/middleware"
	"github.com/franciscosanchezn/gin-hr-identity/internal/models"
	"github.com/franciscosanchezn/gin-hr-identity/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ClientController struct {
	clientService services.ClientService
	scopeService  services.ScopeService
	log           logrus.FieldLogger
}

func NewClientController(clientService services.ClientService, scopeService services.ScopeService, log logrus.FieldLogger) *ClientController {
	return &ClientController{clientService: clientService, scopeService: scopeService, log: log}
}

type clientRequest struct {
	Name         string   `json:"name" binding:"required"`
	RedirectURI  string   `json:"redirect_uri" binding:"required"`
	GrantTypes   []string `json:"grant_types"`
	Scopes       []string `json:"scopes"`
	Confidential *bool    `json:"confidential"`
}

func (r *clientRequest) input() services.ClientInput {
	return services.ClientInput{
		Name:              r.Name,
		RedirectURI:       r.RedirectURI,
		AllowedGrantTypes: r.GrantTypes,
		Scopes:            r.Scopes,
		Confidential:      r.Confidential == nil || *r.Confidential,
	}
}

type clientResponse struct {
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret,omitempty"`
	Name         string    `json:"name"`
	RedirectURI  string    `json:"redirect_uri"`
	GrantTypes   []string  `json:"grant_types"`
	Scopes       []string  `json:"scopes"`
	Confidential bool      `json:"confidential"`
	Revoked      bool      `json:"revoked"`
	CreatedAt    time.Time `json:"created_at"`
}

func newClientResponse(client *models.OAuthClient) clientResponse {
	return clientResponse{
		ClientID:     client.ID,
		Name:         client.Name,
		RedirectURI:  client.RedirectURI,
		GrantTypes:   client.GrantTypeList(),
		Scopes:       strings.Fields(client.Scopes),
		Confidential: client.IsConfidential(),
		Revoked:      client.Revoked,
		CreatedAt:    client.CreatedAt,
	}
}

// CreateClient godoc
// @Summary Create OAuth2 client
// @Description Register a relying application. The client secret is only returned in this response.
// @Tags OAuth2 Clients
// @Accept json
// @Produce json
// @Param client body object{name=string,redirect_uri=string,grant_types=[]string,scopes=[]string,confidential=bool} true "Client details"
// @Success 201 {object} clientResponse "Client created with client_id and client_secret"
// @Failure 400 {object} models.APIError "Invalid request"
// @Failure 500 {object} models.APIError "Client creation failed"
// @Security BearerAuth
// @Router /api/v1/protected/admin/clients [post]
func (cc *ClientController) CreateClient(c *gin.Context) {
	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrValidationFailed, err.Error()))
		return
	}

	client, secret, err := cc.clientService.CreateClient(c.Request.Context(), c.GetUint(middleware.ContextUserID), req.input())
	if err != nil {
		cc.respondWithError(c, err, "client_creation_failed")
		return
	}

	cc.log.WithField("client_id", client.ID).Info("OAuth client created")
	resp := newClientResponse(client)
	resp.ClientSecret = secret // Plain secret is returned only once
	c.JSON(http.StatusCreated, resp)
}

// ListClients godoc
// @Summary List OAuth2 clients
// @Description Get all OAuth2 clients registered by the authenticated admin
// @Tags OAuth2 Clients
// @Produce json
// @Success 200 {array} clientResponse "List of clients"
// @Failure 500 {object} models.APIError "Failed to retrieve clients"
// @Security BearerAuth
// @Router /api/v1/protected/admin/clients [get]
func (cc *ClientController) ListClients(c *gin.Context) {
	clients, err := cc.clientService.GetClientsByUserID(c.Request.Context(), c.GetUint(middleware.ContextUserID))
	if err != nil {
		cc.respondWithError(c, err, "failed_to_retrieve_clients")
		return
	}

	resp := make([]clientResponse, 0, len(clients))
	for i := range clients {
		resp = append(resp, newClientResponse(&clients[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// GetClient godoc
// @Summary Get OAuth2 client
// @Tags OAuth2 Clients
// @Produce json
// @Param id path string true "Client ID"
// @Success 200 {object} clientResponse
// @Failure 404 {object} models.APIError "Client not found"
// @Security BearerAuth
// @Router /api/v1/protected/admin/clients/{id} [get]
func (cc *ClientController) GetClient(c *gin.Context) {
	client, err := cc.clientService.GetClientByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		cc.respondWithError(c, err, "failed_to_retrieve_client")
		return
	}
	c.JSON(http.StatusOK, newClientResponse(client))
}

// UpdateClient godoc
// @Summary Update OAuth2 client
// @Description Replace the name, redirect URI, grant types and scopes of a client. The secret is left unchanged.
// @Tags OAuth2 Clients
// @Accept json
// @Produce json
// @Param id path string true "Client ID"
// @Param client body object{name=string,redirect_uri=string,grant_types=[]string,scopes=[]string} true "Client details"
// @Success 200 {object} clientResponse
// @Failure 400 {object} models.APIError "Invalid request"
// @Failure 404 {object} models.APIError "Client not found"
// @Security BearerAuth
// @Router /api/v1/protected/admin/clients/{id} [put]
func (cc *ClientController) UpdateClient(c *gin.Context) {
	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrValidationFailed, err.Error()))
		return
	}

	client, err := cc.clientService.UpdateClient(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		cc.respondWithError(c, err, "client_update_failed")
		return
	}
	c.JSON(http.StatusOK, newClientResponse(client))
}

// RegenerateSecret godoc
// @Summary Regenerate client secret
// @Description Issue a new secret for a confidential client. The old secret stops working immediately.
// @Tags OAuth2 Clients
// @Produce json
// @Param id path string true "Client ID"
// @Success 200 {object} map[string]string "New client_secret"
// @Failure 400 {object} models.APIError "Public client"
// @Failure 404 {object} models.APIError "Client not found"
// @Security BearerAuth
// @Router /api/v1/protected/admin/clients/{id}/secret [post]
func (cc *ClientController) RegenerateSecret(c *gin.Context) {
	clientID := c.Param("id")
	secret, err := cc.clientService.RegenerateSecret(c.Request.Context(), clientID)
	if err != nil {
		cc.respondWithError(c, err, "secret_generation_failed")
		return
	}

	cc.log.WithField("client_id", clientID).Info("OAuth client secret regenerated")
	c.JSON(http.StatusOK, gin.H{
		"client_id":     clientID,
		"client_secret": secret,
	})
}

// RevokeClient godoc
// @Summary Revoke OAuth2 client
// @Description Disable a client together with every code and token issued to it
// @Tags OAuth2 Clients
// @Param id path string true "Client ID"
// @Success 204 "Client revoked"
// @Failure 404 {object} models.APIError "Client not found"
// @Security BearerAuth
// @Router /api/v1/protected/admin/clients/{id} [delete]
func (cc *ClientController) RevokeClient(c *gin.Context) {
	clientID := c.Param("id")
	if err := cc.clientService.RevokeClient(c.Request.Context(), clientID); err != nil {
		cc.respondWithError(c, err, "client_revocation_failed")
		return
	}

	cc.log.WithField("client_id", clientID).Info("OAuth client revoked")
	c.Status(http.StatusNoContent)
}

// ListScopes godoc
// @Summary List scopes
// @Description Get every scope a client may be granted
// @Tags OAuth2 Clients
// @Produce json
// @Success 200 {array} models.Scope
// @Failure 500 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/admin/scopes [get]
func (cc *ClientController) ListScopes(c *gin.Context) {
	scopes, err := cc.scopeService.ListScopes(c.Request.Context())
	if err != nil {
		cc.respondWithError(c, err, "failed_to_retrieve_scopes")
		return
	}
	c.JSON(http.StatusOK, scopes)
}

func (cc *ClientController) respondWithError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, services.ErrClientNotFound):
		c.JSON(http.StatusNotFound, models.NewAPIError(models.ErrClientNotFound, "client_not_found"))
	case errors.Is(err, services.ErrInvalidClientData):
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrClientInvalidData, err.Error()))
	default:
		cc.log.WithError(err).Error(message)
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, message))
	}
}
