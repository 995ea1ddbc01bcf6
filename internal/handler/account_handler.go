package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/eaglebank/accounts-api/shared/apperr"
	"github.com/eaglebank/accounts-api/shared/cqrs"
	"github.com/eaglebank/accounts-api/shared/middleware"
	"github.com/eaglebank/accounts-api/shared/models"
	"github.com/gin-gonic/gin"
)

// AccountCommander defines the write-side operations used by AccountHandler.
type AccountCommander interface {
	CreateAccount(context.Context, cqrs.CreateAccountCommand) (*models.Account, error)
	DeleteAccount(context.Context, cqrs.DeleteAccountCommand) error
}

// AccountQuerier defines the read-side operations used by AccountHandler.
type AccountQuerier interface {
	ListAccounts(context.Context, cqrs.ListAccountsQuery) ([]models.AccountView, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	commands AccountCommander
	queries  AccountQuerier
	timeout  time.Duration
}

type CreateAccountRequest struct {
	Username     string `json:"username" validate:"required,max=50"`
	UserPassword string `json:"userPassword" validate:"required,max=72"`
	FirstName    string `json:"firstName" validate:"max=50"`
	LastName     string `json:"lastName" validate:"max=50"`
}

type DeleteAccountRequest struct {
	Username string `json:"username" validate:"required,max=50"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type CreateAccountResponse struct {
	Success   bool  `json:"success"`
	AccountID int64 `json:"accountId"`
}

// NewAccountHandler builds the handler. timeout bounds every downstream call;
// zero leaves only the client's request context in effect.
func NewAccountHandler(commands AccountCommander, queries AccountQuerier, timeout time.Duration) *AccountHandler {
	return &AccountHandler{commands: commands, queries: queries, timeout: timeout}
}

func (h *AccountHandler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

func (h *AccountHandler) ListAccounts(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	views, err := h.queries.ListAccounts(ctx, cqrs.ListAccountsQuery{})
	if err != nil {
		respondWithAppError(c, err)
		return
	}
	if views == nil {
		views = []models.AccountView{}
	}
	c.JSON(http.StatusOK, views)
}

func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	account, err := h.commands.CreateAccount(ctx, cqrs.CreateAccountCommand{
		Username:  req.Username,
		Password:  req.UserPassword,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		respondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, CreateAccountResponse{Success: true, AccountID: account.AccountID})
}

func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	var req DeleteAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.commands.DeleteAccount(ctx, cqrs.DeleteAccountCommand{Username: req.Username}); err != nil {
		respondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// respondWithAppError writes the status for err's kind. The cause is logged
// but never sent to the client.
func respondWithAppError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	_ = c.Error(err)

	logger := middleware.Logger(c)
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).
		Str("kind", apperr.KindOf(err).String()).
		Str("path", c.Request.URL.Path).
		Msg("request failed")

	middleware.RespondWithError(c, status, apperr.Message(err))
}
