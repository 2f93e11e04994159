package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/api/transport"
	"github.com/fastygo/taskflow/internal/middleware"
	"github.com/fastygo/taskflow/pkg/httpcontext"
	authUC "github.com/fastygo/taskflow/usecase/auth"
)

// AuthService is the identity backend used by AuthHandler.
type AuthService interface {
	SignUp(ctx context.Context, email, password, fullName string) (*authUC.Grant, error)
	SignIn(ctx context.Context, email, password string) (*authUC.Grant, error)
	SignOut(ctx context.Context, id *authUC.Identity) error
}

type AuthHandler struct {
	baseHandler
	uc AuthService
}

func NewAuthHandler(uc AuthService, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Register and sign in
// @Tags auth
// @Router /auth/v1/signup [post]
func (h *AuthHandler) SignUp(ctx *fasthttp.RequestCtx) {
	var req transport.CredentialsRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.invalid(ctx, "invalid payload")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	grant, err := h.uc.SignUp(stdCtx, req.Email, req.Password, transport.FullName(req.Data))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondRaw(ctx, http.StatusOK, transport.NewTokenPayload(grant.AccessToken, grant.Session, grant.User, time.Now()))
}

// @Summary Exchange credentials for an access token
// @Tags auth
// @Router /auth/v1/token [post]
func (h *AuthHandler) Token(ctx *fasthttp.RequestCtx) {
	if grantType := string(ctx.QueryArgs().Peek("grant_type")); grantType != "password" {
		h.invalid(ctx, "unsupported grant_type")
		return
	}

	var req transport.CredentialsRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.invalid(ctx, "invalid payload")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	grant, err := h.uc.SignIn(stdCtx, req.Email, req.Password)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.log(stdCtx).Info("signed in", zap.String("user_id", grant.User.ID))
	h.respondRaw(ctx, http.StatusOK, transport.NewTokenPayload(grant.AccessToken, grant.Session, grant.User, time.Now()))
}

// @Summary Revoke the current session
// @Tags auth
// @Router /auth/v1/logout [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.SignOut(stdCtx, middleware.Identity(ctx)); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}
