package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/jobtracker/internal/domain/user"
	"github.com/geocoder89/jobtracker/internal/observability"
	"github.com/geocoder89/jobtracker/internal/security"
	"github.com/gin-gonic/gin"
)

type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type TokenIssuer interface {
	Issue(ownerID string) (string, time.Time, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Check(hash, plain string) error
}

type AuthHandler struct {
	users  UserStore
	tokens TokenIssuer
	hasher PasswordHasher
	prom   *observability.Prom
}

func NewAuthHandler(users UserStore, tokens TokenIssuer, hasher PasswordHasher, prom *observability.Prom) *AuthHandler {
	return &AuthHandler{
		users:  users,
		tokens: tokens,
		hasher: hasher,
		prom:   prom,
	}
}

type SignUpRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email,max=254"`
	// max counts runes; the byte limit is checked after binding
	Password string `json:"password" binding:"required,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req SignUpRequest

	if !BindJSON(ctx, &req) {
		h.prom.RecordAuth("signup", "invalid")
		return
	}

	if len(req.Password) > security.MaxPasswordBytes {
		h.prom.RecordAuth("signup", "invalid")
		RespondBadRequest(ctx, "Invalid request body", gin.H{"fields": []FieldError{{
			Field:   "password",
			Rule:    "max",
			Param:   strconv.Itoa(security.MaxPasswordBytes),
			Message: fmt.Sprintf("must be at most %d bytes", security.MaxPasswordBytes),
		}}})
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		h.prom.RecordAuth("signup", "error")
		RespondInternal(ctx, "Could not create user")
		return
	}

	cctx, cancel := storeCtx(ctx, 3*time.Second)
	defer cancel()

	u, err := h.users.Create(cctx, user.New(req.Username, req.Email, hash))
	if err != nil {
		if errors.Is(err, user.ErrDuplicateIdentity) {
			h.prom.RecordAuth("signup", "duplicate")
			RespondDuplicateIdentity(ctx)
			return
		}

		h.prom.RecordAuth("signup", "error")
		slog.Default().ErrorContext(ctx.Request.Context(), "user.signup_failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	h.prom.RecordAuth("signup", "ok")
	slog.Default().InfoContext(ctx.Request.Context(), "user.signup", "user_id", u.ID)

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
	})
}

// Login answers unknown email and wrong password identically.
func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		h.prom.RecordAuth("login", "invalid")
		return
	}

	cctx, cancel := storeCtx(ctx, 2*time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, user.NormalizeEmail(req.Email))
	if err != nil {
		if !errors.Is(err, user.ErrUserNotFound) {
			h.prom.RecordAuth("login", "error")
			slog.Default().ErrorContext(ctx.Request.Context(), "user.login_lookup_failed", "err", err)
			RespondInternal(ctx, "Could not log in")
			return
		}

		h.prom.RecordAuth("login", "rejected")
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	if err := h.hasher.Check(foundUser.PasswordHash, req.Password); err != nil {
		h.prom.RecordAuth("login", "rejected")
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	token, _, err := h.tokens.Issue(foundUser.ID)
	if err != nil {
		h.prom.RecordAuth("login", "error")
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	h.prom.RecordAuth("login", "ok")
	slog.Default().InfoContext(ctx.Request.Context(), "user.login", "user_id", foundUser.ID)

	ctx.JSON(http.StatusOK, gin.H{
		"token":   token,
		"message": "Login successful",
	})
}
