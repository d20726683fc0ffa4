package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/jobtracker/internal/domain/user"
	"github.com/geocoder89/jobtracker/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type ProfileStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	UpdateProfile(ctx context.Context, id string, upd user.ProfileUpdate) error
}

type ProfileHandler struct {
	users ProfileStore
}

func NewProfileHandler(users ProfileStore) *ProfileHandler {
	return &ProfileHandler{users: users}
}

type UpdateProfileRequest struct {
	Username *string `json:"username" binding:"omitempty,min=3,max=50"`
	Email    *string `json:"email" binding:"omitempty,email,max=254"`
}

// GET /api/user
func (h *ProfileHandler) Get(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := storeCtx(ctx, 2*time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, userID)
	if err != nil {
		// a valid token for a user that no longer exists
		if errors.Is(err, user.ErrUserNotFound) {
			RespondUnAuthorized(ctx, "unauthorized", "Unknown user")
			return
		}
		RespondInternal(ctx, "Could not load profile")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"username": u.Username,
		"email":    u.Email,
	})
}

// PUT /api/user
func (h *ProfileHandler) Update(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var req UpdateProfileRequest
	if !BindJSON(ctx, &req) {
		return
	}

	upd := user.ProfileUpdate{}
	if req.Username != nil {
		v := strings.TrimSpace(*req.Username)
		upd.Username = &v
	}
	if req.Email != nil {
		v := user.NormalizeEmail(*req.Email)
		upd.Email = &v
	}

	if upd.IsEmpty() {
		RespondBadRequest(ctx, "Nothing to update", gin.H{"fields": []FieldError{}})
		return
	}

	cctx, cancel := storeCtx(ctx, 3*time.Second)
	defer cancel()

	err := h.users.UpdateProfile(cctx, userID, upd)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrDuplicateIdentity):
			RespondDuplicateIdentity(ctx)
		case errors.Is(err, user.ErrUserNotFound):
			RespondUnAuthorized(ctx, "unauthorized", "Unknown user")
		default:
			slog.Default().ErrorContext(ctx.Request.Context(), "user.profile_update_failed", "err", err)
			RespondInternal(ctx, "Could not update profile")
		}
		return
	}

	slog.Default().InfoContext(ctx.Request.Context(), "user.profile_updated")

	ctx.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
}
