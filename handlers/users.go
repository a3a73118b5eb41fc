package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"shop-service/internal/auth"
	"shop-service/internal/users"
	"shop-service/pkg/ctxmanage"
	"shop-service/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

func (h *Handler) Register(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var newUser users.NewUser
	if err := c.ShouldBindJSON(&newUser); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	if err := h.validate.Struct(newUser); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			for _, vErr := range vErrs {
				switch vErr.Tag() {
				case "required":
					c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": vErr.Field() + " value missing"})
					return
				case "email":
					c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Email must be valid"})
					return
				case "min":
					c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Password must be at least " + vErr.Param() + " characters"})
					return
				}
			}
		}
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": http.StatusText(http.StatusBadRequest)})
		return
	}

	user, err := h.u.InsertUser(c.Request.Context(), newUser)
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			slog.Error("duplicate registration", slog.String(logkey.TraceID, traceId))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "User already exists"})
			return
		}
		slog.Error("error registering user", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Error registering user"})
		return
	}

	slog.Info("user registered", slog.String(logkey.TraceID, traceId), slog.String("UserID", user.ID))

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user_id": user.ID,
	})
}

func (h *Handler) Login(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var request struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if err := h.validate.Struct(request); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid email or password"})
		return
	}

	user, err := h.u.GetUserByEmail(c.Request.Context(), request.Email)
	if err != nil {
		// Same response for unknown email and bad password.
		if errors.Is(err, users.ErrUserNotFound) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid email or password"})
			return
		}
		slog.Error("error fetching user", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Error logging in"})
		return
	}
	if !user.CheckPassword(request.Password) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid email or password"})
		return
	}

	token, err := h.authKeys.GenerateAccessToken(user.ID, user.Roles)
	if err != nil {
		slog.Error("error generating access token", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Error logging in"})
		return
	}
	refreshToken, err := h.authKeys.GenerateRefreshToken(user.ID, user.Roles)
	if err != nil {
		slog.Error("error generating refresh token", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Error logging in"})
		return
	}

	if err := h.u.UpdateLastLogin(c.Request.Context(), user.ID); err != nil {
		slog.Error("error updating last login", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
	}

	deviceId := c.GetHeader("X-Device-ID")
	if deviceId == "" {
		deviceId = uuid.NewString()
	}
	if err := h.u.UpsertDeviceSession(c.Request.Context(), user.ID, deviceId); err != nil {
		slog.Error("error recording device session", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
	}

	slog.Info("user logged in", slog.String(logkey.TraceID, traceId), slog.String("UserID", user.ID))

	c.JSON(http.StatusOK, gin.H{
		"message":       "Logged in successfully",
		"token":         token,
		"refresh_token": refreshToken,
		"user_id":       user.ID,
		"device_id":     deviceId,
	})
}

func (h *Handler) RefreshToken(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var request struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&request); err != nil || request.RefreshToken == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Refresh token is required"})
		return
	}

	claims, err := h.authKeys.ValidateRefreshToken(request.RefreshToken)
	if err != nil {
		slog.Error("refresh token validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Refresh token is not valid"})
		return
	}

	token, err := h.authKeys.GenerateAccessToken(claims.Subject, claims.Roles)
	if err != nil {
		slog.Error("error generating access token", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Error refreshing token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) ListSessions(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	sessions, err := h.u.ListDeviceSessions(c.Request.Context(), claims.Subject)
	if err != nil {
		slog.Error("error fetching device sessions", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch sessions"})
		return
	}
	if sessions == nil {
		sessions = []users.DeviceSession{}
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}
