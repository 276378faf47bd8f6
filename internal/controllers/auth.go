package controllers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/planopia/leave_service/internal/entity"
)

const (
	TokenSize = 16

	accessPrefix  = "access_token:"
	refreshPrefix = "refresh_token:"
	actionPrefix  = "action_token:"
	attemptPrefix = "attempts:"

	PurposeActivation = "activation"
	PurposeReset      = "reset"
)

type AuthController struct {
	deps *Dependens
}

func NewAuthController(deps *Dependens) *AuthController {
	return &AuthController{
		deps: deps,
	}
}

// Login verifies the credentials and opens a session. clientKey identifies the
// caller for rate limiting (usually the remote IP).
func (c *AuthController) Login(ctx context.Context, req *entity.LoginRequest, clientKey string) (*entity.Session, error) {
	if err := c.AllowAttempt(ctx, "login", clientKey); err != nil {
		return nil, err
	}

	if req.Username == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", entity.ErrValidation)
	}

	user, err := c.deps.Users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			c.deps.Logger.Warn("Login for unknown user", slog.String("username", req.Username))
			return nil, fmt.Errorf("%w: invalid credentials", entity.ErrUnauthenticated)
		}

		c.deps.Logger.Error("Error querying user", slog.String("error", err.Error()))
		return nil, err
	}

	if user.Pending() {
		c.deps.Logger.Warn("Login for pending user", slog.String("username", req.Username))
		return nil, fmt.Errorf("%w: invalid credentials", entity.ErrUnauthenticated)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		c.deps.Logger.Warn("Invalid password", slog.String("username", req.Username))
		return nil, fmt.Errorf("%w: invalid credentials", entity.ErrUnauthenticated)
	}

	session, err := c.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	actor := user.ID
	c.record(ctx, user.ID, entity.ActionLogin, "User logged in", &actor)

	return session, nil
}

// Refresh rotates both tokens of a session. The old refresh token stops working.
func (c *AuthController) Refresh(ctx context.Context, refreshToken string) (*entity.Session, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token missing", entity.ErrUnauthenticated)
	}

	claims, err := c.parseSessionToken(refreshToken, c.deps.Config.Server.RefreshSecret)
	if err != nil {
		c.deps.Logger.Warn("Invalid refresh token", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: invalid refresh token", entity.ErrForbidden)
	}

	if err := c.deps.Redis.Get(ctx, refreshPrefix+refreshToken).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			c.deps.Logger.Warn("Refresh token revoked", slog.String("user_id", claims.UserID.String()))
			return nil, fmt.Errorf("%w: refresh token revoked", entity.ErrForbidden)
		}

		c.deps.Logger.Error("Error reading refresh token", slog.String("error", err.Error()))
		return nil, err
	}

	user, err := c.deps.Users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", entity.ErrForbidden)
		}

		c.deps.Logger.Error("Error querying user", slog.String("error", err.Error()))
		return nil, err
	}

	if err := c.deps.Redis.Del(ctx, refreshPrefix+refreshToken).Err(); err != nil {
		c.deps.Logger.Error("Error revoking refresh token", slog.String("error", err.Error()))
		return nil, err
	}

	return c.openSession(ctx, user)
}

// Logout revokes whichever of the two tokens are present.
func (c *AuthController) Logout(ctx context.Context, accessToken, refreshToken string) error {
	keys := make([]string, 0, 2)
	if accessToken != "" {
		keys = append(keys, accessPrefix+accessToken)
	}
	if refreshToken != "" {
		keys = append(keys, refreshPrefix+refreshToken)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := c.deps.Redis.Del(ctx, keys...).Err(); err != nil {
		c.deps.Logger.Error("Error deleting tokens from Redis", slog.String("error", err.Error()))
		return err
	}

	return nil
}

// CheckUserToken validates an access token and its whitelist entry.
func (c *AuthController) CheckUserToken(ctx context.Context, tokenStr string) (*entity.Claims, error) {
	if tokenStr == "" {
		return nil, fmt.Errorf("%w: token missing", entity.ErrUnauthenticated)
	}

	claims, err := c.parseSessionToken(tokenStr, c.deps.Config.Server.JWTSecret)
	if err != nil {
		c.deps.Logger.Warn("Error parsing token", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: invalid token", entity.ErrUnauthenticated)
	}

	if err := c.deps.Redis.Get(ctx, accessPrefix+tokenStr).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			c.deps.Logger.Warn("Token revoked", slog.String("user_id", claims.UserID.String()))
			return nil, fmt.Errorf("%w: token revoked", entity.ErrUnauthenticated)
		}

		c.deps.Logger.Error("Error reading token", slog.String("error", err.Error()))
		return nil, err
	}

	return claims, nil
}

// IssueActionToken signs a single-use token for an e-mailed link.
func (c *AuthController) IssueActionToken(ctx context.Context, userID uuid.UUID, purpose string, ttl time.Duration) (string, error) {
	now := c.deps.now()
	jti := uuid.NewString()

	claims := entity.ActionClaims{
		UserID:  userID,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.deps.Config.Server.JWTSecret))
	if err != nil {
		c.deps.Logger.Error("Error signing action token", slog.String("error", err.Error()))
		return "", err
	}

	if err := c.deps.Redis.Set(ctx, actionPrefix+jti, userID.String(), ttl).Err(); err != nil {
		c.deps.Logger.Error("Error storing action token", slog.String("error", err.Error()))
		return "", err
	}

	return tokenStr, nil
}

// VerifyActionToken checks signature, expiry, purpose and that the token was not used yet.
func (c *AuthController) VerifyActionToken(ctx context.Context, tokenStr, purpose string) (*entity.ActionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &entity.ActionClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(c.deps.Config.Server.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(c.deps.now))
	if err != nil {
		c.deps.Logger.Warn("Invalid action token", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: invalid or expired token", entity.ErrValidation)
	}

	claims, ok := token.Claims.(*entity.ActionClaims)
	if !ok || !token.Valid || claims.Purpose != purpose || claims.ID == "" {
		return nil, fmt.Errorf("%w: invalid or expired token", entity.ErrValidation)
	}

	if err := c.deps.Redis.Get(ctx, actionPrefix+claims.ID).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: token already used", entity.ErrValidation)
		}

		c.deps.Logger.Error("Error reading action token", slog.String("error", err.Error()))
		return nil, err
	}

	return claims, nil
}

// RevokeActionToken marks the token as used. Failures are logged only: the
// token still expires on its own.
func (c *AuthController) RevokeActionToken(ctx context.Context, claims *entity.ActionClaims) {
	if err := c.deps.Redis.Del(ctx, actionPrefix+claims.ID).Err(); err != nil {
		c.deps.Logger.Error("Error revoking action token", slog.String("error", err.Error()))
	}
}

// AllowAttempt implements a fixed window limiter per scope and client.
func (c *AuthController) AllowAttempt(ctx context.Context, scope, clientKey string) error {
	key := attemptPrefix + scope + ":" + clientKey

	count, err := c.deps.Redis.Incr(ctx, key).Result()
	if err != nil {
		// limiter is best effort; a broken Redis must not lock everybody out
		c.deps.Logger.Error("Error counting attempts", slog.String("error", err.Error()))
		return nil
	}

	if count == 1 {
		if err := c.deps.Redis.Expire(ctx, key, c.deps.Config.Server.LoginWindow).Err(); err != nil {
			c.deps.Logger.Error("Error setting attempts window", slog.String("error", err.Error()))
		}
	}

	if count > int64(c.deps.Config.Server.LoginAttempts) {
		c.deps.Logger.Warn("Too many attempts", slog.String("scope", scope), slog.String("client", clientKey))
		return fmt.Errorf("%w: try again in %s", entity.ErrTooManyRequests, c.deps.Config.Server.LoginWindow)
	}

	return nil
}

func (c *AuthController) openSession(ctx context.Context, user *entity.User) (*entity.Session, error) {
	accessToken, err := c.createToken(user, "access")
	if err != nil {
		return nil, err
	}

	refreshToken, err := c.createToken(user, "refresh")
	if err != nil {
		return nil, err
	}

	if err = c.deps.Redis.Set(ctx, accessPrefix+accessToken, user.ID.String(), c.deps.Config.Server.AccessTokenTTL).Err(); err != nil {
		c.deps.Logger.Error("Error setting access token", slog.String("error", err.Error()))
		return nil, err
	}

	if err = c.deps.Redis.Set(ctx, refreshPrefix+refreshToken, user.ID.String(), c.deps.Config.Server.RefreshTokenTTL).Err(); err != nil {
		c.deps.Logger.Error("Error setting refresh token", slog.String("error", err.Error()))
		return nil, err
	}

	return &entity.Session{AccessToken: accessToken, RefreshToken: refreshToken, User: *user}, nil
}

func (c *AuthController) createToken(user *entity.User, tokenType string) (string, error) {
	tokenID, err := generateTokenID()
	if err != nil {
		c.deps.Logger.Error("Error generating token ID", slog.String("error", err.Error()))
		return "", err
	}

	ttl, secret := c.deps.Config.Server.AccessTokenTTL, c.deps.Config.Server.JWTSecret
	if tokenType == "refresh" {
		ttl, secret = c.deps.Config.Server.RefreshTokenTTL, c.deps.Config.Server.RefreshSecret
	}

	now := c.deps.now()
	claims := entity.Claims{
		UserID:   user.ID,
		Username: user.Username,
		Roles:    user.Roles,
		TokenID:  tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		c.deps.Logger.Error("Error signing token", slog.String("error", err.Error()))
		return "", err
	}

	return tokenStr, nil
}

func (c *AuthController) parseSessionToken(tokenStr, secret string) (*entity.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &entity.Claims{}, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(c.deps.now))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*entity.Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

func (c *AuthController) record(ctx context.Context, subject uuid.UUID, action entity.AuditAction, details string, actor *uuid.UUID) {
	recordAudit(ctx, c.deps, subject, action, details, actor)
}

func generateTokenID() (string, error) {
	b := make([]byte, TokenSize)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
