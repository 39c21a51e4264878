// internal/app/auth.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/kardemumma/internal/models"
)

const timeFormat = "2006-01-02 15:04:05"

// Principal is the authenticated caller. The identity layer owns
// credential checks; everything downstream trusts this value.
type Principal struct {
	UserID  int64
	Role    string
	GroupID *int64
}

func (p *Principal) AsUser() *models.User {
	return &models.User{ID: p.UserID, Role: p.Role, GroupID: p.GroupID}
}

type Auth struct {
	enabled     bool
	secret      []byte
	redis       *redis.Client
	keyTemplate string
}

func NewAuth(config *Config) (*Auth, error) {
	if !config.Server.EnableAuth {
		return &Auth{enabled: false}, nil
	}

	if config.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth is enabled but jwt_secret is empty")
	}

	a := &Auth{
		enabled:     true,
		secret:      []byte(config.Auth.JWTSecret),
		keyTemplate: config.Auth.SessionKeyTemplate,
	}

	if config.Auth.SessionCheck {
		opt, err := redis.ParseURL(config.Auth.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}

		client := redis.NewClient(opt)
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.redis = client
	}

	return a, nil
}

func (a *Auth) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}

// Authenticate resolves the request's principal. With auth disabled the
// identity comes from plain headers, which is only acceptable behind a
// trusted proxy or in development.
func (a *Auth) Authenticate(r *http.Request) (*Principal, error) {
	if !a.enabled {
		return principalFromHeaders(r)
	}

	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, fmt.Errorf("invalid authorization header format")
	}
	raw := strings.TrimPrefix(authHeader, "Bearer ")

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected token claims")
	}

	principal, err := principalFromClaims(claims)
	if err != nil {
		return nil, err
	}

	if a.redis != nil {
		if err := a.verifySession(r.Context(), principal.UserID, raw); err != nil {
			return nil, err
		}
	}

	return principal, nil
}

func principalFromClaims(claims jwt.MapClaims) (*Principal, error) {
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return nil, fmt.Errorf("token has no user_id claim")
	}
	role, ok := claims["role"].(string)
	if !ok {
		return nil, fmt.Errorf("token has no role claim")
	}

	p := &Principal{
		UserID: int64(userID),
		Role:   role,
	}
	if groupID, ok := claims["group_id"].(float64); ok {
		gid := int64(groupID)
		p.GroupID = &gid
	}
	return p, nil
}

func principalFromHeaders(r *http.Request) (*Principal, error) {
	userID, err := strconv.ParseInt(r.Header.Get("X-User-Id"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid X-User-Id header")
	}
	role := r.Header.Get("X-User-Role")
	if role == "" {
		return nil, fmt.Errorf("missing X-User-Role header")
	}

	p := &Principal{UserID: userID, Role: role}
	if gid, err := strconv.ParseInt(r.Header.Get("X-Group-Id"), 10, 64); err == nil {
		p.GroupID = &gid
	}
	return p, nil
}

// verifySession checks that the presented token is the one stored for the
// user and keeps per-session request accounting.
func (a *Auth) verifySession(ctx context.Context, userID int64, token string) error {
	key := strings.NewReplacer(
		"{user_id}", strconv.FormatInt(userID, 10),
	).Replace(a.keyTemplate)

	fields, err := a.redis.HGetAll(ctx, key).Result()
	if err == redis.Nil || len(fields) == 0 {
		logger.Debug.Printf("Session not found for key: %s", key)
		return fmt.Errorf("session not found")
	}
	if err != nil {
		logger.Debug.Printf("Redis error: %v", err)
		return fmt.Errorf("redis error: %w", err)
	}

	if fields["token"] != token {
		logger.Debug.Printf("Token mismatch for user %d in %s", userID, key)
		return fmt.Errorf("invalid session token")
	}

	pipe := a.redis.Pipeline()
	pipe.HIncrBy(ctx, key, "request_count", 1)
	pipe.HSet(ctx, key, "last_request_dttm_utc", time.Now().UTC().Format(timeFormat))
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Debug.Printf("Failed to update session stats: %v", err)
	}

	return nil
}
