package identity

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/HIMANADH789/careworkers/internal/config"
	"github.com/HIMANADH789/careworkers/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Provisioner looks up a worker by token subject, creating it on first sight.
type Provisioner interface {
	FirstOrCreateBySubject(ctx context.Context, w models.Worker) (*models.Worker, bool, error)
}

// JWTResolver verifies HS256 tokens against a shared secret, or RS256 tokens
// against a PEM public key.
type JWTResolver struct {
	key       any
	parser    *jwt.Parser
	roleClaim string
	workers   Provisioner
	lg        *zap.Logger
}

func NewJWTResolver(cfg config.AuthConfig, workers Provisioner, lg *zap.Logger) (*JWTResolver, error) {
	r := &JWTResolver{roleClaim: cfg.RoleClaim, workers: workers, lg: lg}
	if r.roleClaim == "" {
		r.roleClaim = config.DefaultRoleClaim
	}

	var method string
	switch {
	case cfg.PublicKeyFile != "":
		pem, err := os.ReadFile(cfg.PublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read jwt public key: %w", err)
		}
		key, err := jwt.ParseRSAPublicKeyFromPEM(pem)
		if err != nil {
			return nil, fmt.Errorf("parse jwt public key: %w", err)
		}
		r.key, method = key, jwt.SigningMethodRS256.Alg()
	case cfg.Secret != "":
		r.key, method = []byte(cfg.Secret), jwt.SigningMethodHS256.Alg()
	default:
		return nil, errors.New("jwt: neither secret nor public key configured")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{method}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	r.parser = jwt.NewParser(opts...)
	return r, nil
}

func (r *JWTResolver) Resolve(ctx context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, models.ErrUnauthenticated
	}

	claims := jwt.MapClaims{}
	if _, err := r.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return r.key, nil
	}); err != nil {
		r.lg.Debug("token rejected", zap.Error(err))
		return Identity{}, fmt.Errorf("%w: %v", models.ErrUnauthenticated, err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Identity{}, fmt.Errorf("%w: token has no subject", models.ErrUnauthenticated)
	}

	email := strings.TrimSpace(stringClaim(claims, "email"))
	if email == "" {
		r.lg.Warn("token without email", zap.String("subject", sub))
		return Identity{}, fmt.Errorf("%w: token has no email", models.ErrUnauthenticated)
	}

	w, created, err := r.workers.FirstOrCreateBySubject(ctx, models.Worker{
		AuthSubject: sub,
		Email:       strings.ToLower(email),
		Name:        displayName(claims, email),
		Role:        r.role(claims, sub),
	})
	if err != nil {
		return Identity{}, fmt.Errorf("provision worker: %w", err)
	}
	if created {
		r.lg.Info("worker provisioned",
			zap.Uint("worker_id", w.ID),
			zap.String("role", string(w.Role)),
		)
	}
	return FromWorker(w), nil
}

// role reads the first entry of the namespaced role claim. A missing claim is
// a careworker; an unknown value is coerced and logged.
func (r *JWTResolver) role(claims jwt.MapClaims, sub string) models.Role {
	var raw string
	switch v := claims[r.roleClaim].(type) {
	case string:
		raw = v
	case []any:
		if len(v) > 0 {
			raw, _ = v[0].(string)
		}
	}
	if strings.TrimSpace(raw) == "" {
		return models.RoleCareworker
	}

	role, ok := models.ParseRole(raw)
	if !ok {
		r.lg.Warn("unrecognized role claim, defaulting to careworker",
			zap.String("subject", sub),
			zap.String("claim", raw),
		)
	}
	return role
}

func displayName(claims jwt.MapClaims, email string) string {
	for _, key := range []string{"name", "nickname"} {
		if v := strings.TrimSpace(stringClaim(claims, key)); v != "" {
			return v
		}
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}

func stringClaim(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}
