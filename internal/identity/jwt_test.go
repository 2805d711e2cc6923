package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/HIMANADH789/careworkers/internal/config"
	"github.com/HIMANADH789/careworkers/internal/models"
	"github.com/HIMANADH789/careworkers/internal/repos"
	"github.com/HIMANADH789/careworkers/internal/storage/storagetest"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testSecret = "test-secret"

func hsToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func newResolver(t *testing.T, cfg config.AuthConfig) (*JWTResolver, *repos.WorkersRepo, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	lg := zap.New(core)
	workers := repos.NewWorkersRepo(storagetest.Open(t), lg)
	r, err := NewJWTResolver(cfg, workers, lg)
	require.NoError(t, err)
	return r, workers, logs
}

func TestJWTResolver_ProvisionsOnFirstSight(t *testing.T) {
	r, workers, logs := newResolver(t, config.AuthConfig{Secret: testSecret})
	ctx := context.Background()

	tok := hsToken(t, jwt.MapClaims{
		"sub":                   "auth0|abc",
		"email":                 "Asha@Example.com",
		"name":                  "Asha K",
		config.DefaultRoleClaim: []any{"manager"},
	})

	id, err := r.Resolve(ctx, tok)
	require.NoError(t, err)
	assert.NotZero(t, id.WorkerID)
	assert.Equal(t, models.RoleManager, id.Role)
	assert.True(t, id.IsManager())
	assert.Equal(t, "asha@example.com", id.Email)
	assert.Equal(t, 1, logs.FilterMessage("worker provisioned").Len())

	again, err := r.Resolve(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, id.WorkerID, again.WorkerID)
	assert.Equal(t, 1, logs.FilterMessage("worker provisioned").Len(), "second sight does not create")

	n, err := workers.CountByRole(ctx, models.RoleManager)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestJWTResolver_StoredRoleWins(t *testing.T) {
	r, _, _ := newResolver(t, config.AuthConfig{Secret: testSecret})
	ctx := context.Background()

	first, err := r.Resolve(ctx, hsToken(t, jwt.MapClaims{"sub": "s1", "email": "a@x.io"}))
	require.NoError(t, err)
	assert.Equal(t, models.RoleCareworker, first.Role)

	later, err := r.Resolve(ctx, hsToken(t, jwt.MapClaims{
		"sub": "s1", "email": "a@x.io", config.DefaultRoleClaim: []any{"MANAGER"},
	}))
	require.NoError(t, err)
	assert.Equal(t, models.RoleCareworker, later.Role)
}

func TestJWTResolver_UnknownRoleCoercedWithWarning(t *testing.T) {
	r, _, logs := newResolver(t, config.AuthConfig{Secret: testSecret})

	id, err := r.Resolve(context.Background(), hsToken(t, jwt.MapClaims{
		"sub": "s2", "email": "b@x.io", config.DefaultRoleClaim: []any{"ADMIN", "MANAGER"},
	}))
	require.NoError(t, err)
	assert.Equal(t, models.RoleCareworker, id.Role)

	warned := logs.FilterMessage("unrecognized role claim, defaulting to careworker").All()
	require.Len(t, warned, 1)
	assert.Equal(t, "ADMIN", warned[0].ContextMap()["claim"])
}

func TestJWTResolver_DisplayNameFallback(t *testing.T) {
	r, _, _ := newResolver(t, config.AuthConfig{Secret: testSecret})
	ctx := context.Background()

	nick, err := r.Resolve(ctx, hsToken(t, jwt.MapClaims{"sub": "n1", "email": "c@x.io", "nickname": "Cee"}))
	require.NoError(t, err)
	assert.Equal(t, "Cee", nick.Name)

	local, err := r.Resolve(ctx, hsToken(t, jwt.MapClaims{"sub": "n2", "email": "dee.d@x.io"}))
	require.NoError(t, err)
	assert.Equal(t, "dee.d", local.Name)
}

func TestJWTResolver_Rejects(t *testing.T) {
	r, _, _ := newResolver(t, config.AuthConfig{Secret: testSecret, Issuer: "https://issuer/", Audience: "careworkers"})

	valid := jwt.MapClaims{"sub": "s", "email": "e@x.io", "iss": "https://issuer/", "aud": "careworkers"}
	with := func(k string, v any) jwt.MapClaims {
		c := jwt.MapClaims{}
		for kk, vv := range valid {
			c[kk] = vv
		}
		if v == nil {
			delete(c, k)
		} else {
			c[k] = v
		}
		return c
	}

	otherKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, with("exp", time.Now().Add(time.Hour).Unix())).
		SignedString([]byte("other"))
	require.NoError(t, err)

	tests := map[string]string{
		"empty":          "",
		"garbage":        "not-a-jwt",
		"wrong key":      otherKey,
		"expired":        hsToken(t, with("exp", time.Now().Add(-time.Hour).Unix())),
		"wrong issuer":   hsToken(t, with("iss", "https://evil/")),
		"wrong audience": hsToken(t, with("aud", "other")),
		"no subject":     hsToken(t, with("sub", nil)),
		"no email":       hsToken(t, with("email", nil)),
	}

	_, err = r.Resolve(context.Background(), hsToken(t, valid))
	require.NoError(t, err, "baseline token is accepted")

	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), tok)
			assert.True(t, errors.Is(err, models.ErrUnauthenticated), "got %v", err)
		})
	}
}

func TestJWTResolver_RS256(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "jwt.pub")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0o600))

	r, _, _ := newResolver(t, config.AuthConfig{PublicKeyFile: path})

	claims := jwt.MapClaims{"sub": "rs", "email": "rs@x.io", "exp": time.Now().Add(time.Hour).Unix()}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)

	id, err := r.Resolve(context.Background(), signed)
	require.NoError(t, err)
	assert.NotZero(t, id.WorkerID)

	// an HS256 token must not be accepted by an RS256 resolver
	_, err = r.Resolve(context.Background(), hsToken(t, jwt.MapClaims{"sub": "rs", "email": "rs@x.io"}))
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}

func TestNewJWTResolver_RequiresKey(t *testing.T) {
	_, err := NewJWTResolver(config.AuthConfig{}, nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewJWTResolver(config.AuthConfig{PublicKeyFile: filepath.Join(t.TempDir(), "missing.pem")}, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{WorkerID: 4, Role: models.RoleManager})
	id, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, uint(4), id.WorkerID)
}
