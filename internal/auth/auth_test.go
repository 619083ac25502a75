package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nowfit/chat/internal/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:     "unit-test-secret",
		Issuer:     "nowfit-chat-test",
		Expiration: time.Hour,
	}
}

func TestTokenRoundTrip(t *testing.T) {
	req := require.New(t)
	cfg := testJWTConfig()

	token, err := NewToken(cfg, "user-1", "anna", "coach")
	req.NoError(err)

	claims, err := ParseToken(cfg, token)
	req.NoError(err)
	req.Equal("user-1", claims.UserID)
	req.Equal("anna", claims.Username)
	req.Equal("coach", claims.Role)
	req.Equal(cfg.Issuer, claims.Issuer)
	req.Equal("user-1", claims.Subject)
}

func TestTokenWrongSecretRejected(t *testing.T) {
	req := require.New(t)
	cfg := testJWTConfig()

	token, err := NewToken(cfg, "user-1", "anna", "coach")
	req.NoError(err)

	other := cfg
	other.Secret = "different"
	_, err = ParseToken(other, token)
	req.Error(err)
}

func TestExpiredTokenRejected(t *testing.T) {
	req := require.New(t)
	cfg := testJWTConfig()
	cfg.Expiration = -time.Minute

	token, err := NewToken(cfg, "user-1", "anna", "coach")
	req.NoError(err)

	_, err = ParseToken(cfg, token)
	req.Error(err)
}

func TestPasswordHashing(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("hunter2")
	req.NoError(err)
	req.NotEqual("hunter2", hash)

	req.NoError(ComparePassword(hash, "hunter2"))
	req.Error(ComparePassword(hash, "hunter3"))

	_, err = HashPassword("")
	req.Error(err)
}
