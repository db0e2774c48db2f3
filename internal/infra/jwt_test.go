package infra

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTVerifier(t *testing.T) {
	v, err := NewJWTVerifier("s3cret")
	require.NoError(t, err)

	raw, err := SignJWT("s3cret", "staff-7", map[string]interface{}{"role": "staff", "station_id": "ndls"}, time.Hour)
	require.NoError(t, err)

	tok, err := v.VerifyIDToken(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "staff-7", tok.UID)
	assert.Equal(t, "staff", tok.Claims["role"])
	assert.Equal(t, "ndls", tok.Claims["station_id"])
}

func TestJWTVerifierRejects(t *testing.T) {
	v, err := NewJWTVerifier("s3cret")
	require.NoError(t, err)
	ctx := context.Background()

	wrongKey, _ := SignJWT("other", "u1", nil, time.Hour)
	_, err = v.VerifyIDToken(ctx, wrongKey)
	assert.Error(t, err, "wrong key")

	expired, _ := SignJWT("s3cret", "u1", nil, -time.Minute)
	_, err = v.VerifyIDToken(ctx, expired)
	assert.Error(t, err, "expired")

	noSub, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("s3cret"))
	_, err = v.VerifyIDToken(ctx, noSub)
	assert.Error(t, err, "no subject")

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1"}).SignedString([]byte("s3cret"))
	_, err = v.VerifyIDToken(ctx, noExp)
	assert.Error(t, err, "no expiry")

	_, err = NewJWTVerifier("")
	assert.Error(t, err)
}
