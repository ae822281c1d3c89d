package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSession(t *testing.T) {
	svc, _, _, _, _ := setupService(t)
	ctx := context.Background()

	user, token, err := svc.CreateSession(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Name)
	assert.NotEmpty(t, token)

	parsed, err := uuid.FromString(user.Id)
	require.NoError(t, err)
	assert.Equal(t, uuid.V7, parsed.Version())

	verified, err := svc.VerifyJWT(token)
	require.NoError(t, err)
	assert.Equal(t, user.Id, verified.Id)
	assert.Equal(t, user.Name, verified.Name)
}

func TestCreateSession_DefaultName(t *testing.T) {
	svc, _, _, _, _ := setupService(t)

	user, _, err := svc.CreateSession(context.Background(), "  ")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(user.Name, "guest-"))
	assert.Equal(t, "guest-"+user.Id[:8], user.Name)
}

func TestCreateSession_NameTooLong(t *testing.T) {
	svc, _, _, _, _ := setupService(t)

	_, _, err := svc.CreateSession(context.Background(), strings.Repeat("x", 33))
	assert.ErrorContains(t, err, "name too long")
}

func TestVerifyJWT_RejectsTamperedToken(t *testing.T) {
	svc, _, _, _, _ := setupService(t)

	_, token, err := svc.CreateSession(context.Background(), "alice")
	require.NoError(t, err)

	_, err = svc.VerifyJWT(token + "x")
	assert.Error(t, err)

	_, err = svc.VerifyJWT("not-a-token")
	assert.Error(t, err)
}

func TestVerifyJWT_RejectsWrongSecret(t *testing.T) {
	issuer, _, _, _, _ := setupService(t)
	verifier, _, _, _, _ := setupService(t)
	verifier.JWTSecret = []byte("a different secret")

	_, token, err := issuer.CreateSession(context.Background(), "alice")
	require.NoError(t, err)

	_, err = verifier.VerifyJWT(token)
	assert.Error(t, err)
}

func TestAuthenticateToken_EmptyToken(t *testing.T) {
	svc, _, _, _, _ := setupService(t)

	_, err := svc.AuthenticateToken(context.Background(), "")
	assert.ErrorContains(t, err, "token not provided")
}
