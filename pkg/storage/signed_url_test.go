package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("42", "abc_pothole.jpg")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	ownerID, path, err := signer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "42", ownerID)
	require.Equal(t, "abc_pothole.jpg", path)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	token, _, err := signer.Generate("42", "abc_pothole.jpg")
	require.NoError(t, err)

	signer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, _, err = signer.Parse(token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestSignedURLSignerRejectsTamperedOwner(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("42", "abc_pothole.jpg")
	require.NoError(t, err)

	tampered := "43" + strings.TrimPrefix(token, "42")
	_, _, err = signer.Parse(tampered)
	require.ErrorIs(t, err, ErrTokenSignature)

	_, _, err = signer.Parse("not-a-token")
	require.ErrorIs(t, err, ErrTokenMalformed)
}

func TestSignedURLSignerRequiresSecret(t *testing.T) {
	_, _, err := NewSignedURLSigner("", time.Hour).Generate("42", "a.jpg")
	require.Error(t, err)
}
