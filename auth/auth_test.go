package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/batsdk/wowclass-enlace/contract"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("unit-test-secret")

func TestSigner_RoundTrip(t *testing.T) {
	req := require.New(t)
	signer := NewSigner(testSecret, time.Hour)

	token, err := signer.Generate(contract.Identity{SubjectID: "u1", Role: "teacher", Name: "Alice"})
	req.NoError(err)

	id, err := signer.Verify(token)
	req.NoError(err)
	req.Equal("u1", id.SubjectID)
	req.Equal("teacher", id.Role)
	req.Equal("Alice", id.Name)
}

func TestSigner_RejectsForeignSecret(t *testing.T) {
	req := require.New(t)
	token, err := NewSigner([]byte("other-secret"), time.Hour).
		Generate(contract.Identity{SubjectID: "u1", Role: "student"})
	req.NoError(err)

	_, err = NewSigner(testSecret, time.Hour).Verify(token)
	req.Error(err)
}

func TestSigner_RejectsExpired(t *testing.T) {
	req := require.New(t)
	token, err := NewSigner(testSecret, -time.Minute).
		Generate(contract.Identity{SubjectID: "u1", Role: "student"})
	req.NoError(err)

	_, err = NewSigner(testSecret, time.Hour).Verify(token)
	req.Error(err)
}

func TestSigner_RejectsGarbage(t *testing.T) {
	_, err := NewSigner(testSecret, time.Hour).Verify("definitely.not.a-token")
	require.Error(t, err)
}

func TestTokenFromRequest(t *testing.T) {
	req := require.New(t)

	r := httptest.NewRequest(http.MethodGet, "/api/ws/chat", nil)
	req.Empty(TokenFromRequest(r))

	r.AddCookie(&http.Cookie{Name: CookieName, Value: "abc"})
	req.Equal("abc", TokenFromRequest(r))
}

func TestPassword_HashAndCompare(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("Str0ng&Long!Passw0rd")
	req.NoError(err)
	req.Contains(hash, "$argon2id$")

	ok, err := ComparePassword("Str0ng&Long!Passw0rd", hash)
	req.NoError(err)
	req.True(ok)

	ok, err = ComparePassword("wrong-password", hash)
	req.NoError(err)
	req.False(ok)

	_, err = ComparePassword("whatever", "not-a-hash")
	req.Error(err)
}

func TestValidateLogin(t *testing.T) {
	req := require.New(t)

	req.NoError(ValidateLogin(LoginRequest{Identifier: "alice@school.test", Password: "pw", Role: "teacher"}))
	req.Error(ValidateLogin(LoginRequest{Identifier: "alice@school.test", Password: "pw", Role: "admin"}))
	req.Error(ValidateLogin(LoginRequest{Password: "pw", Role: "student"}))
}
