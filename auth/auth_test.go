package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSignVerify(t *testing.T) {
	secret := []byte("test-secret-key")
	token, err := Sign(secret, "collector-1", time.Minute)
	if err != nil {
		t.Fatalf("Sign() = %s", err)
	}
	sub, err := Verify(secret, token)
	if err != nil {
		t.Fatalf("Verify() = %s", err)
	}
	if sub != "collector-1" {
		t.Errorf("Verify() subject = %q, want %q", sub, "collector-1")
	}

	if _, err := Verify([]byte("other-secret"), token); err == nil {
		t.Error("Verify() with the wrong secret succeeded")
	}
}

func TestVerifyRejects(t *testing.T) {
	secret := []byte("test-secret-key")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   "collector-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:  "someone-else",
		Subject: "collector-1",
	})
	for name, token := range map[string]*jwt.Token{"expired": expired, "foreign issuer": foreign} {
		s, err := token.SignedString(secret)
		if err != nil {
			t.Fatalf("%s: SignedString() = %s", name, err)
		}
		if _, err := Verify(secret, s); err == nil {
			t.Errorf("%s: Verify() succeeded", name)
		}
	}

	if _, err := Verify(secret, "not-a-token"); err == nil {
		t.Error("Verify() of garbage succeeded")
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr error
	}{
		{header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{header: "Bearer ", wantErr: ErrNoToken},
		{header: "Basic dXNlcjpwYXNz", wantErr: ErrNoToken},
		{header: "", wantErr: ErrNoToken},
	}
	for _, tc := range tests {
		got, err := BearerToken(tc.header)
		if !errors.Is(err, tc.wantErr) || got != tc.want {
			t.Errorf("BearerToken(%q) = %q, %v, want %q, %v", tc.header, got, err, tc.want, tc.wantErr)
		}
	}
}
