// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"hopecity/internal/models"
)

func testPrincipal() Principal {
	return Principal{UserID: uuid.New(), Email: "pastor@hopecity.test", Role: models.RoleAdmin}
}

func TestPrincipalContext(t *testing.T) {
	if _, ok := PrincipalFrom(context.Background()); ok {
		t.Fatal("empty context should carry no principal")
	}

	p := testPrincipal()
	got, ok := PrincipalFrom(WithPrincipal(context.Background(), p))
	if !ok || got != p {
		t.Errorf("PrincipalFrom = (%+v, %v), want %+v", got, ok, p)
	}
}

func TestNewTokenIssuerRequiresSecret(t *testing.T) {
	if _, err := NewTokenIssuer("", "hopecity", time.Hour); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	iss, _ := NewTokenIssuer("s3cret", "hopecity", time.Hour)
	p := testPrincipal()

	tok, err := iss.Issue(p)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	got, err := iss.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != p {
		t.Errorf("Verify = %+v, want %+v", got, p)
	}
}

func TestVerifyRejects(t *testing.T) {
	iss, _ := NewTokenIssuer("s3cret", "hopecity", time.Hour)
	p := testPrincipal()
	good, _ := iss.Issue(p)

	other, _ := NewTokenIssuer("different", "hopecity", time.Hour)
	forged, _ := other.Issue(p)

	wrongIssuer, _ := NewTokenIssuer("s3cret", "elsewhere", time.Hour)
	foreign, _ := wrongIssuer.Issue(p)

	expiredIss, _ := NewTokenIssuer("s3cret", "hopecity", time.Minute)
	expiredIss.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _ := expiredIss.Issue(p)

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject: p.UserID.String(), Issuer: "hopecity",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"truncated", good[:len(good)-4]},
		{"wrong secret", forged},
		{"wrong issuer", foreign},
		{"expired", expired},
		{"alg none", none},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := iss.Verify(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify error = %v, want ErrInvalidToken", err)
			}
		})
	}
}
