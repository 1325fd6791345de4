package auth

import (
	"testing"
	"time"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("vault-pass-1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "vault-pass-1" {
		t.Fatalf("password stored in clear")
	}
	if !CheckPassword(hash, "vault-pass-1") {
		t.Fatalf("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatalf("wrong password accepted")
	}
}

func TestSignAndParseJWT(t *testing.T) {
	tok, err := SignJWT("u1", "advocate", "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := ParseJWT(tok, "test-secret")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "u1" || claims.Role != "advocate" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.LoginTime == 0 {
		t.Fatalf("login time not set")
	}

	if _, err := ParseJWT(tok, "other-secret"); err == nil {
		t.Fatalf("token accepted with wrong secret")
	}
}

func TestParseJWT_Expired(t *testing.T) {
	tok, err := SignJWT("u1", "client", "test-secret", -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseJWT(tok, "test-secret"); err == nil {
		t.Fatalf("expired token accepted")
	}
}
