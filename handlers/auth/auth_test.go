package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func initTestAuth(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ADMIN_PASSWORD", "hunter2")
	InitAuth()
}

func TestHandleLogin_Success(t *testing.T) {
	initTestAuth(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"password":"hunter2"}`))
	rec := httptest.NewRecorder()
	HandleLogin(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status code mismatch: got %d (%s)", rec.Code, rec.Body.String())
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	token := body["token"]
	if token == "" {
		t.Fatal("No token issued")
	}

	claims, err := ParseJWT(token)
	if err != nil {
		t.Fatalf("Issued token does not parse: %v", err)
	}
	if claims.Role != "admin" {
		t.Errorf("Role mismatch: got %q, want admin", claims.Role)
	}
}

func TestHandleLogin_WrongPassword(t *testing.T) {
	initTestAuth(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"password":"guess"}`))
	rec := httptest.NewRecorder()
	HandleLogin(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Status code mismatch: got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestHandleLogin_NotConfigured(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ADMIN_PASSWORD", "")
	InitAuth()

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"password":""}`))
	rec := httptest.NewRecorder()
	HandleLogin(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Status code mismatch: got %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestParseJWT_Garbage(t *testing.T) {
	initTestAuth(t)
	if _, err := ParseJWT("not.a.token"); err == nil {
		t.Error("Garbage token accepted")
	}
}
