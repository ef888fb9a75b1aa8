package middleware

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"crypto/rand"
	"crypto/rsa"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/arturkryukov/skillhub/admin-module/internal/domain/rbac"
)

// testKeyID — идентификатор ключа для тестов.
const testKeyID = "test-key-am"

const testIssuer = "https://keycloak.test/realms/skillhub"

// generateTestKey генерирует RSA ключ для тестов.
func generateTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	return key
}

// buildJWKSetJSON строит JWKS JSON из RSA публичного ключа.
func buildJWKSetJSON(pub *rsa.PublicKey, kid string) json.RawMessage {
	nB64 := base64.RawURLEncoding.EncodeToString(pub.N.Bytes())
	eB64 := base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes())

	jwks := map[string]any{
		"keys": []map[string]any{
			{
				"kty": "RSA",
				"kid": kid,
				"use": "sig",
				"alg": "RS256",
				"n":   nB64,
				"e":   eB64,
			},
		},
	}

	data, _ := json.Marshal(jwks)
	return data
}

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestJWTAuth создаёт JWTAuth для тестов.
func newTestJWTAuth(t *testing.T, key *rsa.PrivateKey) *JWTAuth {
	t.Helper()
	jwksJSON := buildJWKSetJSON(&key.PublicKey, testKeyID)
	kf, err := keyfunc.NewJWKSetJSON(jwksJSON)
	if err != nil {
		t.Fatalf("не удалось создать keyfunc: %v", err)
	}

	return NewJWTAuthWithKeyfunc(
		kf,
		testIssuer,
		[]string{"skillhub-admins"},
		[]string{"skillhub-viewers"},
		testLogger(),
	)
}

// generateToken генерирует JWT пользователя.
func generateToken(t *testing.T, key *rsa.PrivateKey, sub string, roles, groups []string, expired bool) string {
	t.Helper()

	exp := time.Now().Add(time.Hour)
	if expired {
		exp = time.Now().Add(-time.Hour)
	}

	claims := jwt.MapClaims{
		"sub":                sub,
		"preferred_username": "user-" + sub,
		"email":              sub + "@skillhub.dev",
		"iss":                testIssuer,
		"exp":                jwt.NewNumericDate(exp),
		"nbf":                jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		"iat":                jwt.NewNumericDate(time.Now()),
	}
	if len(roles) > 0 {
		claims["realm_access"] = map[string]any{"roles": roles}
	}
	if len(groups) > 0 {
		claims["groups"] = groups
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	tokenStr, err := token.SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return tokenStr
}

// doAuth прогоняет запрос через middleware и возвращает записанный ответ
// и claims, попавшие в контекст.
func doAuth(t *testing.T, auth *JWTAuth, authHeader string) (*httptest.ResponseRecorder, *AuthClaims) {
	t.Helper()

	var captured *AuthClaims
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/teams", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, captured
}

func TestJWTAuth_ValidToken(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	token := generateToken(t, key, "u-1", nil, []string{"skillhub-admins"}, false)
	rec, claims := doAuth(t, auth, "Bearer "+token)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if claims == nil {
		t.Fatal("claims не попали в контекст")
	}
	if claims.Subject != "u-1" || claims.Email != "u-1@skillhub.dev" {
		t.Errorf("claims: %+v", claims)
	}
	if claims.Role != rbac.RoleAdmin {
		t.Errorf("Role = %q, ожидался admin", claims.Role)
	}
}

func TestJWTAuth_ReadonlyGroup(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	token := generateToken(t, key, "u-2", nil, []string{"skillhub-viewers"}, false)
	rec, claims := doAuth(t, auth, "Bearer "+token)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if claims.Role != rbac.RoleReadonly {
		t.Errorf("Role = %q, ожидался readonly", claims.Role)
	}
}

// TestJWTAuth_RealmRolesFallback: роль берётся из realm_access.roles,
// когда группы роли не дали.
func TestJWTAuth_RealmRolesFallback(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	token := generateToken(t, key, "u-3", []string{"admin", "uma_authorization"}, nil, false)
	rec, claims := doAuth(t, auth, "Bearer "+token)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if claims.Role != rbac.RoleAdmin {
		t.Errorf("Role = %q, ожидался admin", claims.Role)
	}
}

func TestJWTAuth_Rejections(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	otherKey := generateTestKey(t)

	tests := []struct {
		name   string
		header string
	}{
		{"без заголовка", ""},
		{"не Bearer", "Basic dXNlcjpwYXNz"},
		{"пустой токен", "Bearer "},
		{"мусор вместо токена", "Bearer not-a-jwt"},
		{"просроченный токен", "Bearer " + generateToken(t, key, "u-1", nil, nil, true)},
		{"чужой ключ подписи", "Bearer " + generateToken(t, otherKey, "u-1", nil, nil, false)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, claims := doAuth(t, auth, tt.header)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, ожидался 401", rec.Code)
			}
			if claims != nil {
				t.Error("claims не должны попадать в контекст")
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	protected := auth.Middleware()(RequireRole(rbac.RoleAdmin)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
	))

	run := func(token string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/canvas", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		return rec.Code
	}

	admin := generateToken(t, key, "u-1", nil, []string{"skillhub-admins"}, false)
	if code := run(admin); code != http.StatusNoContent {
		t.Errorf("admin: status = %d", code)
	}

	viewer := generateToken(t, key, "u-2", nil, []string{"skillhub-viewers"}, false)
	if code := run(viewer); code != http.StatusForbidden {
		t.Errorf("readonly: status = %d, ожидался 403", code)
	}

	nobody := generateToken(t, key, "u-3", nil, nil, false)
	if code := run(nobody); code != http.StatusForbidden {
		t.Errorf("без роли: status = %d, ожидался 403", code)
	}
}
