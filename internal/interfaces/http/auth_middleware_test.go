package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-inventario/internal/application/dto"
	apphttp "github.com/jhoicas/taller-inventario/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/taller-inventario/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testIssuer    = "taller-inventario-test"
	testExpMin    = 60
)

func tokenForRole(t *testing.T, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

// guardedApp expone GET /guarded detrás de AuthMiddleware y RequireRole(roles...).
func guardedApp(roles ...string) *fiber.App {
	app := fiber.New()
	app.Get("/guarded",
		apphttp.AuthMiddleware(testJWTSecret),
		apphttp.RequireRole(roles...),
		func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"user_id": apphttp.GetUserID(c), "role": apphttp.GetRole(c)})
		},
	)
	return app
}

func TestAuthAndRoles(t *testing.T) {
	staff := []string{apphttp.RoleAdmin, apphttp.RoleBodeguero}

	expired, err := pkgjwt.Generate(testJWTSecret, testUserID, apphttp.RoleAdmin, testIssuer, -5)
	require.NoError(t, err)
	foreign, err := pkgjwt.Generate("otro-secreto", testUserID, apphttp.RoleAdmin, testIssuer, testExpMin)
	require.NoError(t, err)
	noRole, err := pkgjwt.Generate(testJWTSecret, testUserID, "", testIssuer, testExpMin)
	require.NoError(t, err)

	tests := []struct {
		name     string
		roles    []string
		header   string
		wantCode int
		wantErr  string
	}{
		{"bodeguero registra traslados", staff, tokenForRole(t, apphttp.RoleBodeguero), http.StatusOK, ""},
		{"admin registra traslados", staff, tokenForRole(t, apphttp.RoleAdmin), http.StatusOK, ""},
		{"vendedor no registra traslados", staff, tokenForRole(t, apphttp.RoleVendedor), http.StatusForbidden, "FORBIDDEN"},
		{"bodeguero no ajusta", []string{apphttp.RoleAdmin}, tokenForRole(t, apphttp.RoleBodeguero), http.StatusForbidden, "FORBIDDEN"},
		{"esquema en minúsculas", staff, "bearer " + tokenForRole(t, apphttp.RoleAdmin)[len("Bearer "):], http.StatusOK, ""},
		{"sin cabecera", staff, "", http.StatusUnauthorized, "MISSING_TOKEN"},
		{"sin esquema", staff, "abc.def.ghi", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"token malformado", staff, "Bearer token.invalido.aqui", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"token vencido", staff, "Bearer " + expired, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"firmado con otro secreto", staff, "Bearer " + foreign, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"token sin rol", staff, "Bearer " + noRole, http.StatusUnauthorized, "MISSING_ROLE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := guardedApp(tt.roles...).Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantCode, resp.StatusCode)
			if tt.wantErr == "" {
				return
			}
			var body dto.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantErr, body.Code)
		})
	}
}

func TestAuthMiddleware_LoadsClaims(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", tokenForRole(t, apphttp.RoleVendedor))
	resp, err := guardedApp(apphttp.RoleVendedor).Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testUserID, body["user_id"])
	assert.Equal(t, apphttp.RoleVendedor, body["role"])
}
