package handler

import (
	"net/http"
	"testing"

	"github.com/inspectrack/inspectrack/internal/apiserver/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	env := setupEnv(t)
	env.seedUser(t, "Ana", "ana@acme.test", database.RoleSupervisor, "sup3rsecret")

	w := env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ana@acme.test", "password": "sup3rsecret",
	})
	mustStatus(t, w, http.StatusOK)
	body := decodeBody(t, w)
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "supervisor", user["role"])

	// Wrong password
	w = env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ana@acme.test", "password": "wrong",
	})
	mustStatus(t, w, http.StatusUnauthorized)

	// Unknown email gets the same rejection
	w = env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "nobody@acme.test", "password": "sup3rsecret",
	})
	mustStatus(t, w, http.StatusUnauthorized)
}

func TestLoginDisabledUser(t *testing.T) {
	env := setupEnv(t)
	user := env.seedUser(t, "Out", "out@acme.test", database.RoleInspector, "sup3rsecret")
	user.IsActive = false
	require.NoError(t, env.db.UpdateUser(env.adminCtx, user))

	w := env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "out@acme.test", "password": "sup3rsecret",
	})
	mustStatus(t, w, http.StatusForbidden)
}

func TestLoginStampsLastLogin(t *testing.T) {
	env := setupEnv(t)
	user := env.seedUser(t, "Ana", "ana@acme.test", database.RoleAdmin, "sup3rsecret")
	require.Nil(t, user.LastLoginAt)

	w := env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ana@acme.test", "password": "sup3rsecret",
	})
	mustStatus(t, w, http.StatusOK)

	reloaded, err := env.db.GetUserByID(env.adminCtx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, reloaded.LastLoginAt)
}

func TestMeRequiresAuth(t *testing.T) {
	env := setupEnv(t)
	user := env.seedUser(t, "Ana", "ana@acme.test", database.RoleAdmin, "sup3rsecret")

	w := env.request(t, http.MethodGet, "/api/auth/me", "", nil)
	mustStatus(t, w, http.StatusUnauthorized)

	w = env.request(t, http.MethodGet, "/api/auth/me", env.token(t, user), nil)
	mustStatus(t, w, http.StatusOK)
	body := decodeBody(t, w)
	assert.Equal(t, "ana@acme.test", body["user"].(map[string]any)["email"])
}

func TestChangePassword(t *testing.T) {
	env := setupEnv(t)
	user := env.seedUser(t, "Ana", "ana@acme.test", database.RoleAdmin, "sup3rsecret")
	token := env.token(t, user)

	w := env.request(t, http.MethodPost, "/api/auth/change-password", token, map[string]string{
		"old_password": "wrong", "new_password": "n3wpassword",
	})
	mustStatus(t, w, http.StatusUnauthorized)

	w = env.request(t, http.MethodPost, "/api/auth/change-password", token, map[string]string{
		"old_password": "sup3rsecret", "new_password": "n3wpassword",
	})
	mustStatus(t, w, http.StatusOK)

	// The new password works
	w = env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ana@acme.test", "password": "n3wpassword",
	})
	mustStatus(t, w, http.StatusOK)
}
