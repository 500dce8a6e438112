package handler

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/inspectrack/inspectrack/internal/apiserver/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requestMagicLink runs the passwordless flow up to the mail and
// returns the embedded link token.
func (e *testEnv) requestMagicLink(t *testing.T, body map[string]string) string {
	t.Helper()
	w := e.request(t, http.MethodPost, "/api/portal/request-link", "", body)
	mustStatus(t, w, http.StatusOK)

	msg := e.mail.last(t)
	_, after, found := strings.Cut(msg.Body, "?token=")
	require.True(t, found, "mail body carries no link token: %s", msg.Body)
	return strings.TrimSpace(after)
}

// portalSession exchanges a link token for a session token.
func (e *testEnv) portalSession(t *testing.T, linkToken string) string {
	t.Helper()
	w := e.request(t, http.MethodPost, "/api/portal/verify", "", map[string]string{"token": linkToken})
	mustStatus(t, w, http.StatusOK)
	return decodeBody(t, w)["token"].(string)
}

func TestPortalMagicLinkFlow(t *testing.T) {
	env := setupEnv(t)
	company := env.seedCompany(t, "Acme", "ACME")
	company.ContactEmail = "viewer@acme.mx"
	require.NoError(t, env.db.UpdateCompany(env.adminCtx, company))

	linkToken := env.requestMagicLink(t, map[string]string{
		"company_code": "ACME", "email": "viewer@acme.mx",
	})
	assert.Equal(t, "viewer@acme.mx", env.mail.last(t).To)

	// The first accepted request registers the viewer identity
	viewer, err := env.db.FindOrCreateViewer(env.adminCtx, company.ID, "viewer@acme.mx")
	require.NoError(t, err)
	assert.Nil(t, viewer.LastLoginAt)

	w := env.request(t, http.MethodPost, "/api/portal/verify", "", map[string]string{"token": linkToken})
	mustStatus(t, w, http.StatusOK)
	body := decodeBody(t, w)
	session := body["token"].(string)
	header := body["company"].(map[string]any)
	assert.Equal(t, "Acme", header["name"])
	assert.Equal(t, true, header["allow_exports"])

	// Logging in stamps the viewer's last visit
	viewer, err = env.db.FindOrCreateViewer(env.adminCtx, company.ID, "viewer@acme.mx")
	require.NoError(t, err)
	assert.NotNil(t, viewer.LastLoginAt)

	// A link works exactly once
	w = env.request(t, http.MethodPost, "/api/portal/verify", "", map[string]string{"token": linkToken})
	mustStatus(t, w, http.StatusUnauthorized)

	// The session opens the portal views
	w = env.request(t, http.MethodGet, "/api/portal/dashboard", session, nil)
	mustStatus(t, w, http.StatusOK)
	assert.Contains(t, decodeBody(t, w), "dashboard")

	// But the session token is not itself a login link
	w = env.request(t, http.MethodPost, "/api/portal/verify", "", map[string]string{"token": session})
	mustStatus(t, w, http.StatusUnauthorized)

	// And a link token opens no portal views
	w = env.request(t, http.MethodGet, "/api/portal/dashboard", linkToken, nil)
	mustStatus(t, w, http.StatusUnauthorized)
}

func TestPortalRequestLinkRejectionsAreUniform(t *testing.T) {
	env := setupEnv(t)
	company := env.seedCompany(t, "Acme", "ACME")
	company.ContactEmail = "viewer@acme.mx"
	require.NoError(t, env.db.UpdateCompany(env.adminCtx, company))

	for name, body := range map[string]map[string]string{
		"unknown email":   {"company_code": "ACME", "email": "stranger@evil.test"},
		"unknown company": {"company_code": "NOPE", "email": "viewer@acme.mx"},
		"missing email":   {"company_code": "ACME"},
	} {
		w := env.request(t, http.MethodPost, "/api/portal/request-link", "", body)
		mustStatus(t, w, http.StatusUnauthorized)
		assert.NotContains(t, w.Body.String(), "Acme", name)
	}
}

func TestPortalAllowListsAndResolution(t *testing.T) {
	env := setupEnv(t)
	company := env.seedCompany(t, "Acme", "ACME")
	company.AllowedEmails = "ops@acme.mx; qa@acme.mx"
	company.AllowedDomains = "@partners.acme.mx"
	require.NoError(t, env.db.UpdateCompany(env.adminCtx, company))

	// Allow-listed address, resolved without a company code
	env.requestMagicLink(t, map[string]string{"email": "qa@acme.mx"})
	assert.Equal(t, "qa@acme.mx", env.mail.last(t).To)

	// Allow-listed domain
	env.requestMagicLink(t, map[string]string{"email": "anyone@partners.acme.mx"})

	// Outside both lists
	w := env.request(t, http.MethodPost, "/api/portal/request-link", "", map[string]string{
		"email": "anyone@elsewhere.test",
	})
	mustStatus(t, w, http.StatusUnauthorized)
}

func TestPortalInactiveCompanyDenied(t *testing.T) {
	env := setupEnv(t)
	company := env.seedCompany(t, "Acme", "ACME")
	company.ContactEmail = "viewer@acme.mx"
	require.NoError(t, env.db.UpdateCompany(env.adminCtx, company))

	linkToken := env.requestMagicLink(t, map[string]string{"company_code": "ACME", "email": "viewer@acme.mx"})
	session := env.portalSession(t, linkToken)

	company.Status = database.CompanyInactive
	require.NoError(t, env.db.UpdateCompany(env.adminCtx, company))

	// Existing sessions stop working once the company closes
	w := env.request(t, http.MethodGet, "/api/portal/dashboard", session, nil)
	mustStatus(t, w, http.StatusForbidden)

	// And no new links are issued
	w = env.request(t, http.MethodPost, "/api/portal/request-link", "", map[string]string{
		"company_code": "ACME", "email": "viewer@acme.mx",
	})
	mustStatus(t, w, http.StatusUnauthorized)
}

func TestPortalTenantIsolation(t *testing.T) {
	env := setupEnv(t)
	acme := env.seedCompany(t, "Acme", "ACME")
	acme.ContactEmail = "viewer@acme.mx"
	require.NoError(t, env.db.UpdateCompany(env.adminCtx, acme))
	globex := env.seedCompany(t, "Globex", "GLOBEX")

	env.seedCompletedInspection(t, acme.ID)
	other := env.seedCompletedInspection(t, globex.ID)

	linkToken := env.requestMagicLink(t, map[string]string{"company_code": "ACME", "email": "viewer@acme.mx"})
	session := env.portalSession(t, linkToken)

	w := env.request(t, http.MethodGet, "/api/portal/inspections", session, nil)
	mustStatus(t, w, http.StatusOK)
	assert.Len(t, decodeBody(t, w)["inspections"], 1)

	w = env.request(t, http.MethodGet, fmt.Sprintf("/api/portal/inspections/%d", other.ID), session, nil)
	mustStatus(t, w, http.StatusNotFound)
}

func TestPortalExportGate(t *testing.T) {
	env := setupEnv(t)
	company := env.seedCompany(t, "Acme", "ACME")
	company.ContactEmail = "viewer@acme.mx"
	require.NoError(t, env.db.UpdateCompany(env.adminCtx, company))
	env.seedCompletedInspection(t, company.ID)

	linkToken := env.requestMagicLink(t, map[string]string{"company_code": "ACME", "email": "viewer@acme.mx"})
	session := env.portalSession(t, linkToken)

	w := env.request(t, http.MethodGet, "/api/portal/export", session, nil)
	mustStatus(t, w, http.StatusOK)
	assert.Contains(t, w.Body.String(), "Referencia,Fecha,Turno,Parte,S/N,Lote,Buenas,Malas,Total")
	assert.Contains(t, w.Body.String(), "P-1")

	company.AllowExports = false
	require.NoError(t, env.db.UpdateCompany(env.adminCtx, company))

	w = env.request(t, http.MethodGet, "/api/portal/export", session, nil)
	mustStatus(t, w, http.StatusForbidden)
}
