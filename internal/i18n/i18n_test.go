package i18n

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/inspectrack/inspectrack/internal/common/cnst"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func writeTranslations(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	es := `
ErrorCompanyNotFound = "Empresa no encontrada"
ErrorInspectionPartEmpty = "La parte {{.Part}} no tiene piezas registradas"
SuccessLogin = "Sesión iniciada"
`
	en := `
ErrorCompanyNotFound = "Company not found"
ErrorInspectionPartEmpty = "Part {{.Part}} has no recorded pieces"
SuccessLogin = "Logged in"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "es.toml"), []byte(es), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.toml"), []byte(en), 0644))
	return dir
}

func newTestI18n(t *testing.T) *I18n {
	t.Helper()
	i := NewI18n(language.Spanish)
	require.NoError(t, i.LoadTranslations(writeTranslations(t)))
	return i
}

func TestTranslate(t *testing.T) {
	i := newTestI18n(t)

	assert.Equal(t, "Empresa no encontrada", i.Translate("ErrorCompanyNotFound", "es", nil))
	assert.Equal(t, "Company not found", i.Translate("ErrorCompanyNotFound", "en", nil))

	// Unknown language falls back to the default
	assert.Equal(t, "Empresa no encontrada", i.Translate("ErrorCompanyNotFound", "fr", nil))

	// Unknown message ID is returned verbatim
	assert.Equal(t, "NoSuchMessage", i.Translate("NoSuchMessage", "es", nil))
}

func TestTranslateTemplateData(t *testing.T) {
	i := newTestI18n(t)

	got := i.Translate("ErrorInspectionPartEmpty", "es", map[string]interface{}{"Part": "P-1001"})
	assert.Equal(t, "La parte P-1001 no tiene piezas registradas", got)

	got = i.Translate("ErrorInspectionPartEmpty", "en", map[string]interface{}{"Part": "P-1001"})
	assert.Equal(t, "Part P-1001 has no recorded pieces", got)
}

func TestTranslateContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	i := newTestI18n(t)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(cnst.XLang, "en")
	assert.Equal(t, "Logged in", i.TranslateContext(c, "SuccessLogin", nil))

	c2, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, "Sesión iniciada", i.TranslateContext(c2, "SuccessLogin", nil))
}

func TestNormalizeLang(t *testing.T) {
	assert.Equal(t, "es", normalizeLang("es-MX"))
	assert.Equal(t, "en", normalizeLang("EN-us"))
	assert.Equal(t, defaultLang, normalizeLang("de"))
}

func TestGetLanguageFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set(cnst.XLang, "en")
	assert.Equal(t, "en", getLanguageFromRequest(r))

	r = httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Accept-Language", "es-MX,es;q=0.9,en;q=0.8")
	assert.Equal(t, "es", getLanguageFromRequest(r))

	r = httptest.NewRequest("GET", "/", nil)
	assert.Equal(t, defaultLang, getLanguageFromRequest(r))
}
