package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ph-studio/internal/config"
	"ph-studio/internal/storage"
)

func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()

	rec := e.do(jsonRequest(http.MethodPost, "/api/admin/login", map[string]string{"password": "secret"}))
	require.Equal(t, http.StatusOK, rec.Code)
	c := findCookie(rec, adminCookie)
	require.NotNil(t, c)
	return c
}

func TestAdminLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/admin/products", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"ok":false}`, rec.Body.String())

	rec = env.do(jsonRequest(http.MethodPost, "/api/admin/login", map[string]string{"password": "wrong"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, findCookie(rec, adminCookie))

	rec = env.do(jsonRequest(http.MethodPost, "/api/admin/login", map[string]string{"password": " secret "}))
	require.Equal(t, http.StatusOK, rec.Code)
	c := findCookie(rec, adminCookie)
	require.NotNil(t, c)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 8*60*60, c.MaxAge)
	assert.NotEqual(t, "secret", c.Value)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/admin/products", nil), c)
	assert.Equal(t, http.StatusOK, rec.Code)

	forged := &http.Cookie{Name: adminCookie, Value: "1"}
	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/admin/products", nil), forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(httptest.NewRequest(http.MethodPost, "/api/admin/logout", nil), c)
	require.Equal(t, http.StatusOK, rec.Code)
	out := findCookie(rec, adminCookie)
	require.NotNil(t, out)
	assert.Less(t, out.MaxAge, 0)
}

func TestAdminLoginWithoutPassword(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.Admin = config.AdminConfig{} })

	rec := env.do(jsonRequest(http.MethodPost, "/api/admin/login", map[string]string{"password": ""}))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"ok":false,"error":"ADMIN_PASSWORD not set"}`, rec.Body.String())

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/admin/inquiries", nil), &http.Cookie{Name: adminCookie, Value: adminToken("")})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminLoginRateLimited(t *testing.T) {
	limiter := &fakeLimiter{allow: false}
	env := newTestEnv(t, func(o *Options) { o.Limiter = limiter })

	rec := env.do(jsonRequest(http.MethodPost, "/api/admin/login", map[string]string{"password": "secret"}))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Len(t, limiter.keys, 1)
	assert.True(t, strings.HasPrefix(limiter.keys[0], "admin_login:"))
}

func TestAdminProducts(t *testing.T) {
	env := newTestEnv(t)
	c := env.login(t)

	rec := env.do(multipartRequest(t, http.MethodPost, "/api/admin/products", map[string]string{"title": "Ваза"}), c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Липсват задължителни полета.", decode(t, rec)["error"])

	rec = env.do(multipartRequest(t, http.MethodPost, "/api/admin/products",
		map[string]string{"title": "Ваза", "price": "25"},
		upload{field: "image", filename: "notes.txt", contentType: "text/plain", data: []byte("x")}), c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Неподдържан тип файл.", decode(t, rec)["error"])

	rec = env.do(multipartRequest(t, http.MethodPost, "/api/admin/products",
		map[string]string{"title": "Ваза", "price": "25", "desc": "Керамика"},
		upload{field: "image", filename: "Vaza.PNG", contentType: "image/png", data: []byte("png")}), c)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	item := decode(t, rec)["item"].(map[string]any)
	id := item["id"].(string)
	slug := item["slug"].(string)
	image := item["image"].(string)
	assert.NotEmpty(t, slug)
	assert.Equal(t, true, item["active"])
	assert.True(t, strings.HasPrefix(image, "/uploads/"+slug+"-"))
	assert.True(t, strings.HasSuffix(image, ".png"))
	assert.FileExists(t, filepath.Join(env.publicDir, "uploads", filepath.Base(image)))

	rec = env.do(httptest.NewRequest(http.MethodGet, image, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// same slug without an image replaces the fields and keeps id and image
	rec = env.do(multipartRequest(t, http.MethodPost, "/api/admin/products",
		map[string]string{"title": "Ваза XL", "slug": slug, "price": "30"}), c)
	require.Equal(t, http.StatusOK, rec.Code)
	item = decode(t, rec)["item"].(map[string]any)
	assert.Equal(t, id, item["id"])
	assert.Equal(t, image, item["image"])
	assert.EqualValues(t, 30, item["price"])

	// a new image for the same slug replaces the stored file
	rec = env.do(multipartRequest(t, http.MethodPost, "/api/admin/products",
		map[string]string{"title": "Ваза XL", "slug": slug, "price": "30"},
		upload{field: "image", filename: "vaza-nova.jpg", contentType: "image/jpeg", data: []byte("jpg")}), c)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	item = decode(t, rec)["item"].(map[string]any)
	assert.Equal(t, id, item["id"])
	replacement := item["image"].(string)
	assert.True(t, strings.HasSuffix(replacement, ".jpg"))
	assert.FileExists(t, filepath.Join(env.publicDir, "uploads", filepath.Base(replacement)))
	assert.NoFileExists(t, filepath.Join(env.publicDir, "uploads", filepath.Base(image)))
	image = replacement

	rec = env.do(jsonRequest(http.MethodPut, "/api/admin/products", map[string]any{"id": id, "desc": "Порцелан", "price": 32.5}), c)
	require.Equal(t, http.StatusOK, rec.Code)
	item = decode(t, rec)["item"].(map[string]any)
	assert.Equal(t, "Порцелан", item["desc"])
	assert.EqualValues(t, 32.5, item["price"])
	assert.Equal(t, "Ваза XL", item["title"])

	rec = env.do(jsonRequest(http.MethodPut, "/api/admin/products", map[string]any{"desc": "x"}), c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_id", decode(t, rec)["error"])

	rec = env.do(jsonRequest(http.MethodPut, "/api/admin/products", map[string]any{"id": "missing"}), c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode(t, rec)["error"])

	rec = env.do(jsonRequest(http.MethodPatch, "/api/admin/products", map[string]any{"id": id, "active": false}), c)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/produkti", nil))
	assert.NotContains(t, rec.Body.String(), "Ваза XL")

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/admin/products", nil), c)
	items := decode(t, rec)["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, false, items[0].(map[string]any)["active"])

	rec = env.do(httptest.NewRequest(http.MethodDelete, "/api/admin/products", nil), c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(httptest.NewRequest(http.MethodDelete, "/api/admin/products?id="+id, nil), c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.NoFileExists(t, filepath.Join(env.publicDir, "uploads", filepath.Base(image)))

	rec = env.do(httptest.NewRequest(http.MethodDelete, "/api/admin/products?id="+id, nil), c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminHomeImages(t *testing.T) {
	env := newTestEnv(t)
	c := env.login(t)

	rec := env.do(multipartRequest(t, http.MethodPost, "/api/admin/home", map[string]string{"title": "x"}), c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing_file", decode(t, rec)["error"])

	rec = env.do(multipartRequest(t, http.MethodPost, "/api/admin/home", nil,
		upload{field: "image", filename: "a.pdf", contentType: "application/pdf", data: []byte("pdf")}), c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_type", decode(t, rec)["error"])

	add := func(title, order string) map[string]any {
		rec := env.do(multipartRequest(t, http.MethodPost, "/api/admin/home",
			map[string]string{"title": title, "order": order},
			upload{field: "image", filename: title + ".webp", contentType: "image/webp", data: []byte(title)}), c)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return decode(t, rec)["item"].(map[string]any)
	}
	first := add("first", "2")
	second := add("second", "1")

	src := first["src"].(string)
	assert.True(t, strings.HasPrefix(src, "/home/home-"))
	assert.FileExists(t, filepath.Join(env.publicDir, "home", filepath.Base(src)))

	rec = env.do(jsonRequest(http.MethodPatch, "/api/admin/home", map[string]any{"id": first["id"], "isHero": true}), c)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/admin/home", nil), c)
	items := decode(t, rec)["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, second["id"], items[0].(map[string]any)["id"])
	assert.Equal(t, true, items[1].(map[string]any)["isHero"])

	rec = env.do(jsonRequest(http.MethodPatch, "/api/admin/home", map[string]any{"id": "nope", "active": false}), c)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(httptest.NewRequest(http.MethodDelete, "/api/admin/home?id="+first["id"].(string), nil), c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NoFileExists(t, filepath.Join(env.publicDir, "home", filepath.Base(src)))
}

func TestAdminInquiries(t *testing.T) {
	env := newTestEnv(t)
	c := env.login(t)
	ctx := context.Background()

	in, err := env.store.SaveInquiry(ctx, storage.Inquiry{
		Name: "Иван", Email: "ivan@example.com", Service: "3D печат", Message: "Здравейте", CartTotal: 120,
	})
	require.NoError(t, err)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/admin/inquiries", nil), c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["items"], 1)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/admin/inquiries?status=bogus", nil), c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(jsonRequest(http.MethodPatch, "/api/admin/inquiries/"+in.ID, map[string]string{"status": "done"}), c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid", decode(t, rec)["error"])

	rec = env.do(jsonRequest(http.MethodPatch, "/api/admin/inquiries/"+in.ID, map[string]string{"status": "processing"}), c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "processing", decode(t, rec)["item"].(map[string]any)["status"])

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/admin/inquiries?status=new", nil), c)
	assert.Empty(t, decode(t, rec)["items"])

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/admin/inquiries/stats", nil), c)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode(t, rec)["stats"].(map[string]any)
	assert.EqualValues(t, 1, stats["total"])
	assert.EqualValues(t, 120, stats["totalValue"])

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/admin/inquiries/export", nil), c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, mimeXLSX, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "zapitvania_")
	assert.NotEmpty(t, rec.Body.Bytes())
}
