package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ph-studio/internal/cart"
	"ph-studio/internal/config"
	"ph-studio/internal/inquiry"
	"ph-studio/internal/quote"
	"ph-studio/internal/storage"
)

type fakeInquiries struct {
	mu    sync.Mutex
	forms []inquiry.Form
	err   error
}

func (f *fakeInquiries) Submit(_ context.Context, form inquiry.Form) (storage.Inquiry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return storage.Inquiry{}, f.err
	}
	f.forms = append(f.forms, form)
	return storage.Inquiry{ID: "inq-1", Name: form.Name, Status: storage.StatusNew}, nil
}

type fakeLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (f *fakeLimiter) Allow(_ context.Context, key string, _ int64, _ time.Duration) (bool, error) {
	f.keys = append(f.keys, key)
	return f.allow, f.err
}

type testEnv struct {
	srv       *Server
	store     *storage.FileStorage
	inquiries *fakeInquiries
	publicDir string
}

func newTestEnv(t *testing.T, opts ...func(*Options)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewFileStorage(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	env := &testEnv{store: store, inquiries: &fakeInquiries{}, publicDir: t.TempDir()}
	o := Options{
		HTTP: config.HTTPConfig{
			PublicDir:         env.publicDir,
			InquiryRateLimit:  5,
			InquiryRateWindow: time.Minute,
		},
		Admin: config.AdminConfig{
			Password:       "secret",
			SessionTTL:     8 * time.Hour,
			LoginRateLimit: 10,
			LoginWindow:    time.Minute,
		},
		Receiver:  "shop@example.com",
		Catalog:   quote.DefaultCatalog(),
		Store:     store,
		Inquiries: env.inquiries,
		Logger:    zap.NewNop(),
	}
	for _, fn := range opts {
		fn(&o)
	}

	env.srv, err = New(o)
	require.NoError(t, err)
	return env
}

func (e *testEnv) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target string, body any) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func formRequest(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

type upload struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, files ...upload) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.filename))
		if f.contentType != "" {
			h.Set("Content-Type", f.contentType)
		}
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestHealthAndRequestID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "req-42")
	rec = env.do(req)
	assert.Equal(t, "req-42", rec.Header().Get(requestIDHeader))
}

func TestQuotePrintAPI(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		body    map[string]any
		code    int
		perUnit float64
		errText string
	}{
		{
			name:    "filament part",
			body:    map[string]any{"printer": "FDM_Ender3Pro", "dimensions": map[string]float64{"x": 100, "y": 80, "z": 40}},
			code:    http.StatusOK,
			perUnit: 136.87,
		},
		{
			name:    "resin part",
			body:    map[string]any{"printer": "Resin_PhotonMono", "dimensions": map[string]float64{"x": 100, "y": 80, "z": 40}},
			code:    http.StatusOK,
			perUnit: 56.15,
		},
		{
			name:    "outside envelope",
			body:    map[string]any{"printer": "Resin_PhotonMono", "dimensions": map[string]float64{"x": 200, "y": 100, "z": 180}},
			code:    http.StatusUnprocessableEntity,
			errText: "Размерите надвишават",
		},
		{
			name:    "unknown printer",
			body:    map[string]any{"printer": "nope", "dimensions": map[string]float64{"x": 10, "y": 10, "z": 10}},
			code:    http.StatusBadRequest,
			errText: "Непознат принтер.",
		},
		{
			name:    "zero quantity",
			body:    map[string]any{"printer": "FDM_Ender3Pro", "dimensions": map[string]float64{"x": 10, "y": 10, "z": 10}, "quantity": 0},
			code:    http.StatusBadRequest,
			errText: "Бройката трябва да е поне 1.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(jsonRequest(http.MethodPost, "/api/quote/print", tt.body))
			require.Equal(t, tt.code, rec.Code, rec.Body.String())

			out := decode(t, rec)
			if tt.errText != "" {
				assert.Equal(t, false, out["ok"])
				assert.Contains(t, out["error"], tt.errText)
				return
			}
			assert.Equal(t, true, out["ok"])
			q := out["quote"].(map[string]any)
			assert.InDelta(t, tt.perUnit, q["perUnit"], 0.01)
		})
	}
}

func TestQuoteEngraveAPI(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(jsonRequest(http.MethodPost, "/api/quote/engrave", map[string]any{"surface": "wood", "areaCm2": 200}))
	require.Equal(t, http.StatusOK, rec.Code)
	q := decode(t, rec)["quote"].(map[string]any)
	assert.InDelta(t, 26.0, q["perUnit"], 0.001)
	assert.EqualValues(t, 5, q["complexity"])

	rec = env.do(jsonRequest(http.MethodPost, "/api/quote/engrave", map[string]any{"surface": "paper", "areaCm2": 10}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Непозната повърхност.", decode(t, rec)["error"])

	rec = env.do(jsonRequest(http.MethodPost, "/api/quote/engrave", map[string]any{
		"surface": "steel", "areaCm2": 1e308, "complexity": 10, "quantity": 10,
	}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Стойностите са извън допустимия обхват.", decode(t, rec)["error"])

	rec = env.do(jsonRequest(http.MethodPost, "/api/quote/print", map[string]any{
		"printer": "FDM_Ender3Pro", "dimensions": map[string]float64{"x": 1e200, "y": 1e200, "z": 1e200},
	}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Стойностите са извън допустимия обхват.", decode(t, rec)["error"])
}

func TestCatalogAndSelfTest(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/quote/catalog", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Len(t, out["printers"], 2)
	assert.Len(t, out["surfaces"], 6)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/quote/selftest", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	out = decode(t, rec)
	assert.EqualValues(t, 8, out["passed"])
	assert.EqualValues(t, 1, out["failed"])
}

func TestCalculatorPage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/kalkulator", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ender‑3 Pro (FDM)")

	rec = env.do(httptest.NewRequest(http.MethodGet, "/kalkulator?printer=FDM_Ender3Pro&x=100&y=80&z=40&area=50&surface=wood", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "136,87 лв.")
	assert.Contains(t, rec.Body.String(), "12,00 лв.")

	rec = env.do(httptest.NewRequest(http.MethodGet, "/kalkulator?printer=FDM_Ender3Pro&x=500&y=500&z=500", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Размерите надвишават обема на Ender‑3 Pro (FDM)")
}

func TestCartFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(formRequest("/kalkulator/print", url.Values{
		"printer": {"FDM_Ender3Pro"}, "x": {"100"}, "y": {"80"}, "z": {"40"}, "qty": {"1"},
	}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/koshnica", rec.Header().Get("Location"))
	c := findCookie(rec, cartCookie)
	require.NotNil(t, c)

	rec = env.do(formRequest("/kalkulator/engrave", url.Values{
		"surface": {"wood"}, "area": {"50"}, "complexity": {"5"}, "eqty": {"1"}, "text": {"Честит рожден ден"},
	}), c)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	c = findCookie(rec, cartCookie)
	require.NotNil(t, c)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/koshnica", nil), c)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "#1 3D ПЕЧАТ")
	assert.Contains(t, body, "#2 ГРАВИРАНЕ")
	assert.Contains(t, body, "148,87 лв.")
	assert.Contains(t, body, "mailto:shop@example.com")

	rec = env.do(httptest.NewRequest(http.MethodGet, "/koshnica/oferta?name=Иван", nil), c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "kalkulacia-")
	var offer cart.Offer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &offer))
	assert.Equal(t, "Иван", offer.Name)
	assert.Len(t, offer.Cart, 2)
	assert.InDelta(t, 148.87, offer.Total, 0.001)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/koshnica/oferta.xlsx", nil), c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, mimeXLSX, rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.Bytes())

	rec = env.do(httptest.NewRequest(http.MethodPost, "/koshnica/remove/0", nil), c)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	c = findCookie(rec, cartCookie)
	require.NotNil(t, c)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/koshnica/oferta", nil), c)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &offer))
	require.Len(t, offer.Cart, 1)
	assert.Equal(t, cart.LineEngrave, offer.Cart[0].Type)

	rec = env.do(httptest.NewRequest(http.MethodPost, "/koshnica/remove/7", nil), c)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(httptest.NewRequest(http.MethodPost, "/koshnica/clear", nil), c)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	cleared := findCookie(rec, cartCookie)
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0)
}

func TestAddPrintOutsideEnvelope(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(formRequest("/kalkulator/print", url.Values{
		"printer": {"Resin_PhotonMono"}, "x": {"200"}, "y": {"100"}, "z": {"180"},
	}))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Размерите надвишават обема на Anycubic Photon Mono (Resin): 130×80×165 mm")
	assert.Nil(t, findCookie(rec, cartCookie))
}

func TestCartIsRepriced(t *testing.T) {
	env := newTestEnv(t)

	tampered := cart.Cart{Lines: []cart.Line{{
		Type:     cart.LinePrint,
		Print:    &cart.PrintParams{Printer: "FDM_Ender3Pro", Dimensions: quote.Dimensions{X: 100, Y: 80, Z: 40}},
		Quantity: 1,
		PerUnit:  1,
		Total:    1,
	}, {
		Type:     cart.LinePrint,
		Print:    &cart.PrintParams{Printer: "gone", Dimensions: quote.Dimensions{X: 1, Y: 1, Z: 1}},
		Quantity: 1,
		PerUnit:  1,
		Total:    1,
	}}}
	v, err := tampered.Encode()
	require.NoError(t, err)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/koshnica/oferta", nil), &http.Cookie{Name: cartCookie, Value: v})
	require.Equal(t, http.StatusOK, rec.Code)

	var offer cart.Offer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &offer))
	require.Len(t, offer.Cart, 1)
	assert.InDelta(t, 136.87, offer.Total, 0.001)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/koshnica", nil), &http.Cookie{Name: cartCookie, Value: "%%%garbage"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Кошницата е празна.")
}

func TestBuyProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.store.UpsertProduct(ctx, storage.Product{Title: "Ваза", Slug: "vaza", Price: 25, Currency: "лв"})
	require.NoError(t, err)

	rec := env.do(formRequest("/produkti/"+p.ID+"/kupi", url.Values{"qty": {"2"}}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	c := findCookie(rec, cartCookie)
	require.NotNil(t, c)

	rec = env.do(formRequest("/produkti/"+p.ID+"/kupi", url.Values{"qty": {"1"}}), c)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	c = findCookie(rec, cartCookie)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/koshnica/oferta", nil), c)
	var offer cart.Offer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &offer))
	require.Len(t, offer.Cart, 1)
	assert.Equal(t, 3, offer.Cart[0].Quantity)
	assert.InDelta(t, 75.0, offer.Total, 0.001)

	// hidden products drop out of existing carts
	active := false
	_, err = env.store.UpdateProduct(ctx, p.ID, storage.ProductPatch{Active: &active})
	require.NoError(t, err)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/koshnica/oferta", nil), c)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &offer))
	assert.Empty(t, offer.Cart)

	rec = env.do(formRequest("/produkti/"+p.ID+"/kupi", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublicPages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.store.UpsertProduct(ctx, storage.Product{
		Title: "Лампа", Slug: "lampa", Price: 40, PromoPercent: 10, PromoUntil: "2999-12-31",
	})
	require.NoError(t, err)
	_, err = env.store.CreateHomeImage(ctx, storage.HomeImage{Title: "Фон", Src: "/home/hero.png", Active: true, IsHero: true})
	require.NoError(t, err)
	_, err = env.store.CreateHomeImage(ctx, storage.HomeImage{Title: "Ваза", Src: "/home/vaza.png", Active: true, Order: 1})
	require.NoError(t, err)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `src="/home/hero.png"`)
	assert.Contains(t, rec.Body.String(), `src="/home/vaza.png"`)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/produkti", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Лампа")
	assert.Contains(t, rec.Body.String(), "40 лв")
	assert.Contains(t, rec.Body.String(), "-10% до 2999-12-31")

	for _, path := range []string{"/zapitvane", "/admin", "/koshnica"} {
		rec = env.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec = env.do(httptest.NewRequest(http.MethodGet, "/static/admin.js", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSendInquiryAPI(t *testing.T) {
	fields := map[string]string{
		"name":    "Иван",
		"email":   "ivan@example.com",
		"service": "3D печат",
		"message": "Здравейте",
	}

	t.Run("accepted with attachment", func(t *testing.T) {
		env := newTestEnv(t)

		req := multipartRequest(t, http.MethodPost, "/api/send-inquiry", fields,
			upload{field: "file", filename: "model.pdf", contentType: "application/pdf", data: []byte("%PDF-1.4")})
		rec := env.do(req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

		require.Len(t, env.inquiries.forms, 1)
		f := env.inquiries.forms[0]
		assert.Equal(t, "Иван", f.Name)
		require.NotNil(t, f.Attachment)
		assert.Equal(t, "model.pdf", f.Attachment.Filename)
	})

	t.Run("unsupported attachment", func(t *testing.T) {
		env := newTestEnv(t)

		req := multipartRequest(t, http.MethodPost, "/api/send-inquiry", fields,
			upload{field: "file", filename: "run.exe", contentType: "application/x-msdownload", data: []byte("MZ")})
		rec := env.do(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Неподдържан тип файл.", decode(t, rec)["error"])
		assert.Empty(t, env.inquiries.forms)
	})

	t.Run("attachment over 5MB", func(t *testing.T) {
		env := newTestEnv(t)

		big := bytes.Repeat([]byte("a"), 5<<20+10)
		req := multipartRequest(t, http.MethodPost, "/api/send-inquiry", fields,
			upload{field: "file", filename: "big.pdf", contentType: "application/pdf", data: big})
		rec := env.do(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Файлът е над 5MB.", decode(t, rec)["error"])
	})

	t.Run("validation error", func(t *testing.T) {
		env := newTestEnv(t)
		env.inquiries.err = fmt.Errorf("inquiry.Submit: %w", inquiry.ErrMissingFields)

		rec := env.do(multipartRequest(t, http.MethodPost, "/api/send-inquiry", map[string]string{"name": "x"}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"ok":false,"error":"Липсват задължителни полета."}`, rec.Body.String())
	})

	t.Run("mail relay failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.inquiries.err = errors.New("resend: 502")

		rec := env.do(multipartRequest(t, http.MethodPost, "/api/send-inquiry", fields))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, false, decode(t, rec)["ok"])
	})

	t.Run("rate limited", func(t *testing.T) {
		limiter := &fakeLimiter{allow: false}
		env := newTestEnv(t, func(o *Options) { o.Limiter = limiter })

		rec := env.do(multipartRequest(t, http.MethodPost, "/api/send-inquiry", fields))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Empty(t, env.inquiries.forms)
		require.Len(t, limiter.keys, 1)
		assert.True(t, strings.HasPrefix(limiter.keys[0], "inquiry:"))
	})

	t.Run("limiter outage lets requests through", func(t *testing.T) {
		env := newTestEnv(t, func(o *Options) { o.Limiter = &fakeLimiter{err: errors.New("redis down")} })

		rec := env.do(multipartRequest(t, http.MethodPost, "/api/send-inquiry", fields))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestInquiryPageCarriesCart(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(formRequest("/kalkulator/engrave", url.Values{"surface": {"steel"}, "area": {"100"}, "complexity": {"10"}}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	c := findCookie(rec, cartCookie)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/zapitvane", nil), c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "44,50 лв.")

	rec = env.do(formRequest("/zapitvane", url.Values{
		"name": {"Мария"}, "email": {"maria@example.com"}, "service": {"Лазерно гравиране"}, "message": {"Табелка"},
	}), c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Благодарим!")

	require.Len(t, env.inquiries.forms, 1)
	f := env.inquiries.forms[0]
	require.Len(t, f.Cart.Lines, 1)
	assert.InDelta(t, 44.5, f.Cart.Total(), 0.001)
	assert.Nil(t, f.Attachment)

	cleared := findCookie(rec, cartCookie)
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0)
}

func TestInquiryPageShowsValidationError(t *testing.T) {
	env := newTestEnv(t)
	env.inquiries.err = inquiry.ErrInvalidEmail

	rec := env.do(formRequest("/zapitvane", url.Values{
		"name": {"Мария"}, "email": {"not-an-email"}, "service": {"Друго"}, "message": {"?"},
	}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Невалиден имейл адрес.")
	assert.Contains(t, body, `value="not-an-email"`)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	env.do(jsonRequest(http.MethodPost, "/api/quote/print", map[string]any{
		"printer": "FDM_Ender3Pro", "dimensions": map[string]float64{"x": 10, "y": 10, "z": 10},
	}))

	rec := env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `phstudio_quotes_total{kind="print",outcome="ok"} 1`)
	assert.Contains(t, string(body), `route="/api/quote/print"`)
}

func TestCartRefusesLinesBeyondCookieSize(t *testing.T) {
	env := newTestEnv(t)
	form := url.Values{
		"surface": {"wood"}, "area": {"80"}, "complexity": {"6"}, "eqty": {"2"},
		"text": {strings.Repeat("Весели празници! ", 15)},
	}

	var c *http.Cookie
	for i := 0; i < cart.MaxLines; i++ {
		var cookies []*http.Cookie
		if c != nil {
			cookies = append(cookies, c)
		}
		rec := env.do(formRequest("/kalkulator/engrave", form), cookies...)
		if rec.Code == http.StatusBadRequest {
			assert.Contains(t, rec.Body.String(), "Кошницата е пълна.")
			assert.Nil(t, findCookie(rec, cartCookie), "a refused line must leave the stored cart untouched")
			break
		}
		require.Equal(t, http.StatusSeeOther, rec.Code)
		c = findCookie(rec, cartCookie)
		require.NotNil(t, c)
		require.LessOrEqual(t, len(c.Value), cart.MaxEncodedBytes)
		require.Less(t, i, cart.MaxLines-1, "long engraving lines should hit the cookie budget first")
	}

	require.NotNil(t, c)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/koshnica", nil), c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "#1 ГРАВИРАНЕ")
}
