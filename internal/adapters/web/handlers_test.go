package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"candyshop/internal/ai"
	"candyshop/internal/app"
	"candyshop/internal/core"
	"candyshop/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	log := zaptest.NewLogger(t)
	st, err := store.NewLocal(t.TempDir(), log)
	require.NoError(t, err)
	svc, err := app.New(st, ai.NewAgent(""), nil, "admin", "admin", log)
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return NewHandler(svc, "", "test-secret", log)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func loginCookies(t *testing.T, h http.Handler) []*http.Cookie {
	t.Helper()
	rr := doJSON(t, h, http.MethodPost, "/api/auth/login",
		map[string]string{"username": "admin", "password": "admin"}, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	cookies := rr.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func TestHealthIsPublic(t *testing.T) {
	h := newTestHandler(t)
	rr := doJSON(t, h, http.MethodGet, "/api/health", nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"ok"`)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	h := newTestHandler(t)
	rr := doJSON(t, h, http.MethodGet, "/api/products", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	var resp struct {
		Code      string `json:"code"`
		RequestID string `json:"request_id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "UNAUTHORIZED", resp.Code)
	assert.NotEmpty(t, resp.RequestID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newTestHandler(t)
	rr := doJSON(t, h, http.MethodPost, "/api/auth/login",
		map[string]string{"username": "admin", "password": "nope"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLoginThenListProducts(t *testing.T) {
	h := newTestHandler(t)
	cookies := loginCookies(t, h)

	rr := doJSON(t, h, http.MethodGet, "/api/products", nil, cookies)
	require.Equal(t, http.StatusOK, rr.Code)

	var products []core.Product
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &products))
	assert.Len(t, products, len(store.SampleProducts()))
}

func TestMeReturnsSession(t *testing.T) {
	h := newTestHandler(t)
	cookies := loginCookies(t, h)

	rr := doJSON(t, h, http.MethodGet, "/api/auth/me", nil, cookies)
	require.Equal(t, http.StatusOK, rr.Code)
	var sess app.Session
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sess))
	assert.Equal(t, "admin", sess.Username)
	assert.Equal(t, "admin", sess.Role)
}

func TestCartAndCheckoutFlow(t *testing.T) {
	h := newTestHandler(t)
	cookies := loginCookies(t, h)

	rr := doJSON(t, h, http.MethodGet, "/api/products", nil, cookies)
	require.Equal(t, http.StatusOK, rr.Code)
	var products []core.Product
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &products))
	require.NotEmpty(t, products)
	target := products[0]

	rr = doJSON(t, h, http.MethodPost, "/api/cart/items",
		map[string]string{"product_id": target.ID}, cookies)
	require.Equal(t, http.StatusOK, rr.Code)
	var cart app.CartResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &cart))
	require.Len(t, cart.Items, 1)

	rr = doJSON(t, h, http.MethodPost, "/api/checkout",
		app.CheckoutRequest{PaymentMethod: "card"}, cookies)
	require.Equal(t, http.StatusCreated, rr.Code)
	var sale core.Sale
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sale))
	assert.Equal(t, core.PaymentCard, sale.PaymentMethod)
	assert.True(t, sale.Total.Equal(target.Price))

	// Checking out the now-empty cart is a conflict, not a silent success.
	rr = doJSON(t, h, http.MethodPost, "/api/checkout", app.CheckoutRequest{}, cookies)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestReportValidatesParams(t *testing.T) {
	h := newTestHandler(t)
	cookies := loginCookies(t, h)

	rr := doJSON(t, h, http.MethodGet, "/api/report?range=today&method=cash", nil, cookies)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/api/report", nil, cookies)
	assert.Equal(t, http.StatusOK, rr.Code, "missing params default to the widest setting")

	rr = doJSON(t, h, http.MethodGet, "/api/report?range=fortnight", nil, cookies)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestViewRoundTrip(t *testing.T) {
	h := newTestHandler(t)
	cookies := loginCookies(t, h)

	rr := doJSON(t, h, http.MethodPut, "/api/view", map[string]string{"view": "inventory"}, cookies)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/api/view", nil, cookies)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "inventory")

	rr = doJSON(t, h, http.MethodPut, "/api/view", map[string]string{"view": "settings"}, cookies)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUploadRejectedOnLocalBackend(t *testing.T) {
	h := newTestHandler(t)
	cookies := loginCookies(t, h)

	rr := doJSON(t, h, http.MethodGet, "/api/products", nil, cookies)
	require.Equal(t, http.StatusOK, rr.Code)
	var products []core.Product
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &products))
	require.NotEmpty(t, products)

	body, contentType := multipartPNG(t)
	req := httptest.NewRequest(http.MethodPost, "/api/products/"+products[0].ID+"/image", body)
	req.Header.Set("Content-Type", contentType)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code, "local backend cannot host images")
}

// multipartPNG builds a multipart body holding a minimal valid PNG header.
func multipartPNG(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "doce.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("\x89PNG\r\n\x1a\n: not a real image, just the signature"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}
