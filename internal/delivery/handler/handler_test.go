package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"storefront-api/internal/application/services"
	"storefront-api/internal/domain"
	"storefront-api/internal/infrastructure"
	"storefront-api/internal/infrastructure/db/postgres"
	"storefront-api/internal/metrics"
)

type linkRecorder struct {
	mu    sync.Mutex
	links map[string]string
}

func (r *linkRecorder) SendVerification(_ context.Context, email, _, link string) error {
	return r.record("verify:"+email, link)
}

func (r *linkRecorder) SendPasswordReset(_ context.Context, email, _, link string) error {
	return r.record("reset:"+email, link)
}

func (r *linkRecorder) record(key, link string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links[key] = link
	return nil
}

func (r *linkRecorder) token(key string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	link := r.links[key]
	return link[strings.LastIndex(link, "/")+1:]
}

type testServer struct {
	echo  *echo.Echo
	links *linkRecorder
}

func newTestServer(t *testing.T, limit *RateLimit) *testServer {
	t.Helper()
	log := zap.NewNop()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := postgres.Open(postgres.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", name), log)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	registry := infrastructure.NewRedisServiceFromClient(client, log)

	links := &linkRecorder{links: make(map[string]string)}
	throttle := infrastructure.NewRateLimiter(time.Hour, 3)
	t.Cleanup(throttle.Close)

	users := services.NewUserService(
		postgres.NewUserRepository(db),
		infrastructure.NewBcryptHasher(bcrypt.MinCost),
		infrastructure.NewTokenService(postgres.NewTokenRepository(db)),
		infrastructure.NewSessionService(infrastructure.NewJWTService("test-secret", time.Hour), registry, log),
		links,
		infrastructure.NopPublisher{},
		throttle,
		postgres.NewTransactor(db),
		services.UserServiceConfig{
			VerifyTokenTTL: time.Hour,
			ResetTokenTTL:  time.Hour,
			PublicBaseURL:  "http://localhost:8080",
		},
		log,
	)
	products := services.NewProductService(postgres.NewProductRepository(db), infrastructure.NopImageStore{}, infrastructure.NopPublisher{}, 1<<20, log)

	e := NewRouter(RouterConfig{
		Users:        users,
		Products:     products,
		Metrics:      metrics.New(),
		RateLimit:    limit,
		MaxImageSize: 1 << 20,
		HealthCheckers: map[string]HealthChecker{
			"redis": registry.Ping,
		},
		Log: log,
	})
	return &testServer{echo: e, links: links}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, headers ...string) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return s.serve(t, req)
}

func (s *testServer) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	var resp Response
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

var joy = map[string]string{
	"userName":        "JoyPabs",
	"email":           "joypabs@gmail.com",
	"password":        "Joyp$123",
	"confirmPassword": "Joyp$123",
}

func TestUserRoutes_Lifecycle(t *testing.T) {
	s := newTestServer(t, nil)

	rec, resp := s.do(t, http.MethodGet, "/api/v1/users", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "error", resp.Status)

	rec, resp = s.do(t, http.MethodPost, "/api/v1/register", joy)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "success", resp.Status)
	assert.NotContains(t, rec.Body.String(), "Joyp$123")

	rec, _ = s.do(t, http.MethodPost, "/api/v1/register", joy)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	login := map[string]string{"userName": "JoyPabs", "password": "Joyp$123"}
	rec, _ = s.do(t, http.MethodPost, "/api/v1/login", login)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/verify/user/"+s.links.token("verify:joypabs@gmail.com"), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = s.do(t, http.MethodGet, "/api/v1/verify/user/"+s.links.token("verify:joypabs@gmail.com"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/login", map[string]string{"userName": "JoyPabs", "password": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/login", map[string]string{"userName": "Nobody", "password": "Joyp$123"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, resp = s.do(t, http.MethodPost, "/api/v1/login", login)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token := resp.Data.(map[string]interface{})["token"].(string)
	require.NotEmpty(t, token)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/user", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/user", nil, echo.HeaderAuthorization, "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, resp = s.do(t, http.MethodGet, "/api/v1/user", nil, echo.HeaderAuthorization, "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "JoyPabs", resp.Data.(map[string]interface{})["userName"])

	rec, resp = s.do(t, http.MethodGet, "/api/v1/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp.Data, 1)

	change := map[string]string{"currentPassword": "Joyp$123", "newPassword": "Changed$123", "confirmPassword": "Changed$123"}
	rec, _ = s.do(t, http.MethodPost, "/api/v1/change/password", change)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/change/password", change, echo.HeaderAuthorization, "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = s.do(t, http.MethodPost, "/api/v1/login", map[string]string{"userName": "JoyPabs", "password": "Changed$123"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUserRoutes_PasswordReset(t *testing.T) {
	s := newTestServer(t, nil)

	rec, _ := s.do(t, http.MethodPost, "/api/v1/register", joy)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/forgot/password", map[string]string{"email": "nobody@gmail.com"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/forgot/password", map[string]string{"email": "joypabs@gmail.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	token := s.links.token("reset:joypabs@gmail.com")

	mismatch := map[string]string{"newPassword": "NewJoyp$123", "confirmPassword": "NewJoyp$321"}
	rec, resp := s.do(t, http.MethodPost, "/api/v1/reset/password/"+token, mismatch)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp.Message, "passwords do not match")

	reset := map[string]string{"newPassword": "NewJoyp$123", "confirmPassword": "NewJoyp$123"}
	rec, _ = s.do(t, http.MethodPost, "/api/v1/reset/password/"+token, reset)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = s.do(t, http.MethodPost, "/api/v1/reset/password/"+token, reset)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	for i := 0; i < 2; i++ {
		rec, _ = s.do(t, http.MethodPost, "/api/v1/forgot/password", map[string]string{"email": "joypabs@gmail.com"})
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec, _ = s.do(t, http.MethodPost, "/api/v1/forgot/password", map[string]string{"email": "joypabs@gmail.com"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestUserRoutes_ResendVerification(t *testing.T) {
	s := newTestServer(t, nil)

	rec, _ := s.do(t, http.MethodPost, "/api/v1/register", joy)
	require.Equal(t, http.StatusCreated, rec.Code)
	first := s.links.token("verify:joypabs@gmail.com")

	rec, _ = s.do(t, http.MethodPost, "/api/v1/verify/resend", map[string]string{"email": "joypabs@gmail.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, first, s.links.token("verify:joypabs@gmail.com"))
}

func TestUserRoutes_MalformedBody(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/register", strings.NewReader("{not json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec, resp := s.serve(t, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp.Message, "malformed request body")
}

func multipartRequest(t *testing.T, method, path string, fields map[string]string, image []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if image != nil {
		part, err := w.CreateFormFile("image", "lamp.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func TestProductRoutes_CRUD(t *testing.T) {
	s := newTestServer(t, nil)
	png := []byte("\x89PNG\r\n\x1a\n0000")

	rec, resp := s.do(t, http.MethodGet, "/api/v1/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, resp.Data)

	rec, _ = s.serve(t, multipartRequest(t, http.MethodPost, "/api/v1/create/product",
		map[string]string{"productName": "Lamp", "productPrice": "abc"}, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, resp = s.serve(t, multipartRequest(t, http.MethodPost, "/api/v1/create/product",
		map[string]string{"productName": "Lamp", "description": "Desk lamp", "productPrice": "19.5"}, png))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := resp.Data.(map[string]interface{})["id"].(string)

	rec, resp = s.do(t, http.MethodGet, "/api/v1/product/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 19.5, resp.Data.(map[string]interface{})["productPrice"])

	rec, resp = s.do(t, http.MethodPut, "/api/v1/update/"+id, map[string]interface{}{"productPrice": 25})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Lamp", resp.Data.(map[string]interface{})["productName"])
	assert.Equal(t, float64(25), resp.Data.(map[string]interface{})["productPrice"])

	rec, resp = s.serve(t, multipartRequest(t, http.MethodPut, "/api/v1/update/"+id,
		map[string]string{"productName": "Floor Lamp"}, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Floor Lamp", resp.Data.(map[string]interface{})["productName"])
	assert.Equal(t, "Desk lamp", resp.Data.(map[string]interface{})["description"])

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/delete/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/product/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/product/not-a-uuid", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductRoutes_RejectsNonFinitePrice(t *testing.T) {
	s := newTestServer(t, nil)

	rec, resp := s.serve(t, multipartRequest(t, http.MethodPost, "/api/v1/create/product",
		map[string]string{"productName": "Lamp", "productPrice": "19"}, nil))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := resp.Data.(map[string]interface{})["id"].(string)

	for _, price := range []string{"Inf", "+Inf", "-Inf", "NaN"} {
		rec, _ = s.serve(t, multipartRequest(t, http.MethodPost, "/api/v1/create/product",
			map[string]string{"productName": "Lamp", "productPrice": price}, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, price)

		rec, _ = s.serve(t, multipartRequest(t, http.MethodPut, "/api/v1/update/"+id,
			map[string]string{"productPrice": price}, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, price)
	}

	rec, resp = s.do(t, http.MethodGet, "/api/v1/products", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, resp.Data, 1)
}

func TestRateLimiterMiddleware(t *testing.T) {
	s := newTestServer(t, &RateLimit{RPS: 0.001, Burst: 2})

	for i := 0; i < 2; i++ {
		rec, _ := s.do(t, http.MethodGet, "/api/v1/products", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec, resp := s.do(t, http.MethodGet, "/api/v1/products", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "error", resp.Status)
}

func TestRateLimiterMiddleware_IgnoresForwardedFor(t *testing.T) {
	s := newTestServer(t, &RateLimit{RPS: 0.001, Burst: 1})

	codes := make(map[int]int)
	for i := 0; i < 20; i++ {
		rec, _ := s.do(t, http.MethodGet, "/api/v1/products", nil,
			echo.HeaderXForwardedFor, fmt.Sprintf("203.0.113.%d", i+1))
		codes[rec.Code]++
	}
	assert.Equal(t, map[int]int{http.StatusOK: 1, http.StatusTooManyRequests: 19}, codes)
}

func TestIPExtractor(t *testing.T) {
	_, proxies, err := net.ParseCIDR("10.0.0.0/8")
	require.NoError(t, err)

	tests := []struct {
		name    string
		trusted []*net.IPNet
		remote  string
		want    string
	}{
		{"direct ignores header", nil, "198.51.100.7:4000", "198.51.100.7"},
		{"trusted proxy forwards", []*net.IPNet{proxies}, "10.1.2.3:4000", "203.0.113.9"},
		{"untrusted peer ignored", []*net.IPNet{proxies}, "198.51.100.7:4000", "198.51.100.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			req.Header.Set(echo.HeaderXForwardedFor, "203.0.113.9")
			assert.Equal(t, tt.want, IPExtractor(tt.trusted)(req))
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, nil)

	rec, _ := s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestHealthz_Failing(t *testing.T) {
	e := echo.New()
	e.GET("/healthz", healthz(map[string]HealthChecker{
		"db": func(context.Context) error { return errors.New("down") },
	}))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "down")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: x", domain.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("%w: x", domain.ErrConflict), http.StatusBadRequest},
		{fmt.Errorf("%w: x", domain.ErrNotFound), http.StatusNotFound},
		{domain.ErrExpired, http.StatusBadRequest},
		{domain.ErrAuth, http.StatusBadRequest},
		{domain.ErrUnverified, http.StatusForbidden},
		{domain.ErrRateLimited, http.StatusTooManyRequests},
		{fmt.Errorf("%w: db down", domain.ErrUnexpected), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestErrorHandler_HidesInternalErrors(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zap.NewNop())
	e.GET("/boom", func(echo.Context) error {
		return fmt.Errorf("%w: connection refused to 10.0.0.5", domain.ErrUnexpected)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer  abc "))
	assert.Empty(t, bearerToken("Basic abc"))
	assert.Empty(t, bearerToken("abc"))
	assert.Empty(t, bearerToken(""))
}

func TestImageSizeDefaults(t *testing.T) {
	assert.Equal(t, int64(services.DefaultMaxImageSize), NewProductHandler(nil, 0).maxImageSize)
	assert.Equal(t, "6144K", bodyLimit(0))
	assert.Equal(t, "2048K", bodyLimit(1<<20))
}
