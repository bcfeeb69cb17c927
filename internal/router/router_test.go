package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contact-relay-go/internal/config"
	"contact-relay-go/internal/contact"
	"contact-relay-go/internal/handler"
	"contact-relay-go/internal/kv"
	"contact-relay-go/internal/mailer"
)

type stubBroker struct{}

func (stubBroker) Token(context.Context) (string, error) { return "tok", nil }

type stubSender struct {
	mu    sync.Mutex
	calls int
}

func (s *stubSender) Send(context.Context, string, *mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return nil
}

func newTestRouter(t *testing.T, origins []string) (*gin.Engine, *stubSender) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := kv.NewMemoryStore()
	sender := &stubSender{}
	svc := contact.NewService(contact.Options{
		Store:     store,
		Broker:    stubBroker{},
		Sender:    sender,
		Recipient: mailer.Address{Email: "sales@example.com"},
	})
	h := handler.NewHandlers(svc, store, nil)
	return SetupRouter(h, config.ServerConfig{
		AllowedOrigins: origins,
		ClientIPHeader: "CF-Connecting-IP",
		BurstRPS:       100,
		Burst:          100,
	}), sender
}

func post(r http.Handler, path, body, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if ip != "" {
		req.Header.Set("CF-Connecting-IP", ip)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestContactRoutes(t *testing.T) {
	r, sender := newTestRouter(t, nil)

	w := post(r, "/api/contact", `{"email":"a@acme.com","message":"hi"}`, "1.1.1.1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = post(r, "/contact", `{"email":"b@acme.com","message":"hi"}`, "1.1.1.1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, sender.calls)

	w = post(r, "/api/contact", `{"email":"a@acme.com","message":"hi"}`, "1.1.1.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		req := httptest.NewRequest(method, "/api/contact", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
		var resp contact.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, contact.Response{Error: "Method not allowed"}, resp)
	}
}

func TestBodyTooLarge(t *testing.T) {
	r, sender := newTestRouter(t, nil)

	big := `{"email":"a@acme.com","message":"` + strings.Repeat("x", 70<<10) + `"}`
	w := post(r, "/api/contact", big, "1.1.1.1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Invalid request body"}`, w.Body.String())
	assert.Equal(t, 0, sender.calls)
}

func TestCORS(t *testing.T) {
	r, _ := newTestRouter(t, []string{"https://www.example.com"})

	req := httptest.NewRequest(http.MethodOptions, "/api/contact", nil)
	req.Header.Set("Origin", "https://www.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://www.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/contact", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCORSConfigWildcard(t *testing.T) {
	c := corsConfig([]string{"*"})
	assert.True(t, c.AllowAllOrigins)
	assert.Empty(t, c.AllowOrigins)
	assert.NoError(t, c.Validate())

	c = corsConfig([]string{"https://a.example"})
	assert.False(t, c.AllowAllOrigins)
	assert.NoError(t, c.Validate())
}
