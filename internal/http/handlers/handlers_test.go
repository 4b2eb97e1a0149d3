package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
	security.Cost = bcrypt.MinCost
}

func newUUID() string {
	return uuid.NewString()
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("body is not an envelope: %v body=%s", err, w.Body.String())
	}
	return env
}

// small helper which mounts one handler, optionally behind a fixed identity

func setupRouter(method, path string, h gin.HandlerFunc, as *auth.Identity) *gin.Engine {
	r := gin.New()

	chain := []gin.HandlerFunc{}
	if as != nil {
		id := *as
		chain = append(chain, func(c *gin.Context) {
			c.Set(middlewares.CtxIdentity, id)
			c.Next()
		})
	}
	chain = append(chain, h)

	r.Handle(method, path, chain...)

	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}

	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bytesContain(b []byte, s string) bool {
	return bytes.Contains(b, []byte(s))
}
