package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/coffeeshop/internal/api"
	"github.com/charlesng35/coffeeshop/internal/app"
	iauth "github.com/charlesng35/coffeeshop/internal/auth"
	"github.com/charlesng35/coffeeshop/internal/auth/authtest"
	"github.com/charlesng35/coffeeshop/internal/database"
	sharedtestutil "github.com/charlesng35/coffeeshop/internal/database/testutil"
	"github.com/charlesng35/coffeeshop/internal/models"
	"github.com/charlesng35/coffeeshop/internal/services"
	"github.com/charlesng35/coffeeshop/pkg/response"
)

// Env encapsulates a fully-wired API instance backed by an in-memory database and an
// in-process identity provider.
type Env struct {
	T      *testing.T
	DB     *gorm.DB
	Router *gin.Engine
	Issuer *authtest.Issuer
	Drinks *services.DrinkService
	Config *app.Config
}

// NewEnv provisions a fresh handler test environment with an empty drinks table.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate())
	issuer := authtest.NewIssuer(t)

	cfg := &app.Config{
		Server: app.ServerConfig{
			Port: 5000,
			CORS: app.CORSConfig{AllowedOrigins: []string{"*"}},
		},
		Auth: app.AuthConfig{
			Issuer:   issuer.URL(),
			Audience: authtest.DefaultAudience,
			JWKSURL:  issuer.JWKSURL(),
		},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true},
		},
	}

	keys, err := iauth.NewRemoteKeySet(cfg.Auth.KeySetConfig())
	require.NoError(t, err)
	verifier, err := iauth.NewVerifier(keys, cfg.Auth.VerifierConfig())
	require.NoError(t, err)

	drinks, err := services.NewDrinkService(db)
	require.NoError(t, err)

	router, err := api.NewRouter(api.Dependencies{
		Config:   cfg,
		Drinks:   drinks,
		Verifier: verifier,
		Ping: func(ctx context.Context) error {
			return database.Ping(ctx, db)
		},
	})
	require.NoError(t, err)

	return &Env{
		T:      t,
		DB:     db,
		Router: router,
		Issuer: issuer,
		Drinks: drinks,
		Config: cfg,
	}
}

// Bearer returns an Authorization header value granting permissions.
func (e *Env) Bearer(permissions ...string) string {
	e.T.Helper()
	if permissions == nil {
		permissions = []string{}
	}
	return e.Issuer.Bearer(authtest.TokenOptions{Permissions: permissions})
}

// SeedDrinks inserts n drinks titled "drink-1".."drink-n", each with a two part recipe.
func (e *Env) SeedDrinks(n int) []models.Drink {
	e.T.Helper()

	out := make([]models.Drink, 0, n)
	for i := 1; i <= n; i++ {
		drink, err := e.Drinks.Create(context.Background(), services.CreateDrinkInput{
			Title: fmt.Sprintf("drink-%d", i),
			Recipe: models.Recipe{
				{Name: "espresso", Color: "brown", Parts: 1},
				{Name: "milk", Color: "white", Parts: float64(i)},
			},
		})
		require.NoError(e.T, err)
		out = append(out, *drink)
	}
	return out
}

// Request executes an HTTP request against the test router. body may be nil, a raw
// string, raw bytes, or any value to be JSON encoded. authorization is sent verbatim.
func (e *Env) Request(method, path string, body any, authorization string) *httptest.ResponseRecorder {
	e.T.Helper()

	var reader io.Reader = http.NoBody
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	case []byte:
		reader = bytes.NewBuffer(b)
	default:
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		reader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

// DrinksResponse is the success envelope of list, create and update endpoints.
type DrinksResponse[T any] struct {
	Success bool `json:"success"`
	Drinks  []T  `json:"drinks"`
}

// DeleteResponse is the success envelope of the delete endpoint.
type DeleteResponse struct {
	Success bool `json:"success"`
	Delete  uint `json:"delete"`
}

// DecodeInto unmarshals the recorder body into a value of type T.
func DecodeInto[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// RequireError asserts the error envelope.
func RequireError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) response.ErrorResponse {
	t.Helper()

	require.Equal(t, status, w.Code, w.Body.String())
	payload := DecodeInto[response.ErrorResponse](t, w)
	require.False(t, payload.Success)
	require.Equal(t, status, payload.Error)
	require.Equal(t, code, payload.Code)
	return payload
}
