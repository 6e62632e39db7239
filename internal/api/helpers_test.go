package api

import (
	"bytes"             // Request bodies
	"context"           // Predictor signature
	"errors"            // Predictor failures
	"net/http"          // HTTP methods
	"net/http/httptest" // HTTP test helpers
	"path/filepath"     // Temp database path
	"testing"           // Go's testing package
	"time"              // Token lifetime

	"srq_assessment/internal/config"  // Test configuration
	"srq_assessment/internal/db"      // Migrations
	"srq_assessment/internal/domain"  // Models
	"srq_assessment/internal/scoring" // Catalog and predictor
	"srq_assessment/internal/utils"   // Tokens and hashing

	"github.com/alicebob/miniredis/v2"    // In-memory Redis server
	"github.com/gin-gonic/gin"            // Gin web framework
	"github.com/goccy/go-json"            // JSON encoding
	"github.com/redis/go-redis/v9"        // Redis client
	"github.com/stretchr/testify/require" // Assertions
	"gorm.io/driver/sqlite"               // SQLite driver for tests
	"gorm.io/gorm"                        // GORM ORM library
	"gorm.io/gorm/logger"                 // Silence SQL logs
)

const (
	testSecret   = "test-secret"
	testPassword = "password123"
)

var errPredictorDown = errors.New("prediction service unreachable")

// fakePredictor returns a fixed verdict or error and counts calls
type fakePredictor struct {
	pred  scoring.Prediction
	err   error
	calls int
}

func (f *fakePredictor) Predict(_ context.Context, _ []int, _ int, _ string) (*scoring.Prediction, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	p := f.pred
	return &p, nil
}

// testEnv is a router backed by a fresh SQLite database
type testEnv struct {
	t         *testing.T
	db        *gorm.DB
	rdb       *redis.Client        // nil unless built by newCachedTestEnv
	mr        *miniredis.Miniredis // Server behind rdb
	router    *gin.Engine
	predictor *fakePredictor
	catalog   *scoring.Catalog
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return buildTestEnv(t, nil, nil, nil)
}

// newCachedTestEnv backs the router with an in-memory Redis; clock may be nil
func newCachedTestEnv(t *testing.T, clock SnapshotClock) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return buildTestEnv(t, mr, rdb, clock)
}

func buildTestEnv(t *testing.T, mr *miniredis.Miniredis, rdb *redis.Client, clock SnapshotClock) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "api.db")+"?_foreign_keys=on"), &gorm.Config{Logger: logger.Discard, TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	catalog, err := scoring.LoadCatalog()
	require.NoError(t, err)
	predictor := &fakePredictor{pred: scoring.Prediction{FinalClass: "Moderate", Confidence: 0.81}}

	deps := Deps{
		DB:        gdb,
		Redis:     rdb,
		Config:    &config.Config{JWTSecret: testSecret, JWTTTL: time.Hour},
		Predictor: predictor,
		Catalog:   catalog,
	}
	if clock != nil {
		deps.Snapshots = clock // Leave the interface nil otherwise
	}
	router, err := NewRouter(deps)
	require.NoError(t, err)
	return &testEnv{t: t, db: gdb, rdb: rdb, mr: mr, router: router, predictor: predictor, catalog: catalog}
}

// createUser stores an account directly and returns it with a valid token
func (e *testEnv) createUser(email, role string) (domain.User, string) {
	e.t.Helper()
	hash, err := utils.HashPassword(testPassword)
	require.NoError(e.t, err)
	u := domain.User{Name: "User " + email, Email: email, PasswordHash: hash, Role: role, IsActive: true}
	require.NoError(e.t, e.db.Create(&u).Error)
	token, err := utils.GenerateJWT(u.ID, u.Email, u.Role, testSecret, time.Hour)
	require.NoError(e.t, err)
	return u, token
}

// do sends a JSON request; body may be nil
func (e *testEnv) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return e.send(req, token)
}

func (e *testEnv) send(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// decode unmarshals a JSON response body
func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// answers builds a 20-item vector with the first yes items set to 1
func answers(yes int) []int {
	out := make([]int, domain.QuestionCount)
	for i := 0; i < yes; i++ {
		out[i] = 1
	}
	return out
}
