package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/raushankrgupta/fitly-api/compose"
	"github.com/raushankrgupta/fitly-api/config"
	"github.com/raushankrgupta/fitly-api/models"
	"github.com/raushankrgupta/fitly-api/store"
	"github.com/raushankrgupta/fitly-api/utils"
)

var testSecret = []byte("api-test-secret")

const fitsIndex = "UserFitsByDate-Index"

type fakeObjects struct {
	mu          sync.Mutex
	uploadErr   error
	downloadErr error
	failKeys    map[string]bool
	uploads     []string
	policy      utils.UploadPolicy
	downloadTTL time.Duration
}

func (f *fakeObjects) IssueUploadURL(ctx context.Context, key string, policy utils.UploadPolicy) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.policy = policy
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads = append(f.uploads, key)
	return "https://assets.example/put/" + key, nil
}

func (f *fakeObjects) IssueDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloadTTL = ttl
	if f.downloadErr != nil || f.failKeys[key] {
		return "", errors.New("presign failed")
	}
	return "https://assets.example/get/" + key, nil
}

type fakeCompositor struct {
	mu    sync.Mutex
	err   error
	calls []compose.Request
}

func (f *fakeCompositor) Compose(ctx context.Context, req compose.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return "", f.err
	}
	return compose.GeneratedKey(req.UserID, req.FitID), nil
}

// flakyTable fails the first failUpdates calls to Update.
type flakyTable[T any] struct {
	store.Table[T]
	mu          sync.Mutex
	failUpdates int
	failPut     bool
	panicPut    bool
}

func (f *flakyTable[T]) Put(ctx context.Context, rec *T) error {
	if f.panicPut {
		panic("store exploded")
	}
	if f.failPut {
		return &store.Error{Table: "test", Op: "put", Err: errors.New("unavailable")}
	}
	return f.Table.Put(ctx, rec)
}

func (f *flakyTable[T]) Update(ctx context.Context, key store.Key, set, setOnInsert store.Fields) error {
	f.mu.Lock()
	fail := f.failUpdates > 0
	if fail {
		f.failUpdates--
	}
	f.mu.Unlock()
	if fail {
		return &store.Error{Table: "test", Op: "update", Err: errors.New("unavailable")}
	}
	return f.Table.Update(ctx, key, set, setOnInsert)
}

type testEnv struct {
	t          *testing.T
	backend    *store.Backend
	objects    *fakeObjects
	compositor *fakeCompositor
	handler    *Handler
	router     http.Handler

	mu    sync.Mutex
	clock time.Time
}

// newTestEnv builds a router over the memory backend. Each call to the
// handler clock advances it by one second.
func newTestEnv(t *testing.T, opts ...func(*Deps)) *testEnv {
	t.Helper()
	backend := store.NewMemoryBackend(store.SchemasFor(config.Config{
		ProfilesTable:  "profiles",
		CartItemsTable: "cart",
		FitsTable:      "fits",
		FitsUserIndex:  fitsIndex,
	}))
	env := &testEnv{
		t:          t,
		backend:    backend,
		objects:    &fakeObjects{},
		compositor: &fakeCompositor{},
		clock:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	deps := Deps{
		Profiles:      backend.Profiles,
		CartItems:     backend.CartItems,
		Fits:          backend.Fits,
		FitsIndex:     fitsIndex,
		Objects:       env.objects,
		Compositor:    env.compositor,
		TokenURL:      "http://127.0.0.1:1/oauth2/token",
		ClientID:      "client-123",
		CartPageLimit: 50,
		Now:           env.now,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	env.handler = NewHandler(deps)
	env.router = NewRouter(env.handler, utils.NewHMACVerifier(testSecret), zerolog.Nop())
	return env
}

func (e *testEnv) now() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clock = e.clock.Add(time.Second)
	return e.clock
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	token, err := utils.GenerateToken(testSecret, userID, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

// do sends a request through the router. body may be nil, a string sent
// verbatim, or a value encoded as JSON. An empty user sends no token.
func (e *testEnv) do(method, path, user string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if user != "" {
		req.Header.Set("Authorization", bearer(e.t, user))
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) utils.ErrorBody {
	return decode[utils.ErrorBody](t, w)
}

// requireError checks status, wire code and, when field is set, the
// reported field.
func requireError(t *testing.T, w *httptest.ResponseRecorder, status int, code, field string) {
	t.Helper()
	require.Equal(t, status, w.Code, "body: %s", w.Body.String())
	body := decodeError(t, w)
	require.Equal(t, code, body.Error)
	require.NotEmpty(t, body.Message)
	if field != "" {
		require.Equal(t, map[string]any{"field": field}, body.Details)
	}
}

func cartBody(retailer, productID string, price any) map[string]any {
	return map[string]any{
		"retailer":     retailer,
		"productId":    productID,
		"title":        "Linen Shirt",
		"price_cents":  price,
		"currency":     "USD",
		"productUrl":   fmt.Sprintf("https://%s.example/p/%s", retailer, productID),
		"imageUrl":     fmt.Sprintf("https://%s.example/i/%s.jpg", retailer, productID),
		"selectedSize": "M",
		"color":        "white",
		"category":     "tops",
	}
}

func profileBody() map[string]any {
	return map[string]any{
		"height_cm":     180,
		"weight_kg":     75.5,
		"chest_cm":      100,
		"waist_cm":      82,
		"hips_cm":       96,
		"inseam_cm":     81,
		"preferred_fit": "regular",
	}
}

func storedFit(t *testing.T, e *testEnv, fitID string) *models.FitJob {
	t.Helper()
	job, err := e.backend.Fits.Get(context.Background(), store.Key{"fitId": fitID})
	require.NoError(t, err)
	require.NotNil(t, job)
	return job
}
