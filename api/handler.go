package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"

	"github.com/raushankrgupta/fitly-api/compose"
	"github.com/raushankrgupta/fitly-api/models"
	"github.com/raushankrgupta/fitly-api/store"
	"github.com/raushankrgupta/fitly-api/utils"
)

const (
	uploadTTL   = 300 * time.Second
	downloadTTL = 3600 * time.Second
	fitsLimit   = 20
	maxUpload   = 10 << 20
)

// ObjectURLIssuer issues time-limited object URLs.
type ObjectURLIssuer interface {
	IssueUploadURL(ctx context.Context, key string, policy utils.UploadPolicy) (string, error)
	IssueDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Deps are the collaborators a Handler is built from. They live for the
// whole process.
type Deps struct {
	Profiles   store.Table[models.UserProfile]
	CartItems  store.Table[models.CartItem]
	Fits       store.Table[models.FitJob]
	FitsIndex  string
	Objects    ObjectURLIssuer
	Compositor compose.Compositor

	HTTPClient *http.Client
	TokenURL   string
	ClientID   string

	CartPageLimit int32
	Metrics       *Metrics

	// Now and NewID default to time.Now and uuid.NewString.
	Now   func() time.Time
	NewID func() string
}

// Handler serves the API operations.
type Handler struct {
	profiles   store.Table[models.UserProfile]
	cart       store.Table[models.CartItem]
	fits       store.Table[models.FitJob]
	fitsIndex  string
	objects    ObjectURLIssuer
	compositor compose.Compositor

	client   *http.Client
	tokenURL string
	clientID string

	cartPageLimit int32
	metrics       *Metrics

	now   func() time.Time
	newID func() string
}

// NewHandler builds a Handler from d.
func NewHandler(d Deps) *Handler {
	h := &Handler{
		profiles:      d.Profiles,
		cart:          d.CartItems,
		fits:          d.Fits,
		fitsIndex:     d.FitsIndex,
		objects:       d.Objects,
		compositor:    d.Compositor,
		client:        d.HTTPClient,
		tokenURL:      d.TokenURL,
		clientID:      d.ClientID,
		cartPageLimit: d.CartPageLimit,
		metrics:       d.Metrics,
		now:           d.Now,
		newID:         d.NewID,
	}
	if h.client == nil {
		h.client = http.DefaultClient
	}
	if h.compositor == nil {
		h.compositor = compose.Placeholder{}
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.newID == nil {
		h.newID = uuid.NewString
	}
	return h
}

// timestamp is the current time in the stored timestamp format.
func (h *Handler) timestamp() string {
	return models.Timestamp(h.now())
}

// handlerFunc answers anticipated faults itself. A returned error is an
// unanticipated fault.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// handle adapts fn to http.HandlerFunc, turning a returned error into a
// logged INTERNAL_ERROR.
func handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("unhandled error")
			fail(w, r, errInternal, nil)
		}
	}
}
