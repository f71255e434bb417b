package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/raushankrgupta/fitly-api/compose"
	"github.com/raushankrgupta/fitly-api/models"
	"github.com/raushankrgupta/fitly-api/store"
	"github.com/raushankrgupta/fitly-api/utils"
)

// Order matters: a missing items list is reported before a bad mode, and
// a bad mode before malformed items.
var fitRules = []rule{
	{field: "items", valid: isArray, invalid: errItemsRequired, missing: &errItemsRequired},
	{field: "mode", valid: isMode, invalid: errInvalidMode, missing: &errInvalidMode},
	{field: "items", valid: isItemList, invalid: errInvalidItems},
	optionalStringRule("name"),
	optionalStringRule("body_asset_key"),
}

type fitRequest struct {
	Items        json.RawMessage `json:"items"`
	Mode         models.FitMode  `json:"mode"`
	Name         *string         `json:"name"`
	BodyAssetKey *string         `json:"body_asset_key"`
}

type fitStatus struct {
	FitID  string           `json:"fitId"`
	Status models.FitStatus `json:"status"`
}

type fitDetail struct {
	FitID     string           `json:"fitId"`
	Status    models.FitStatus `json:"status"`
	Items     []models.ItemRef `json:"items"`
	CreatedAt string           `json:"createdAt"`
	UpdatedAt string           `json:"updatedAt"`
	Name      *string          `json:"name,omitempty"`
	ImageURL  *string          `json:"imageUrl"`
}

// CreateFit handles POST /fit. The job is stored PENDING first. BEDROCK
// jobs stay PENDING for an external worker; MVP_COMPOSITE jobs are
// composed in-request and end READY or FAILED before the response.
func (h *Handler) CreateFit(w http.ResponseWriter, r *http.Request) error {
	userID, ok := requireUser(w, r)
	if !ok {
		return nil
	}

	body, ok := readBody(r)
	if !ok {
		fail(w, r, errInvalidJSON, nil)
		return nil
	}
	if v := body.check(fitRules); v != nil {
		reject(w, r, v)
		return nil
	}
	var req fitRequest
	if err := body.bind(fitRules, &req); err != nil {
		return fmt.Errorf("bind fit: %w", err)
	}
	items, err := decodeItems(req.Items)
	if err != nil {
		return fmt.Errorf("bind fit items: %w", err)
	}
	if req.BodyAssetKey != nil && !strings.HasPrefix(*req.BodyAssetKey, uploadPrefix(userID)) {
		fail(w, r, errForeignAsset, fieldDetails("body_asset_key"))
		return nil
	}

	logger := hlog.FromRequest(r)
	now := h.timestamp()
	job := models.FitJob{
		FitID:        h.newID(),
		UserID:       userID,
		Items:        items,
		Mode:         req.Mode,
		Status:       models.FitPending,
		Name:         req.Name,
		BodyAssetKey: req.BodyAssetKey,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.fits.Put(r.Context(), &job); err != nil {
		logger.Error().Err(err).Msg("create fit job")
		fail(w, r, storeError("Failed to create fit job"), nil)
		return nil
	}
	h.metrics.fitTransition(job.Mode, models.FitPending)

	if job.Mode == models.ModeBedrock {
		utils.RespondJSON(w, r, http.StatusCreated, fitStatus{job.FitID, models.FitPending})
		return nil
	}

	imageKey, err := h.compose(r.Context(), &job)
	if err != nil {
		logger.Warn().Err(err).Str("fit_id", job.FitID).Msg("fit generation failed")
		if err := h.transition(r.Context(), &job, models.FitFailed, nil); err != nil {
			logger.Error().Err(err).Str("fit_id", job.FitID).Msg("mark fit failed")
			fail(w, r, storeError("Failed to create fit job"), nil)
			return nil
		}
		fail(w, r, errGenerationFailed, nil)
		return nil
	}

	logger.Info().Str("fit_id", job.FitID).Str("image_key", imageKey).Msg("fit ready")
	utils.RespondJSON(w, r, http.StatusCreated, fitStatus{job.FitID, models.FitReady})
	return nil
}

// compose runs the compositor and records READY. A failure to record
// READY counts as a generation failure.
func (h *Handler) compose(ctx context.Context, job *models.FitJob) (string, error) {
	req := compose.Request{FitID: job.FitID, UserID: job.UserID, Items: job.Items}
	if job.BodyAssetKey != nil {
		req.BodyAssetKey = *job.BodyAssetKey
	}
	key, err := h.compositor.Compose(ctx, req)
	if err != nil {
		return "", err
	}
	if err := h.transition(ctx, job, models.FitReady, &key); err != nil {
		return "", err
	}
	return key, nil
}

// transition moves a PENDING job to a terminal status.
func (h *Handler) transition(ctx context.Context, job *models.FitJob, to models.FitStatus, imageKey *string) error {
	if job.Status.Terminal() {
		return fmt.Errorf("fit %s is already %s", job.FitID, job.Status)
	}
	now := h.timestamp()
	set := store.Fields{"status": string(to), "updatedAt": now}
	if imageKey != nil {
		set["imageUrl"] = *imageKey
	}
	if err := h.fits.Update(ctx, store.Key{"fitId": job.FitID}, set, nil); err != nil {
		return err
	}
	job.Status, job.UpdatedAt, job.ImageKey = to, now, imageKey
	h.metrics.fitTransition(job.Mode, to)
	return nil
}

// GetFit handles GET /fit/{fitId}.
func (h *Handler) GetFit(w http.ResponseWriter, r *http.Request) error {
	userID, ok := requireUser(w, r)
	if !ok {
		return nil
	}

	fitID := chi.URLParam(r, "fitId")
	if fitID == "" {
		fail(w, r, errMissingFitID, nil)
		return nil
	}

	job, err := h.fits.Get(r.Context(), store.Key{"fitId": fitID})
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("fit_id", fitID).Msg("get fit")
		fail(w, r, storeError("Failed to retrieve fit"), nil)
		return nil
	}
	// Existence is checked before ownership.
	if job == nil {
		fail(w, r, errFitNotFound, nil)
		return nil
	}
	if job.UserID != userID {
		fail(w, r, errForbidden, nil)
		return nil
	}

	resp := fitDetail{
		FitID:     job.FitID,
		Status:    job.Status,
		Items:     job.Items,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
		Name:      job.Name,
	}
	if resp.Items == nil {
		resp.Items = []models.ItemRef{}
	}
	if job.Status == models.FitReady && job.ImageKey != nil {
		resp.ImageURL = h.downloadURL(r, *job.ImageKey)
	}
	utils.RespondJSON(w, r, http.StatusOK, resp)
	return nil
}

// downloadURL returns nil when the URL cannot be issued.
func (h *Handler) downloadURL(r *http.Request, key string) *string {
	url, err := h.objects.IssueDownloadURL(r.Context(), key, downloadTTL)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Str("key", key).Msg("download url")
		return nil
	}
	return &url
}
