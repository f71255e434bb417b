package api

import (
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/raushankrgupta/fitly-api/compose"
	"github.com/raushankrgupta/fitly-api/models"
	"github.com/raushankrgupta/fitly-api/store"
	"github.com/raushankrgupta/fitly-api/utils"
)

type fitSummary struct {
	FitID        string           `json:"fitId"`
	CreatedAt    string           `json:"createdAt"`
	Status       models.FitStatus `json:"status"`
	Name         *string          `json:"name,omitempty"`
	ThumbnailURL *string          `json:"thumbnailUrl"`
}

// ListFits handles GET /fits: the caller's most recent fits, newest first.
func (h *Handler) ListFits(w http.ResponseWriter, r *http.Request) error {
	userID, ok := requireUser(w, r)
	if !ok {
		return nil
	}

	page, err := h.fits.Query(r.Context(), store.Query{
		Index:      h.fitsIndex,
		Partition:  userID,
		Descending: true,
		Limit:      fitsLimit,
	})
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("list fits")
		fail(w, r, storeError("Failed to retrieve fits"), nil)
		return nil
	}

	fits := make([]fitSummary, 0, len(page.Items))
	for _, job := range page.Items {
		s := fitSummary{
			FitID:     job.FitID,
			CreatedAt: job.CreatedAt,
			Status:    job.Status,
			Name:      job.Name,
		}
		if job.Status == models.FitReady && job.ImageKey != nil {
			s.ThumbnailURL = h.downloadURL(r, compose.ThumbnailKey(*job.ImageKey))
		}
		fits = append(fits, s)
	}

	utils.RespondJSON(w, r, http.StatusOK, map[string]any{"fits": fits})
	return nil
}
