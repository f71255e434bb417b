package api

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/raushankrgupta/fitly-api/models"
	"github.com/raushankrgupta/fitly-api/utils"
)

var measurementFields = []string{"height_cm", "weight_kg", "chest_cm", "waist_cm", "hips_cm", "inseam_cm"}

var profileRules = func() []rule {
	var rules []rule
	for _, f := range measurementFields {
		rules = append(rules, rule{
			field:   f,
			valid:   isMeasurement,
			invalid: invalidValue(fmt.Sprintf("%s must be a positive number no greater than %d", f, models.MaxMeasurement)),
		})
	}
	return append(rules, stringRule("preferred_fit"), optionalStringRule("avatar_key"))
}()

type profileRequest struct {
	HeightCM     float64 `json:"height_cm"`
	WeightKG     float64 `json:"weight_kg"`
	ChestCM      float64 `json:"chest_cm"`
	WaistCM      float64 `json:"waist_cm"`
	HipsCM       float64 `json:"hips_cm"`
	InseamCM     float64 `json:"inseam_cm"`
	PreferredFit string  `json:"preferred_fit"`
	AvatarKey    *string `json:"avatar_key"`
}

// SaveProfile handles POST /profile. The stored profile is replaced, not
// merged.
func (h *Handler) SaveProfile(w http.ResponseWriter, r *http.Request) error {
	userID, ok := requireUser(w, r)
	if !ok {
		return nil
	}

	body, ok := readBody(r)
	if !ok {
		fail(w, r, errInvalidJSON, nil)
		return nil
	}
	if v := body.check(profileRules); v != nil {
		reject(w, r, v)
		return nil
	}
	var req profileRequest
	if err := body.bind(profileRules, &req); err != nil {
		return fmt.Errorf("bind profile: %w", err)
	}

	profile := models.UserProfile{
		UserID:       userID,
		HeightCM:     req.HeightCM,
		WeightKG:     req.WeightKG,
		ChestCM:      req.ChestCM,
		WaistCM:      req.WaistCM,
		HipsCM:       req.HipsCM,
		InseamCM:     req.InseamCM,
		PreferredFit: req.PreferredFit,
		AvatarKey:    req.AvatarKey,
		UpdatedAt:    h.timestamp(),
	}
	if err := h.profiles.Put(r.Context(), &profile); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("save profile")
		fail(w, r, storeError("Failed to save profile"), nil)
		return nil
	}

	utils.RespondJSON(w, r, http.StatusOK, map[string]any{"ok": true, "profile": profile})
	return nil
}
