package api

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/raushankrgupta/fitly-api/utils"
)

var imageUploadPolicy = utils.UploadPolicy{
	ContentTypePrefix: "image/",
	MinBytes:          1,
	MaxBytes:          maxUpload,
	TTL:               uploadTTL,
}

var uploadTypes = map[string]bool{"face": true, "body": true, "other": true}

// uploadPrefix is the key prefix of every object a user may upload.
func uploadPrefix(userID string) string {
	return "uploads/" + userID + "/"
}

// UploadURL handles GET /upload-url?type=face|body|other.
func (h *Handler) UploadURL(w http.ResponseWriter, r *http.Request) error {
	userID, ok := requireUser(w, r)
	if !ok {
		return nil
	}

	imageType := r.URL.Query().Get("type")
	if !uploadTypes[imageType] {
		fail(w, r, errInvalidType, nil)
		return nil
	}

	key := fmt.Sprintf("%s%s/%s.jpg", uploadPrefix(userID), imageType, h.newID())
	url, err := h.objects.IssueUploadURL(r.Context(), key, imageUploadPolicy)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("key", key).Msg("upload url")
		fail(w, r, errUploadURL, nil)
		return nil
	}

	utils.RespondJSON(w, r, http.StatusOK, map[string]string{"url": url, "key": key})
	return nil
}
