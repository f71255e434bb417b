package api

import (
	"net/http"

	"github.com/raushankrgupta/fitly-api/utils"
)

// apiError is a client-facing failure: status, wire code and a fixed
// message. Internal error text never goes into Message.
type apiError struct {
	Status  int
	Code    string
	Message string
}

var (
	errUnauthorized     = apiError{http.StatusUnauthorized, "UNAUTHORIZED", "User ID not found in request context"}
	errInvalidJSON      = apiError{http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON"}
	errInvalidType      = apiError{http.StatusBadRequest, "INVALID_PARAMETER", "type parameter must be one of: face, body, other"}
	errMissingFitID     = apiError{http.StatusBadRequest, "MISSING_PARAMETER", "fitId is required"}
	errItemsRequired    = apiError{http.StatusBadRequest, "MISSING_FIELD", "items array is required"}
	errInvalidMode      = apiError{http.StatusBadRequest, "INVALID_MODE", "mode must be MVP_COMPOSITE or BEDROCK"}
	errInvalidItems     = apiError{http.StatusBadRequest, "INVALID_ITEMS", "Each item must have retailer and productId"}
	errInvalidCursor    = apiError{http.StatusBadRequest, "INVALID_CURSOR", "Invalid pagination cursor"}
	errForbidden        = apiError{http.StatusForbidden, "FORBIDDEN", "Access denied to this fit"}
	errFitNotFound      = apiError{http.StatusNotFound, "FIT_NOT_FOUND", "Fit not found"}
	errNotFound         = apiError{http.StatusNotFound, "NOT_FOUND", "The requested resource was not found"}
	errUploadURL        = apiError{http.StatusInternalServerError, "S3_ERROR", "Failed to generate upload URL"}
	errGenerationFailed = apiError{http.StatusInternalServerError, "GENERATION_FAILED", "Failed to generate fit"}
	errCognito          = apiError{http.StatusInternalServerError, "COGNITO_ERROR", "Invalid response from Cognito"}
	errTokenExchange    = apiError{http.StatusInternalServerError, "INTERNAL_ERROR", "Token exchange failed"}
	errInternal         = apiError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected internal error occurred"}
)

var errForeignAsset = invalidValue("body_asset_key must be one of your uploads")

func missingField(field string) apiError {
	return apiError{http.StatusBadRequest, "MISSING_FIELD", "Required field missing: " + field}
}

func invalidValue(message string) apiError {
	return apiError{http.StatusBadRequest, "INVALID_VALUE", message}
}

func storeError(message string) apiError {
	return apiError{http.StatusInternalServerError, "STORE_ERROR", message}
}

// fail writes e as the error envelope.
func fail(w http.ResponseWriter, r *http.Request, e apiError, details any) {
	utils.RespondError(w, r, e.Status, e.Code, e.Message, details)
}

// fieldDetails names the request field a validation error is about.
func fieldDetails(field string) map[string]string {
	return map[string]string{"field": field}
}
