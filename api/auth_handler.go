package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/hlog"

	"github.com/raushankrgupta/fitly-api/utils"
)

const maxTokenResponse = 1 << 20

var tokenRules = []rule{
	stringRule("code"),
	stringRule("redirectUri"),
	stringRule("codeVerifier"),
}

type tokenRequest struct {
	Code         string `json:"code"`
	RedirectURI  string `json:"redirectUri"`
	CodeVerifier string `json:"codeVerifier"`
}

// ExchangeToken handles POST /token. It trades an authorization code and
// PKCE verifier for tokens at the OAuth provider and relays the provider's
// status and JSON body. It runs without a verified user.
func (h *Handler) ExchangeToken(w http.ResponseWriter, r *http.Request) error {
	body, ok := readBody(r)
	if !ok {
		fail(w, r, errInvalidJSON, nil)
		return nil
	}
	if v := body.check(tokenRules); v != nil {
		reject(w, r, v)
		return nil
	}
	var req tokenRequest
	if err := body.bind(tokenRules, &req); err != nil {
		return fmt.Errorf("bind token request: %w", err)
	}

	logger := hlog.FromRequest(r)
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {h.clientID},
		"code":          {req.Code},
		"redirect_uri":  {req.RedirectURI},
		"code_verifier": {req.CodeVerifier},
	}
	upstream, err := http.NewRequestWithContext(r.Context(), http.MethodPost, h.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		logger.Error().Err(err).Msg("build token request")
		fail(w, r, errTokenExchange, nil)
		return nil
	}
	upstream.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := h.client.Do(upstream)
	if err != nil {
		logger.Error().Err(err).Msg("token endpoint unreachable")
		fail(w, r, errTokenExchange, nil)
		return nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponse))
	if err != nil {
		logger.Error().Err(err).Msg("read token response")
		fail(w, r, errTokenExchange, nil)
		return nil
	}
	if !json.Valid(raw) {
		logger.Error().Int("status", resp.StatusCode).Msg("token endpoint returned invalid json")
		fail(w, r, errCognito, nil)
		return nil
	}

	utils.RespondJSON(w, r, resp.StatusCode, json.RawMessage(raw))
	return nil
}
