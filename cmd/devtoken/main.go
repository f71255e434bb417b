// Command devtoken prints an HS256 bearer token signed with JWT_SECRET for
// calling a locally running API without the OAuth provider.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/raushankrgupta/fitly-api/config"
	"github.com/raushankrgupta/fitly-api/utils"
)

func main() {
	subject := flag.String("sub", "local-dev-user", "user id placed in the sub claim")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	// Only the signing secret matters here; unrelated settings may be unset.
	cfg, _ := config.Load()
	logger := utils.NewLogger(cfg.LogLevel, cfg.LogPretty)

	if cfg.JWKSURL != "" {
		logger.Warn().Msg("AUTH_JWKS_URL is set; the API will not accept HS256 dev tokens")
	}

	token, err := utils.GenerateToken([]byte(cfg.JWTSecret), *subject, *ttl)
	if err != nil {
		logger.Error().Err(err).Msg("sign token")
		os.Exit(1)
	}
	fmt.Println(token)
}
