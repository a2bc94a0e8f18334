package app

import (
	"fmt"
	"os"

	"ledgerdesk/pkg/config"
	"ledgerdesk/pkg/httpx"
)

// validateConfig performs quick, fail-fast validation of the effective
// configuration before starting long-running services. Keep checks light
// and focused so callers can surface user-friendly errors.
func validateConfig(eff config.EffectiveConfigResult) error {
	// DB path must be present
	if p := eff.DBPath; p == "" {
		return fmt.Errorf("database path is empty: set --db flag, LEDGERDESK_DB_PATH env, or server.db_path in config")
	}

	// TLS cert/key presence check if one is set
	cert := eff.Config.Server.TLS.CertFile
	key := eff.Config.Server.TLS.KeyFile
	if (cert != "" && key == "") || (cert == "" && key != "") {
		return fmt.Errorf("incomplete TLS configuration: both server.tls.cert_file and server.tls.key_file must be set")
	}
	if cert != "" {
		if _, err := os.Stat(cert); err != nil {
			return fmt.Errorf("tls cert file not accessible: %w", err)
		}
		if _, err := os.Stat(key); err != nil {
			return fmt.Errorf("tls key file not accessible: %w", err)
		}
	}

	switch eff.Config.Server.Engine {
	case "", httpx.EngineNetHTTP, httpx.EngineFastHTTP:
	default:
		return fmt.Errorf("unknown server.engine %q: use %q or %q", eff.Config.Server.Engine, httpx.EngineNetHTTP, httpx.EngineFastHTTP)
	}

	if eff.Config.Auth.SessionTTLMinutes < 0 {
		return fmt.Errorf("auth.session_ttl_minutes must not be negative")
	}

	return nil
}
