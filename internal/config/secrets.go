package config

// RedactedConfig returns a shallow copy of cfg with sensitive fields replaced
// by the redaction placeholder "***". Use this when logging or printing the
// active configuration so secrets are never accidentally exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg // shallow copy of the top-level struct

	// Wallet
	out.Wallet = cfg.Wallet
	redact(&out.Wallet.PrivateKey)
	redact(&out.Wallet.KeyPassword)

	// Chain
	out.Chain = cfg.Chain
	redact(&out.Chain.DeployerKey)
	redact(&out.Chain.RPCURL)

	// Postgres
	out.Postgres = cfg.Postgres
	redact(&out.Postgres.DSN)
	redact(&out.Postgres.Password)

	// Redis
	out.Redis = cfg.Redis
	redact(&out.Redis.Password)

	// S3
	out.S3 = cfg.S3
	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)

	// Server
	out.Server = cfg.Server
	redact(&out.Server.APIKey)

	// Copy slices so callers cannot mutate the original through the redacted
	// copy.
	if cfg.Server.CORSOrigins != nil {
		out.Server.CORSOrigins = make([]string, len(cfg.Server.CORSOrigins))
		copy(out.Server.CORSOrigins, cfg.Server.CORSOrigins)
	}
	if cfg.Markets.Featured != nil {
		out.Markets.Featured = make([]string, len(cfg.Markets.Featured))
		copy(out.Markets.Featured, cfg.Markets.Featured)
	}

	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
