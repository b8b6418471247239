package config

import "time"

type SessionConfig struct {
	Secret          string
	TTL             time.Duration
	CookieName      string
	CookieSecure    bool
	CookieSameSite  string
	CleanupInterval time.Duration
	Issuer          string
}

func loadSessionConfig() SessionConfig {
	return SessionConfig{
		Secret:          getEnv("SESSION_SECRET", ""),
		TTL:             getEnvDuration("SESSION_TTL", 24*time.Hour),
		CookieName:      getEnv("SESSION_COOKIE_NAME", "wanderlust_session"),
		CookieSecure:    getEnvBool("SESSION_COOKIE_SECURE", false),
		CookieSameSite:  getEnv("SESSION_COOKIE_SAME_SITE", "Lax"),
		CleanupInterval: getEnvDuration("SESSION_CLEANUP_INTERVAL", 10*time.Minute),
		Issuer:          getEnv("SESSION_ISSUER", "wanderlust"),
	}
}
