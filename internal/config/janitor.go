package config

// JanitorConfig schedules the removal of expired sessions and
// verification tokens.  Schedule accepts any robfig/cron expression,
// including descriptors such as "@every 15m" or "@hourly".
type JanitorConfig struct {
	Enabled  bool
	Schedule string
}

// LoadJanitorConfig reads JANITOR_* variables.
func LoadJanitorConfig() JanitorConfig {
	return JanitorConfig{
		Enabled:  envBool("JANITOR_ENABLED", true),
		Schedule: getenv("JANITOR_SCHEDULE", "@every 15m"),
	}
}
