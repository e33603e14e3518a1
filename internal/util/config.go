package util

// Config holds runtime settings and flags.
type Config struct {
	ConfigPath string // browser argument file edited by the form
	DSN        string // launch history database; empty disables history
	Theme      string
	Debug      bool
	Version    string
}

// DefaultConfigPath is used when neither -config nor CHROMIUM_RUNNER_CONFIG is set.
const DefaultConfigPath = "browser_config.json"

// HistoryEnabled reports whether launches should be recorded.
func (c Config) HistoryEnabled() bool { return c.DSN != "" }
