package botline

import "time"

// Defaults applied when neither flags, environment nor config file set a value.
const (
	DefaultBaseURL = "http://localhost:6285"
	DefaultTimeout = 30 * time.Second
)

// Config holds client settings.
type Config struct {
	BaseURL  string
	Timeout  time.Duration // REST calls only; streams are bounded by ctx
	AuthFile string        // path of the persisted AuthStore
	Provider string        // selected_provider for new messages; empty = platform default
	Model    string        // selected_model for new messages; empty = platform default
}

// DefaultConfig returns a Config with defaults filled in. AuthFile is left
// empty because its default depends on the user's home directory.
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}
