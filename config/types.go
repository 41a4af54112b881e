package config

// Auth configures bearer token verification on the HTTP gateway.
type Auth struct {
	Enabled          bool     `toml:"Enabled"`
	HMACSecret       string   `toml:"HMACSecret"`
	Issuer           string   `toml:"Issuer"`
	Audience         string   `toml:"Audience"`
	ClockSkewSeconds int64    `toml:"ClockSkewSeconds"`
	OptionalPaths    []string `toml:"OptionalPaths"`
}

// RateLimit caps requests per client on the HTTP gateway.
type RateLimit struct {
	RequestsPerMinute float64 `toml:"RequestsPerMinute"`
	Burst             int     `toml:"Burst"`
}

// EventLog configures the sqlite index of committed events.
type EventLog struct {
	Enabled bool   `toml:"Enabled"`
	DSN     string `toml:"DSN"`
}

// Kafka configures publication of committed events to a topic.
type Kafka struct {
	Brokers  []string `toml:"Brokers"`
	Topic    string   `toml:"Topic"`
	ClientID string   `toml:"ClientID"`
}

// Webhook configures signed HTTP delivery of committed events.
type Webhook struct {
	URL         string   `toml:"URL"`
	Secret      string   `toml:"Secret"`
	EventTypes  []string `toml:"EventTypes"`
	MaxAttempts int      `toml:"MaxAttempts"`
}

// Telemetry configures the OTLP exporters.
type Telemetry struct {
	Endpoint    string  `toml:"Endpoint"`
	Insecure    bool    `toml:"Insecure"`
	Traces      bool    `toml:"Traces"`
	Metrics     bool    `toml:"Metrics"`
	SampleRatio float64 `toml:"SampleRatio"`
}

// Logging configures optional rotating file output next to stdout.
type Logging struct {
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
}

// Pauses halts mutating calls per module at startup.
type Pauses struct {
	RWA bool `toml:"RWA"`
}

// CORS lists the origins allowed to call the gateway from a browser.
type CORS struct {
	AllowedOrigins []string `toml:"AllowedOrigins"`
}
