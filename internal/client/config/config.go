package config

import "time"

// FlagsWithValue lists the flags of this package that consume the following
// argument. Command dispatchers use it to separate flags from positionals.
var FlagsWithValue = []string{"-a", "-k", "-t", "-s", "-d", "-c", "-config"}

// Config holds runtime settings for the verifyctl CLI.
type Config struct {
	ServerEndpointAddr string
	AccessToken        string
	RequestTimeout     time.Duration
	SecretKey          string
	TokenValidity      time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.AccessToken = ""
	c.RequestTimeout = 10 * time.Second
	c.SecretKey = ""
	c.TokenValidity = 60 * time.Minute
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
