// Package config handles configuration for the verification server,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the verification server.
//
// An empty DatabaseDSN selects the in-memory stores, an empty KafkaBrokers
// list disables decision events and an empty GeoEndpoint disables
// geolocation (every location resolves to "Unknown").
type Config struct {
	EndpointAddrGRPC string
	EndpointAddrHTTP string
	DatabaseDSN      string
	LogLevel         string

	// TrustedProxies lists the IPs or CIDRs whose X-Forwarded-For header
	// the HTTP API believes. Empty trusts nobody.
	TrustedProxies []string

	SecretKey                   string
	AccessTokenValidityDuration time.Duration

	S3RootUser      string
	S3RootPassword  string
	S3Bucket        string
	S3Region        string
	S3BaseEndpoint  string
	S3PublicBaseURL string
	QRPayloadPrefix string

	KafkaBrokers []string
	KafkaTopic   string

	GeoEndpoint     string
	GeoCacheBackend string
	GeoCacheTTL     time.Duration
	RedisAddr       string

	DetectionWindow         time.Duration
	BurstThreshold          int
	UniqueSourceThreshold   int
	UniqueLocationThreshold int
	PostUseThreshold        int
	HistoryReadLimit        int
	RotationAttempts        int
	ActivateOnCreate        bool
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secret and S3 credentials are insecure and must be overridden in production.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.EndpointAddrHTTP = ":8080"
	c.DatabaseDSN = ""
	c.LogLevel = "info"
	c.TrustedProxies = nil

	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 60 * time.Minute

	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "qrcodes"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.S3PublicBaseURL = "http://127.0.0.1:9000"
	c.QRPayloadPrefix = "http://localhost:8080/verify/"

	c.KafkaBrokers = nil
	c.KafkaTopic = "verification-decisions"

	c.GeoEndpoint = ""
	c.GeoCacheBackend = "memory"
	c.GeoCacheTTL = 24 * time.Hour
	c.RedisAddr = "127.0.0.1:6379"

	c.DetectionWindow = 2 * time.Minute
	c.BurstThreshold = 5
	c.UniqueSourceThreshold = 2
	c.UniqueLocationThreshold = 2
	c.PostUseThreshold = 3
	c.HistoryReadLimit = 50
	c.RotationAttempts = 5
	c.ActivateOnCreate = true
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
