package config

import (
	"encoding/json"
	"os"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/flagx"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "2m" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrGRPC string `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP string `json:"endpoint_addr_http"`
	DatabaseDSN      string `json:"database_dsn"`
	LogLevel         string `json:"log_level"`

	TrustedProxies []string `json:"trusted_proxies"`

	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`

	S3RootUser      string `json:"s3_root_user"`
	S3RootPassword  string `json:"s3_root_password"`
	S3Bucket        string `json:"s3_bucket"`
	S3Region        string `json:"s3_region"`
	S3BaseEndpoint  string `json:"s3_base_endpoint"`
	S3PublicBaseURL string `json:"s3_public_base_url"`
	QRPayloadPrefix string `json:"qr_payload_prefix"`

	KafkaBrokers []string `json:"kafka_brokers"`
	KafkaTopic   string   `json:"kafka_topic"`

	GeoEndpoint     string         `json:"geo_endpoint"`
	GeoCacheBackend string         `json:"geo_cache_backend"`
	GeoCacheTTL     timex.Duration `json:"geo_cache_ttl"`
	RedisAddr       string         `json:"redis_addr"`

	DetectionWindow         timex.Duration `json:"detection_window"`
	BurstThreshold          int            `json:"burst_threshold"`
	UniqueSourceThreshold   int            `json:"unique_source_threshold"`
	UniqueLocationThreshold int            `json:"unique_location_threshold"`
	PostUseThreshold        int            `json:"post_use_threshold"`
	HistoryReadLimit        int            `json:"history_read_limit"`
	RotationAttempts        int            `json:"rotation_attempts"`
	ActivateOnCreate        bool           `json:"activate_on_create"`
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		EndpointAddrGRPC:            c.EndpointAddrGRPC,
		EndpointAddrHTTP:            c.EndpointAddrHTTP,
		DatabaseDSN:                 c.DatabaseDSN,
		LogLevel:                    c.LogLevel,
		TrustedProxies:              c.TrustedProxies,
		SecretKey:                   c.SecretKey,
		AccessTokenValidityDuration: timex.Duration{Duration: c.AccessTokenValidityDuration},
		S3RootUser:                  c.S3RootUser,
		S3RootPassword:              c.S3RootPassword,
		S3Bucket:                    c.S3Bucket,
		S3Region:                    c.S3Region,
		S3BaseEndpoint:              c.S3BaseEndpoint,
		S3PublicBaseURL:             c.S3PublicBaseURL,
		QRPayloadPrefix:             c.QRPayloadPrefix,
		KafkaBrokers:                c.KafkaBrokers,
		KafkaTopic:                  c.KafkaTopic,
		GeoEndpoint:                 c.GeoEndpoint,
		GeoCacheBackend:             c.GeoCacheBackend,
		GeoCacheTTL:                 timex.Duration{Duration: c.GeoCacheTTL},
		RedisAddr:                   c.RedisAddr,
		DetectionWindow:             timex.Duration{Duration: c.DetectionWindow},
		BurstThreshold:              c.BurstThreshold,
		UniqueSourceThreshold:       c.UniqueSourceThreshold,
		UniqueLocationThreshold:     c.UniqueLocationThreshold,
		PostUseThreshold:            c.PostUseThreshold,
		HistoryReadLimit:            c.HistoryReadLimit,
		RotationAttempts:            c.RotationAttempts,
		ActivateOnCreate:            c.ActivateOnCreate,
	}
}

func (j *JsonConfig) apply(c *Config) {
	c.EndpointAddrGRPC = j.EndpointAddrGRPC
	c.EndpointAddrHTTP = j.EndpointAddrHTTP
	c.DatabaseDSN = j.DatabaseDSN
	c.LogLevel = j.LogLevel
	c.TrustedProxies = j.TrustedProxies
	c.SecretKey = j.SecretKey
	c.AccessTokenValidityDuration = j.AccessTokenValidityDuration.Duration
	c.S3RootUser = j.S3RootUser
	c.S3RootPassword = j.S3RootPassword
	c.S3Bucket = j.S3Bucket
	c.S3Region = j.S3Region
	c.S3BaseEndpoint = j.S3BaseEndpoint
	c.S3PublicBaseURL = j.S3PublicBaseURL
	c.QRPayloadPrefix = j.QRPayloadPrefix
	c.KafkaBrokers = j.KafkaBrokers
	c.KafkaTopic = j.KafkaTopic
	c.GeoEndpoint = j.GeoEndpoint
	c.GeoCacheBackend = j.GeoCacheBackend
	c.GeoCacheTTL = j.GeoCacheTTL.Duration
	c.RedisAddr = j.RedisAddr
	c.DetectionWindow = j.DetectionWindow.Duration
	c.BurstThreshold = j.BurstThreshold
	c.UniqueSourceThreshold = j.UniqueSourceThreshold
	c.UniqueLocationThreshold = j.UniqueLocationThreshold
	c.PostUseThreshold = j.PostUseThreshold
	c.HistoryReadLimit = j.HistoryReadLimit
	c.RotationAttempts = j.RotationAttempts
	c.ActivateOnCreate = j.ActivateOnCreate
}

// parseJson overlays the file named by -c/-config onto config. Keys missing
// from the file keep their current values. An unreadable file or invalid
// JSON panics, since the server cannot start on a half-read configuration.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFilePath(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}
