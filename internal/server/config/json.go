package config

import (
	"encoding/json"
	"os"

	"github.com/astrotechlabs/astrotech-api/internal/flagx"
	"github.com/astrotechlabs/astrotech-api/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "30m" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, its non-empty fields are copied into the runtime
// Config struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddr                string         `json:"endpoint_addr"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	GatewayBaseEndpoint         string         `json:"gateway_base_endpoint"`
	GatewayKeyID                string         `json:"gateway_key_id"`
	GatewayKeySecret            string         `json:"gateway_key_secret"`
	GatewayCallbackSecret       string         `json:"gateway_callback_secret"`
	GatewayTimeout              timex.Duration `json:"gateway_timeout"`
	StoreTimeout                timex.Duration `json:"store_timeout"`
	ReportServiceURL            string         `json:"report_service_url"`
	ReportTimeout               timex.Duration `json:"report_timeout"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	CORSAllowedOrigins          []string       `json:"cors_allowed_origins"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path comes from the -c or -config command-line flags; if neither is
// set, no JSON file is loaded. Fields absent from the file keep their current
// (default) values. If the file cannot be read or contains invalid JSON, the
// function panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.GatewayBaseEndpoint != "" {
		config.GatewayBaseEndpoint = c.GatewayBaseEndpoint
	}
	if c.GatewayKeyID != "" {
		config.GatewayKeyID = c.GatewayKeyID
	}
	if c.GatewayKeySecret != "" {
		config.GatewayKeySecret = c.GatewayKeySecret
	}
	if c.GatewayCallbackSecret != "" {
		config.GatewayCallbackSecret = c.GatewayCallbackSecret
	}
	if c.GatewayTimeout.Duration != 0 {
		config.GatewayTimeout = c.GatewayTimeout.Duration
	}
	if c.StoreTimeout.Duration != 0 {
		config.StoreTimeout = c.StoreTimeout.Duration
	}
	if c.ReportServiceURL != "" {
		config.ReportServiceURL = c.ReportServiceURL
	}
	if c.ReportTimeout.Duration != 0 {
		config.ReportTimeout = c.ReportTimeout.Duration
	}
	if c.S3RootUser != "" {
		config.S3RootUser = c.S3RootUser
	}
	if c.S3RootPassword != "" {
		config.S3RootPassword = c.S3RootPassword
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = c.S3BaseEndpoint
	}
	if len(c.CORSAllowedOrigins) > 0 {
		config.CORSAllowedOrigins = c.CORSAllowedOrigins
	}
}
