package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/sessionkeeper/internal/flagx"
	"github.com/dmitrijs2005/sessionkeeper/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Pointer fields distinguish
// "absent" from the zero value so a partial file only overrides what it
// names. RequestTimeout accepts "5s" or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrGRPC      *string         `json:"endpoint_addr_grpc"`
	MetricsAddr           *string         `json:"metrics_addr"`
	DatabaseDSN           *string         `json:"database_dsn"`
	AccessTokenSecret     *string         `json:"access_token_secret"`
	RefreshTokenSecret    *string         `json:"refresh_token_secret"`
	AccessTokenExpiresIn  *string         `json:"access_token_expires_in"`
	RefreshTokenExpiresIn *string         `json:"refresh_token_expires_in"`
	OwnerRoleID           *int64          `json:"owner_role_id"`
	PasswordCost          *int            `json:"password_cost"`
	RequestTimeout        *timex.Duration `json:"request_timeout"`
	Env                   *string         `json:"env"`
	AuditS3Enabled        *bool           `json:"audit_s3_enabled"`
	S3RootUser            *string         `json:"s3_root_user"`
	S3RootPassword        *string         `json:"s3_root_password"`
	S3Bucket              *string         `json:"s3_bucket"`
	S3Region              *string         `json:"s3_region"`
	S3BaseEndpoint        *string         `json:"s3_base_endpoint"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// parseJson loads the file named by -c/-config into config. Without the
// flag it does nothing. An unreadable or malformed file panics, since the
// server cannot start on a configuration it was explicitly pointed at.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	set(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	set(&config.MetricsAddr, c.MetricsAddr)
	set(&config.DatabaseDSN, c.DatabaseDSN)
	set(&config.AccessTokenSecret, c.AccessTokenSecret)
	set(&config.RefreshTokenSecret, c.RefreshTokenSecret)
	set(&config.AccessTokenExpiresIn, c.AccessTokenExpiresIn)
	set(&config.RefreshTokenExpiresIn, c.RefreshTokenExpiresIn)
	set(&config.OwnerRoleID, c.OwnerRoleID)
	set(&config.PasswordCost, c.PasswordCost)
	if c.RequestTimeout != nil {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	set(&config.Env, c.Env)
	set(&config.AuditS3Enabled, c.AuditS3Enabled)
	set(&config.S3RootUser, c.S3RootUser)
	set(&config.S3RootPassword, c.S3RootPassword)
	set(&config.S3Bucket, c.S3Bucket)
	set(&config.S3Region, c.S3Region)
	set(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}
