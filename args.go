package main

import (
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"bazar/api"
)

func ParseArgs() Args {
	// server config
	pflag.String("server-url", "0.0.0.0:8080", "")

	// auth config
	pflag.String("auth-public-key", "", "")
	pflag.String("auth-private-key", "", "")
	pflag.Duration("auth-token-ttl", 24*time.Hour, "")

	// s3 config
	pflag.String("s3-endpoint", "", "")
	pflag.String("s3-bucket", "", "")
	pflag.String("s3-public-base-url", "", "")
	pflag.String("s3-access-key-id", "", "")
	pflag.String("s3-secret-access-key", "", "")
	pflag.Int64("s3-max-attachment-bytes", 5<<20, "")
	pflag.Int("s3-max-attachments-per-hour", 30, "")

	// db config
	pflag.String("db-user", "", "")
	pflag.String("db-password", "", "")
	pflag.String("db-host", "", "")
	pflag.Int("db-port", 5432, "")
	pflag.String("db-database", "", "")
	pflag.String("db-schema", "", "")

	// redis config
	pflag.String("redis-addr", "", "")
	pflag.String("redis-password", "", "")
	pflag.Int("redis-db", 15, "")
	pflag.Duration("redis-cache-ttl", 5*time.Minute, "")

	// redis stream keys
	pflag.String("redis-stream-key-for-offer-events", "bazar-offer-events-stream", "")

	// sweep config
	pflag.Duration("sweep-interval", time.Minute, "")
	pflag.String("sweep-lock-key", "bazar-offer-sweep-lock", "")

	// credit price table
	pflag.StringToInt64("credit-prices", map[string]int64{}, "")

	// bind pflag to viper
	pflag.Parse()
	viper.BindPFlags(pflag.CommandLine)
	viper.AutomaticEnv()
	viper.SetEnvPrefix("BAZAR")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// initial arguments
	return Args{
		ServerURL: viper.GetString("server-url"),
		ServerConfig: api.ServerConfig{
			Auth: api.AuthConfig{
				PublicKey:  viper.GetString("auth-public-key"),
				PrivateKey: viper.GetString("auth-private-key"),
				TokenTTL:   viper.GetDuration("auth-token-ttl"),
			},
			S3: api.S3Config{
				Endpoint:              viper.GetString("s3-endpoint"),
				Bucket:                viper.GetString("s3-bucket"),
				PublicBaseURL:         viper.GetString("s3-public-base-url"),
				AccessKeyID:           viper.GetString("s3-access-key-id"),
				SecretAccessKey:       viper.GetString("s3-secret-access-key"),
				MaxAttachmentBytes:    viper.GetInt64("s3-max-attachment-bytes"),
				MaxAttachmentsPerHour: viper.GetInt("s3-max-attachments-per-hour"),
			},
			DB: api.DBConfig{
				User:     viper.GetString("db-user"),
				Password: viper.GetString("db-password"),
				Host:     viper.GetString("db-host"),
				Port:     viper.GetInt("db-port"),
				Database: viper.GetString("db-database"),
				Schema:   viper.GetString("db-schema"),
			},
			Redis: api.RedisConfig{
				Addr:     viper.GetString("redis-addr"),
				Password: viper.GetString("redis-password"),
				DB:       viper.GetInt("redis-db"),
				CacheTTL: viper.GetDuration("redis-cache-ttl"),
				StreamKeys: api.RedisStreamKeys{
					OfferEvents: viper.GetString("redis-stream-key-for-offer-events"),
				},
			},
			Sweep: api.SweepConfig{
				Interval: viper.GetDuration("sweep-interval"),
				LockKey:  viper.GetString("sweep-lock-key"),
			},
			// viper 沒有 GetStringMapInt64，改用 cast 轉換
			CreditPrices: cast.ToStringMapInt64(viper.Get("credit-prices")),
		},
	}
}

type Args struct {
	ServerURL    string
	ServerConfig api.ServerConfig
}

func (args Args) Validate() bool {
	return args.ServerURL != "" && args.ServerConfig.Auth.PublicKey != ""
}
