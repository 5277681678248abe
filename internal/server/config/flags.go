package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/sessionkeeper/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
//	-a string     gRPC bind address
//	-m string     metrics (Prometheus) bind address
//	-d string     PostgreSQL DSN
//	-s string     access token secret
//	-k string     refresh token secret
//	-t string     access token expiry, e.g. "15m"
//	-r string     refresh token expiry, e.g. "7d"
//	-o int        owner role id
//	-w int        bcrypt cost
//	-q duration   per-request timeout
//	-l string     environment: local, dev, prod
//	-audit-s3     archive audit events to S3
//	-u/-p/-b/-g/-e  S3 user, password, bucket, region, endpoint
//
// Only recognised flags are passed to the FlagSet; the rest of os.Args is
// left for other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:],
		[]string{"-a", "-m", "-d", "-s", "-k", "-t", "-r", "-o", "-w", "-q", "-l", "-u", "-p", "-b", "-g", "-e"},
		"-audit-s3")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "address and port for /metrics")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.AccessTokenSecret, "s", config.AccessTokenSecret, "access token secret")
	fs.StringVar(&config.RefreshTokenSecret, "k", config.RefreshTokenSecret, "refresh token secret")
	fs.StringVar(&config.AccessTokenExpiresIn, "t", config.AccessTokenExpiresIn, "access token expiry (<N>m|h|d)")
	fs.StringVar(&config.RefreshTokenExpiresIn, "r", config.RefreshTokenExpiresIn, "refresh token expiry (<N>m|h|d)")
	fs.Int64Var(&config.OwnerRoleID, "o", config.OwnerRoleID, "owner role id")
	fs.IntVar(&config.PasswordCost, "w", config.PasswordCost, "bcrypt cost")
	fs.DurationVar(&config.RequestTimeout, "q", config.RequestTimeout, "request timeout")
	fs.StringVar(&config.Env, "l", config.Env, "environment (local, dev, prod)")
	fs.BoolVar(&config.AuditS3Enabled, "audit-s3", config.AuditS3Enabled, "archive audit events to S3")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 audit bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
