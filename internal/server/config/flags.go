package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/astrotechlabs/astrotech-api/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8000")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-k string   payment gateway key id
//	-p string   payment gateway key secret
//	-w string   payment gateway callback secret
//	-r string   report pipeline endpoint URL
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-u string   S3 root user
//	-q string   S3 root password
//	-o string   comma-separated CORS origins
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. The token
// validity flag is accepted as an integer in minutes.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-k", "-p", "-w", "-r", "-b", "-g", "-e", "-u", "-q", "-o"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")

	fs.StringVar(&config.GatewayKeyID, "k", config.GatewayKeyID, "payment gateway key id")
	fs.StringVar(&config.GatewayKeySecret, "p", config.GatewayKeySecret, "payment gateway key secret")
	fs.StringVar(&config.GatewayCallbackSecret, "w", config.GatewayCallbackSecret, "payment gateway callback secret")
	fs.StringVar(&config.ReportServiceURL, "r", config.ReportServiceURL, "report pipeline endpoint URL")

	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "q", config.S3RootPassword, "S3 root password")

	corsOrigins := fs.String("o", strings.Join(config.CORSAllowedOrigins, ","), "comma-separated CORS origins")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	if *corsOrigins != "" {
		config.CORSAllowedOrigins = strings.Split(*corsOrigins, ",")
	}
}
