package config

import (
	"flag"
	"os"
	"time"

	"github.com/hevault-io/hevault/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-u string   upload root directory
//	-e string   compute engine binary path
//	-f string   compute engine fallback binary path
//
// Args are first filtered with flagx.FilterArgs so flags owned by other
// components do not break parsing.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-u", "-e", "-f"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")

	fs.StringVar(&config.UploadRoot, "u", config.UploadRoot, "upload root directory")
	fs.StringVar(&config.EngineBin, "e", config.EngineBin, "compute engine binary")
	fs.StringVar(&config.EngineBinFallback, "f", config.EngineBinFallback, "compute engine fallback binary")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
}
