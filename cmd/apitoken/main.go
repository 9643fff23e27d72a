// Command apitoken issues a bearer token for POST /simulations.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"rate_backend/internal/platform/config"
	jwtmw "rate_backend/internal/platform/jwt"
)

func main() {
	_ = godotenv.Load(".env")

	fs := pflag.NewFlagSet("apitoken", pflag.ExitOnError)
	cfgPath := fs.String("config", "", "config file (default ./config.yaml if present)")
	subject := fs.String("subject", "", "client name stored in the token")
	ttl := fs.Duration("ttl", 0, "token lifetime (default auth.token_ttl)")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(*cfgPath, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	exp := cfg.Auth.TokenTTL
	if *ttl > 0 {
		exp = *ttl
	}

	token, err := jwtmw.NewGenerator(cfg.Auth.JWTSecret, exp).GenerateToken(*subject)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
