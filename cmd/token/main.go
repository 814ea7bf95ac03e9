package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"campusevents/internal/auth"
	"campusevents/internal/config"
)

// token prints an operator JWT for the configured issuer and signing key.
func main() {
	subject := flag.String("sub", "operator", "token subject")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to OPERATOR_TOKEN_TTL)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if !cfg.AuthEnabled() {
		log.Fatalf("JWT_SIGNING_KEY is not set")
	}
	lifetime := cfg.OperatorTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	tok, err := auth.Issue(*subject, auth.RoleOperator, cfg.JWTIssuer, cfg.JWTSigningKey, lifetime)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}
	fmt.Fprintln(os.Stdout, tok.Value)
	fmt.Fprintf(os.Stderr, "expires %s\n", tok.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"))
}
