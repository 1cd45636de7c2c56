// Command tokengen mints a bearer token for local development and tests.
//
//	JWT_SIGNING_KEY=... go run ./cmd/tokengen -sub alice -roles coordinator
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"arbor/internal/jwt_token"
	"arbor/internal/platform/config"
	platformstrings "arbor/pkg/platform/strings"
)

func main() {
	sub := flag.String("sub", "", "principal placed in the subject claim")
	roles := flag.String("roles", "", "comma separated roles, e.g. coordinator")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	if *sub == "" {
		fmt.Fprintln(os.Stderr, "tokengen: -sub is required")
		os.Exit(2)
	}
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tokengen: %v\n", err)
		os.Exit(2)
	}

	roleList := platformstrings.DedupeAndTrim(strings.Split(*roles, ","))
	token, err := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer).GenerateAccessToken(*sub, roleList, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tokengen: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
