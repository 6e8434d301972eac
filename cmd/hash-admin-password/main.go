package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/riversidefab/storefront-backend/pkg/config"
	"github.com/riversidefab/storefront-backend/pkg/security"
)

// Reads a password from stdin and prints the Argon2id hash to feed into
// STOREFRONT_ADMIN_PASSWORD_HASH.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// Hashing only needs the argon parameters; defaults are fine
		// when the full server environment is absent.
		cfg = &config.Config{}
		cfg.Password = config.DefaultPasswordConfig()
	}

	fmt.Fprint(os.Stderr, "Admin password: ")
	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading password: %v\n", err)
		os.Exit(1)
	}

	hash, err := security.HashPassword(strings.TrimSpace(password), cfg.Password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hashing password: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
