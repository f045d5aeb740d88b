package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"era-admin-console/internal/auth"
	"era-admin-console/internal/models"
)

// jwtgen mints a console token for local runs against a development
// backend that shares JWT_SECRET. With -save it is written to the token
// file the console reads on startup.
func main() {
	var (
		subject    = flag.String("sub", "1", "Subject (admin id)")
		name       = flag.String("name", "Dev Admin", "Display name")
		email      = flag.String("email", "dev@era.local", "Email")
		roles      = flag.String("roles", "super_admin", "Comma-separated list of roles")
		expiryMins = flag.Int("expiry", 1440, "Token expiry in minutes (default: 24 hours)")
		secret     = flag.String("secret", "", "JWT secret (overrides JWT_SECRET env var)")
		issuer     = flag.String("issuer", "", "JWT issuer (overrides JWT_ISS env var)")
		save       = flag.String("save", "", "Write the token to this token file")
	)
	flag.Parse()

	_ = godotenv.Load()

	if *secret == "" {
		*secret = os.Getenv("JWT_SECRET")
	}
	if *issuer == "" {
		*issuer = os.Getenv("JWT_ISS")
	}
	if *issuer == "" {
		*issuer = "era-backend"
	}

	// Parse roles
	roleList := strings.Split(*roles, ",")
	for i, role := range roleList {
		roleList[i] = strings.TrimSpace(role)
	}
	if !models.ValidateRoles(roleList) {
		log.Fatalf("Unknown role in %q", *roles)
	}

	jwtManager := auth.NewJWTManager(*secret, *issuer, time.Duration(*expiryMins)*time.Minute)
	if err := jwtManager.ValidateConfig(); err != nil {
		log.Fatalf("Invalid JWT settings: %v", err)
	}

	token, err := jwtManager.GenerateToken(*subject, *name, *email, roleList)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}

	if *save != "" {
		if err := auth.NewFileTokenStore(*save).Save(token); err != nil {
			log.Fatalf("Failed to save token: %v", err)
		}
	}

	fmt.Printf("JWT Token generated successfully!\n\n")
	fmt.Printf("Subject: %s\n", *subject)
	fmt.Printf("Roles: %s\n", strings.Join(roleList, ", "))
	fmt.Printf("Pages: %v\n", models.AllowedPages(roleList))
	fmt.Printf("Expiry: %d minutes\n", *expiryMins)
	fmt.Printf("Issuer: %s\n", *issuer)
	if *save != "" {
		fmt.Printf("Saved to: %s\n", *save)
	}
	fmt.Printf("\nToken:\n%s\n", token)
}
