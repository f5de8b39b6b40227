// Package main is a development utility that generates a random password with
// its bcrypt hash pre-computed and prints ready-to-run SQL for seeding a
// complete account (identity, organization, admin profile) in a local
// database without going through the sign-up endpoint. Do not use generated
// accounts in production.
package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	randomBytes := make([]byte, 18)
	if _, err := rand.Read(randomBytes); err != nil {
		log.Fatalf("failed to generate password: %v", err)
	}
	password := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(randomBytes)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	fmt.Printf("Password: %s\n", password)
	fmt.Printf("Hash:     %s\n\n", string(hash))
	fmt.Println("Seed SQL:")
	fmt.Printf(`WITH identity AS (
  INSERT INTO identities (email, password_hash, full_name)
  VALUES ('dev@leadpocket.local', '%s', 'Dev User')
  RETURNING id
), org AS (
  INSERT INTO organizations (name, subscription_plan)
  VALUES ('Dev Org', 'starter')
  RETURNING id
)
INSERT INTO users (email, full_name, organization_id, auth_user_id, role)
SELECT 'dev@leadpocket.local', 'Dev User', org.id, identity.id, 'admin'
FROM identity, org;
`, string(hash))
}
