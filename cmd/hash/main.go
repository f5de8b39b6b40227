// Package main is a utility for generating bcrypt hashes of passwords. Only
// password hashes are ever stored in the identities table, so this tool is
// used when manually seeding or resetting an account in the database without
// running the full server.
//
// Usage: hash <password>
package main

import (
	"fmt"
	"os"

	"github.com/leadpocket/leadpocket/internal/auth"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <password>\n", os.Args[0])
		os.Exit(1)
	}

	hash, err := auth.HashPassword(os.Args[1], auth.DefaultBcryptCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
