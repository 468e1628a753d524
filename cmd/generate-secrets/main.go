package main

import (
	"fmt"
	"log"

	"github.com/shenal-anthony/TMS-sub000/internal/utils"
)

var secretNames = []string{"JWT_SECRET", "JWT_REFRESH_SECRET", "BOOKING_TOKEN_SECRET"}

func main() {
	fmt.Println("===========================================")
	fmt.Println("Secret Generator for the booking backend")
	fmt.Println("===========================================")
	fmt.Println()

	secrets, err := utils.GenerateSecrets(secretNames...)
	if err != nil {
		log.Fatalf("Failed to generate secrets: %v", err)
	}

	fmt.Println("✅ Secrets generated successfully!")
	fmt.Println()
	fmt.Println("Add these to your .env file:")
	fmt.Println()
	for _, name := range secretNames {
		fmt.Printf("%s=%s\n", name, secrets[name])
	}
	fmt.Println()
	fmt.Println("⚠️  IMPORTANT: Keep these secrets safe and never commit them to version control!")
	fmt.Println("===========================================")
}
