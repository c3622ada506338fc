package main

import (
	"log"
	"os"

	"github.com/bneidlinger/cam-whisperer/cmd"
	dotenv "github.com/joho/godotenv"
)

// Version is set during compile time via ldflags.
var Version = "dev"

func main() {
	// The .env file is optional; everything can come from the environment.
	if err := dotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("failed to load .env file: %v", err)
	}

	if err := cmd.Execute(Version); err != nil {
		log.Fatal(err)
	}
}
