package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads the first env file that exists. godotenv.Load keeps
// variables that are already set.
func loadEnvFiles() {
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			slog.Warn("Failed to load env file", slog.String("path", name), slog.Any("error", err))
			continue
		}
		slog.Debug("Loaded environment variables", slog.String("path", name))
		return
	}
}
