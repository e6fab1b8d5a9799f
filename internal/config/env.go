package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Environment variables C compilers honour. They only fill settings the
// config left empty.
const (
	envSysroot     = "SDKROOT"
	envIncludePath = "CPATH"
)

// loadEnvFiles loads .env files in order of precedence. godotenv never
// overrides variables that are already set, so earlier files win.
func loadEnvFiles() {
	envFiles := []string{
		".env.local", // Local overrides (highest precedence)
		".env",
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		envFiles = append(envFiles, filepath.Join(homeDir, ".type-extractor", ".env"))
	}
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}
}

func applyEnvOverrides(cfg *Config) {
	if cfg.Frontend.Sysroot == "" {
		cfg.Frontend.Sysroot = GetString(envSysroot, "")
	}
	if len(cfg.Frontend.IncludeDirs) == 0 {
		cfg.Frontend.IncludeDirs = GetPathList(envIncludePath)
	}
}

// GetString returns the variable's value or defaultVal when it is unset or
// empty.
func GetString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// GetPathList splits a PATH-style variable, dropping empty entries. It
// returns nil when the variable is unset.
func GetPathList(key string) []string {
	var dirs []string
	for _, dir := range filepath.SplitList(os.Getenv(key)) {
		if dir != "" {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}
