package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Names used by the Expo build of the app, kept so one .env serves both.
var envAliases = map[string][]string{
	"MEDIGATE_API_BASE_URL":           {"EXPO_PUBLIC_API_URL"},
	"MEDIGATE_FEEDBACK_COLLECTOR_URL": {"EXPO_PUBLIC_MONGODB_API_URL"},
	"MEDIGATE_STORAGE_ENCRYPTION_KEY": {"MEDIGATE_SECURE_STORE_KEY"},
}

// envFilePaths lists the .env files read at startup, nearest first.
func envFilePaths() []string {
	paths := []string{".env"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".medigate", ".env"),
			filepath.Join(home, ".config", "medigate", ".env"),
		)
	}
	return paths
}

// LoadEnvFiles exports the variables of every .env file that exists.
// Variables already set in the environment win.
func LoadEnvFiles() error {
	for _, path := range envFilePaths() {
		err := loadEnvFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func loadEnvFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		key, value, ok := parseEnvLine(sc.Text())
		if !ok {
			continue
		}
		if os.Getenv(key) != "" {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	return sc.Err()
}

// parseEnvLine splits KEY=value, dropping comments, blank lines and one
// pair of matching quotes around the value.
func parseEnvLine(line string) (key, value string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || line[0] == '#' {
		return "", "", false
	}
	key, value, ok = strings.Cut(line, "=")
	if !ok {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if n := len(value); n >= 2 && (value[0] == '"' || value[0] == '\'') && value[n-1] == value[0] {
		value = value[1 : n-1]
	}
	return key, value, key != ""
}

// GetEnvDefault returns the variable named key, or fallback when it is unset or empty.
func GetEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// ResolveEnvWithAliases returns the first non-empty value among
// canonicalKey and its Expo-era aliases.
func ResolveEnvWithAliases(canonicalKey string) string {
	for _, key := range append([]string{canonicalKey}, envAliases[canonicalKey]...) {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}
