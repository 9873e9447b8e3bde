package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvFile(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	content := `# Test env file
KEY1=value1
KEY2="quoted value"
KEY3='single quoted'
# Comment
KEY4=value4
`
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	os.Unsetenv("KEY1")
	os.Unsetenv("KEY2")
	os.Unsetenv("KEY3")
	os.Unsetenv("KEY4")

	if err := loadEnvFile(envFile); err != nil {
		t.Fatalf("loadEnvFile failed: %v", err)
	}

	if os.Getenv("KEY1") != "value1" {
		t.Errorf("KEY1 not set correctly: %s", os.Getenv("KEY1"))
	}
	if os.Getenv("KEY2") != "quoted value" {
		t.Errorf("KEY2 not set correctly: %s", os.Getenv("KEY2"))
	}
	if os.Getenv("KEY3") != "single quoted" {
		t.Errorf("KEY3 not set correctly: %s", os.Getenv("KEY3"))
	}
	if os.Getenv("KEY4") != "value4" {
		t.Errorf("KEY4 not set correctly: %s", os.Getenv("KEY4"))
	}
}

func TestLoadEnvFile_DoesNotOverride(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	content := `EXISTING_KEY=new_value`
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	os.Setenv("EXISTING_KEY", "original_value")
	defer os.Unsetenv("EXISTING_KEY")

	if err := loadEnvFile(envFile); err != nil {
		t.Fatalf("loadEnvFile failed: %v", err)
	}

	if os.Getenv("EXISTING_KEY") != "original_value" {
		t.Error("loadEnvFile should not override existing env vars")
	}
}

func TestParseEnvLine(t *testing.T) {
	tests := []struct {
		line       string
		key, value string
		ok         bool
	}{
		{"KEY=value", "KEY", "value", true},
		{"  KEY = spaced  ", "KEY", "spaced", true},
		{`KEY="a=b"`, "KEY", "a=b", true},
		{`KEY='x'`, "KEY", "x", true},
		{`KEY="unbalanced'`, "KEY", `"unbalanced'`, true},
		{"KEY=", "KEY", "", true},
		{"# comment", "", "", false},
		{"", "", "", false},
		{"no-separator", "", "", false},
		{"=value", "", "value", false},
	}

	for _, tt := range tests {
		key, value, ok := parseEnvLine(tt.line)
		if ok != tt.ok || (ok && (key != tt.key || value != tt.value)) {
			t.Errorf("parseEnvLine(%q) = %q, %q, %v; want %q, %q, %v", tt.line, key, value, ok, tt.key, tt.value, tt.ok)
		}
	}
}

func TestLoadEnvFiles_SkipsMissingFiles(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", t.TempDir())

	if err := LoadEnvFiles(); err != nil {
		t.Fatalf("LoadEnvFiles with no files: %v", err)
	}
}

func TestGetEnvDefault(t *testing.T) {
	os.Unsetenv("DEFAULT_KEY")

	result := GetEnvDefault("DEFAULT_KEY", "fallback")
	if result != "fallback" {
		t.Errorf("Expected fallback, got %s", result)
	}

	os.Setenv("DEFAULT_KEY", "actual")
	defer os.Unsetenv("DEFAULT_KEY")

	result = GetEnvDefault("DEFAULT_KEY", "fallback")
	if result != "actual" {
		t.Errorf("Expected actual, got %s", result)
	}
}

func TestResolveEnvWithAliases(t *testing.T) {
	os.Unsetenv("MEDIGATE_API_BASE_URL")
	os.Unsetenv("EXPO_PUBLIC_API_URL")

	result := ResolveEnvWithAliases("MEDIGATE_API_BASE_URL")
	if result != "" {
		t.Error("Expected empty when no keys set")
	}

	os.Setenv("EXPO_PUBLIC_API_URL", "https://api.example.com")
	defer os.Unsetenv("EXPO_PUBLIC_API_URL")

	result = ResolveEnvWithAliases("MEDIGATE_API_BASE_URL")
	if result != "https://api.example.com" {
		t.Errorf("Expected value from alias, got %s", result)
	}

	os.Setenv("MEDIGATE_API_BASE_URL", "https://canonical.example.com")
	defer os.Unsetenv("MEDIGATE_API_BASE_URL")

	result = ResolveEnvWithAliases("MEDIGATE_API_BASE_URL")
	if result != "https://canonical.example.com" {
		t.Errorf("Expected canonical value, got %s", result)
	}
}

func TestEnvAliases_Exist(t *testing.T) {
	requiredAliases := map[string][]string{
		"MEDIGATE_API_BASE_URL":           {"EXPO_PUBLIC_API_URL"},
		"MEDIGATE_FEEDBACK_COLLECTOR_URL": {"EXPO_PUBLIC_MONGODB_API_URL"},
	}

	for canonical, aliases := range requiredAliases {
		for _, alias := range aliases {
			found := false
			for _, a := range envAliases[canonical] {
				if a == alias {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("Missing alias %s for %s", alias, canonical)
			}
		}
	}
}

func BenchmarkLoadEnvFile(b *testing.B) {
	tmpDir := b.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	content := `KEY1=value1
KEY2=value2
KEY3=value3
`
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		loadEnvFile(envFile)
	}
}
