package config

import (
	"os"
	"testing"
)

// TestConfigSources covers where secrets and settings may come from.
func TestConfigSources(t *testing.T) {
	t.Run("secret from environment", func(t *testing.T) {
		os.Setenv("SM_HMAC_SECRET", "0123456789abcdef0123456789abcdef:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")
		defer os.Unsetenv("SM_HMAC_SECRET")

		secrets, err := HMACSecrets()
		if err != nil {
			t.Fatalf("HMACSecrets error: %v", err)
		}
		if len(secrets) == 0 {
			t.Fatal("No secrets loaded")
		}
		if _, ok := secrets["0123456789abcdef0123456789abcdef"]; !ok {
			t.Fatal("Secret not accessible")
		}
	})

	t.Run("secret in config file rejected", func(t *testing.T) {
		// Create temp config file with secret
		tmpfile, err := os.CreateTemp("", "config-*.yaml")
		if err != nil {
			t.Fatal(err)
		}
		defer os.Remove(tmpfile.Name())

		configContent := `repair_api:
  host: "localhost"
  port: 8080
  hmac_secret: "should_be_rejected"
`
		if _, err := tmpfile.Write([]byte(configContent)); err != nil {
			t.Fatal(err)
		}
		tmpfile.Close()

		_, err = LoadConfig(tmpfile.Name())
		if err == nil {
			t.Fatal("Expected error for secret in config file")
		}
		if err.Error() != "HMAC secrets not allowed in config files (use SM_HMAC_SECRET environment variable)" {
			t.Fatalf("Wrong error message: %v", err)
		}
	})

	t.Run("environment overrides config file", func(t *testing.T) {
		// Set environment variable
		os.Setenv("SM_REPAIR_API_PORT", "8080")
		defer os.Unsetenv("SM_REPAIR_API_PORT")

		cfg, err := LoadConfig("")
		if err != nil {
			t.Fatalf("LoadConfig error: %v", err)
		}
		if cfg.RepairAPI.Port != 8080 {
			t.Fatalf("Expected port 8080, got %d", cfg.RepairAPI.Port)
		}

		// Now test that config file is overridden by environment
		tmpfile, err := os.CreateTemp("", "config-*.yaml")
		if err != nil {
			t.Fatal(err)
		}
		defer os.Remove(tmpfile.Name())

		configContent := `repair_api:
  port: 9090
`
		if _, err := tmpfile.Write([]byte(configContent)); err != nil {
			t.Fatal(err)
		}
		tmpfile.Close()

		cfg, err = LoadConfig(tmpfile.Name())
		if err != nil {
			t.Fatalf("LoadConfig error: %v", err)
		}
		// Environment variable (8080) should override config file (9090)
		if cfg.RepairAPI.Port != 8080 {
			t.Fatalf("Environment should override config file. Expected 8080, got %d", cfg.RepairAPI.Port)
		}
	})

	t.Run("repair settings from config file", func(t *testing.T) {
		tmpfile, err := os.CreateTemp("", "config-*.yaml")
		if err != nil {
			t.Fatal(err)
		}
		defer os.Remove(tmpfile.Name())

		configContent := `repair:
  workers: 2
  on_error: "null"
  strict_cast: true
`
		if _, err := tmpfile.Write([]byte(configContent)); err != nil {
			t.Fatal(err)
		}
		tmpfile.Close()

		cfg, err := LoadConfig(tmpfile.Name())
		if err != nil {
			t.Fatalf("LoadConfig error: %v", err)
		}
		if cfg.Repair.Workers != 2 || !cfg.Repair.StrictCast || cfg.Repair.OnError != "null" {
			t.Errorf("unexpected repair config: %+v", cfg.Repair)
		}
	})
}
