package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	cleanup := setEnvs(t, map[string]string{
		"WHISPER_API_URL": "",
		"HTTP_ADDR":       "",
		"LOG_LEVEL":       "",
	})
	defer cleanup()
	os.Unsetenv("WHISPER_API_URL")
	os.Unsetenv("HTTP_ADDR")
	os.Unsetenv("LOG_LEVEL")

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.APIURL != "http://sanjeev-debian-llm-vm:9000" {
			t.Errorf("APIURL = %q, want default", cfg.APIURL)
		}
		if cfg.HTTPAddr != ":10300" {
			t.Errorf("HTTPAddr = %q, want :10300", cfg.HTTPAddr)
		}
		if cfg.LogLevel != "info" {
			t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
		}
		if cfg.ReadTimeout != 0 {
			t.Errorf("ReadTimeout = %v, want 0 (audio bodies are unbounded)", cfg.ReadTimeout)
		}
		if cfg.ReadHeaderTimeout != 10*time.Second {
			t.Errorf("ReadHeaderTimeout = %v, want 10s", cfg.ReadHeaderTimeout)
		}
		if cfg.WriteTimeout != 60*time.Second {
			t.Errorf("WriteTimeout = %v, want 60s", cfg.WriteTimeout)
		}
		if cfg.AuthToken != "" {
			t.Errorf("AuthToken = %q, want empty", cfg.AuthToken)
		}
	})

	t.Run("cli_overrides_take_priority", func(t *testing.T) {
		cfg, err := Load(Overrides{
			EnvFile:  "nonexistent.env",
			HTTPAddr: ":9090",
			LogLevel: "debug",
			APIURL:   "http://override:9000",
		})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.HTTPAddr != ":9090" {
			t.Errorf("HTTPAddr = %q, want :9090", cfg.HTTPAddr)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
		}
		if cfg.APIURL != "http://override:9000" {
			t.Errorf("APIURL = %q, want override", cfg.APIURL)
		}
	})

	t.Run("env_file_read", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.env")
		if err := os.WriteFile(path, []byte("WHISPER_API_URL=http://from-file:9000\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		defer os.Unsetenv("WHISPER_API_URL")

		cfg, err := Load(Overrides{EnvFile: path})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.APIURL != "http://from-file:9000" {
			t.Errorf("APIURL = %q, want value from .env", cfg.APIURL)
		}
	})
}

func TestLoadEnvBeatsEnvFile(t *testing.T) {
	cleanup := setEnvs(t, map[string]string{"WHISPER_API_URL": "http://from-env:9000"})
	defer cleanup()

	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("WHISPER_API_URL=http://from-file:9000\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(Overrides{EnvFile: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "http://from-env:9000" {
		t.Errorf("APIURL = %q, want env value", cfg.APIURL)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	cleanup := setEnvs(t, map[string]string{"HTTP_READ_TIMEOUT": "soon"})
	defer cleanup()

	if _, err := Load(Overrides{EnvFile: "nonexistent.env"}); err == nil {
		t.Error("expected error for unparseable duration")
	}
}

// setEnvs sets environment variables and returns a cleanup function.
func setEnvs(t *testing.T, envs map[string]string) func() {
	t.Helper()
	originals := make(map[string]string)
	unset := make([]string, 0)

	for k, v := range envs {
		if orig, ok := os.LookupEnv(k); ok {
			originals[k] = orig
		} else {
			unset = append(unset, k)
		}
		os.Setenv(k, v)
	}

	return func() {
		for k, v := range originals {
			os.Setenv(k, v)
		}
		for _, k := range unset {
			os.Unsetenv(k)
		}
	}
}
