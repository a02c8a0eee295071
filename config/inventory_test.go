package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestReadInventory(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "one host per line",
			content: "web-01:8080\nweb-02:8080\n",
			want:    []string{"web-01:8080", "web-02:8080"},
		},
		{
			name:    "no trailing newline",
			content: "web-01:8080\nweb-02:8080",
			want:    []string{"web-01:8080", "web-02:8080"},
		},
		{
			name:    "surrounding whitespace trimmed",
			content: "  web-01:8080\t\n\tweb-02:8080  \n",
			want:    []string{"web-01:8080", "web-02:8080"},
		},
		{
			name:    "crlf line endings",
			content: "web-01:8080\r\nweb-02:8080\r\n",
			want:    []string{"web-01:8080", "web-02:8080"},
		},
		{
			name:    "blank lines and comments skipped",
			content: "# prod fleet\n\nweb-01:8080\n   \n# canary\nweb-02:8080\n",
			want:    []string{"web-01:8080", "web-02:8080"},
		},
		{
			name:    "duplicates preserved in order",
			content: "b:80\na:80\nb:80\n",
			want:    []string{"b:80", "a:80", "b:80"},
		},
		{
			name:    "empty file",
			content: "",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadInventory(writeInventory(t, tt.content))
			if err != nil {
				t.Fatalf("ReadInventory() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ReadInventory() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestReadInventory_KeepsUnpollableHosts verifies hosts are passed through
// as written; they fail at poll time, not at read time.
func TestReadInventory_KeepsUnpollableHosts(t *testing.T) {
	got, err := ReadInventory(writeInventory(t, "bad host\nweb-01:8080\n"))
	if err != nil {
		t.Fatalf("ReadInventory() error = %v", err)
	}
	if !reflect.DeepEqual(got, []string{"bad host", "web-01:8080"}) {
		t.Errorf("ReadInventory() = %q", got)
	}
}

func TestReadInventory_MissingFile(t *testing.T) {
	_, err := ReadInventory(filepath.Join(t.TempDir(), "missing.txt"))
	if err == nil {
		t.Fatal("ReadInventory() expected error, got nil")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want not-exist error", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "CLUSTERSTATS_TEST_HOST=dotenv-host:8080\nCLUSTERSTATS_TEST_PRESET=from-file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	// t.Setenv restores the original values after the test
	t.Setenv("CLUSTERSTATS_TEST_HOST", "")
	os.Unsetenv("CLUSTERSTATS_TEST_HOST")
	t.Setenv("CLUSTERSTATS_TEST_PRESET", "from-env")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}

	if got := os.Getenv("CLUSTERSTATS_TEST_HOST"); got != "dotenv-host:8080" {
		t.Errorf("CLUSTERSTATS_TEST_HOST = %q, want %q", got, "dotenv-host:8080")
	}
	if got := os.Getenv("CLUSTERSTATS_TEST_PRESET"); got != "from-env" {
		t.Errorf("CLUSTERSTATS_TEST_PRESET = %q, want existing value kept", got)
	}

	cfg, err := Parse([]byte("hosts: [\"${CLUSTERSTATS_TEST_HOST}\"]"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Hosts[0] != "dotenv-host:8080" {
		t.Errorf("Hosts[0] = %q, want value from .env", cfg.Hosts[0])
	}
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("LoadDotEnv() error = %v, want nil for missing file", err)
	}
}
