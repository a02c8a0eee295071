package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunValidate_ValidConfig(t *testing.T) {
	inventory := writeFile(t, "servers.txt", "web-01:8080\nweb-02:8080\n\nweb-03:8080\n")
	configPath := writeFile(t, "run.yaml", `
inventory_file: `+inventory+`
workers: 8
timeout: 2s
retries: 1
qos: 95
hosts:
  - canary.example.com:8080
host_grids:
  - template: "{{.app}}-{{.n}}.prod.internal"
    dimensions:
      app: [web, cache]
      n: ["01", "02"]
`)

	output, _, err := executeCmd(t, "validate", "-c", configPath)
	if err != nil {
		t.Fatalf("validate command error = %v", err)
	}

	expectedPhrases := []string{
		"Config is valid!",
		"Workers:     8",
		"Timeout:     2s",
		"Retries:     1",
		"QoS:         95%",
		"3 from inventory + 1 direct + 4 from grids = 8 total",
	}

	for _, phrase := range expectedPhrases {
		if !strings.Contains(output, phrase) {
			t.Errorf("output missing %q\nGot: %s", phrase, output)
		}
	}
}

func TestRunValidate_InvalidConfig(t *testing.T) {
	configPath := writeFile(t, "invalid.yaml", `
hosts:
  - web-01:8080
workers: 0
qos: 101
`)

	_, _, err := executeCmd(t, "validate", "-c", configPath)
	if err == nil {
		t.Fatal("validate command expected error for invalid config, got nil")
	}
	if code := exitCode(err); code != exitInvalid {
		t.Errorf("exit code = %d, want %d", code, exitInvalid)
	}
	if !strings.Contains(err.Error(), "qos must be at most 100") {
		t.Errorf("error should mention the qos bound, got: %v", err)
	}
}

func TestRunValidate_NoHostSource(t *testing.T) {
	configPath := writeFile(t, "empty.yaml", "workers: 2\n")

	_, _, err := executeCmd(t, "validate", "-c", configPath)
	if err == nil {
		t.Fatal("validate command expected error without hosts, got nil")
	}
	if !strings.Contains(err.Error(), "at least one of inventory_file, hosts or host_grids") {
		t.Errorf("error = %v", err)
	}
}

func TestRunValidate_MissingInventory(t *testing.T) {
	configPath := writeFile(t, "run.yaml", "inventory_file: "+filepath.Join(t.TempDir(), "missing.txt")+"\n")

	_, _, err := executeCmd(t, "validate", "-c", configPath)
	if err == nil {
		t.Fatal("validate command expected error for missing inventory, got nil")
	}
	if !strings.Contains(err.Error(), "failed to open inventory file") {
		t.Errorf("error = %v", err)
	}
}

func TestRunValidate_MissingFile(t *testing.T) {
	_, _, err := executeCmd(t, "validate", "-c", "/nonexistent/path/run.yaml")
	if err == nil {
		t.Fatal("validate command expected error for missing file, got nil")
	}

	if !strings.Contains(err.Error(), "failed to read") {
		t.Errorf("error should mention 'failed to read', got: %v", err)
	}
}

func TestRunValidate_EnvFile(t *testing.T) {
	envPath := writeFile(t, ".env", "CLUSTERSTATS_VALIDATE_HOST=from-dotenv:8080\n")
	configPath := writeFile(t, "run.yaml", "hosts:\n  - ${CLUSTERSTATS_VALIDATE_HOST}\n")
	t.Setenv("CLUSTERSTATS_VALIDATE_HOST", "")
	os.Unsetenv("CLUSTERSTATS_VALIDATE_HOST")

	output, _, err := executeCmd(t, "validate", "-c", configPath, "--env-file", envPath)
	if err != nil {
		t.Fatalf("validate command error = %v", err)
	}
	if !strings.Contains(output, "1 direct") {
		t.Errorf("output = %q", output)
	}
}
