package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// ReadInventory reads a newline-delimited host list.
//
// Lines are trimmed of surrounding whitespace. Blank lines and lines starting
// with '#' are skipped. Order and duplicates are preserved. Hosts are not
// validated here; one that cannot be polled is reported as a failed query.
func ReadInventory(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open inventory file: %w", err)
	}
	defer func() { _ = f.Close() }()

	hosts, err := parseInventory(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory file %s: %w", path, err)
	}
	return hosts, nil
}

func parseInventory(r io.Reader) ([]string, error) {
	var hosts []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		h := strings.TrimSpace(scanner.Text())
		if h == "" || strings.HasPrefix(h, "#") {
			continue
		}
		hosts = append(hosts, h)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return hosts, nil
}

// LoadDotEnv loads environment variables from path if the file exists, so
// that ${VAR} references in a run file can be satisfied locally. Variables
// already set in the environment are not overridden. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
