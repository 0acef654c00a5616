// Package release detects the OS release of the host machine.
package release

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

const osReleasePath = "/etc/os-release"

// Detect returns the host's release identifier (the VERSION_ID field of
// /etc/os-release, e.g. "24.04").
func Detect() (string, error) {
	return detectFromFile(osReleasePath)
}

// detectFromFile parses an os-release style key=value file and returns
// the VERSION_ID value with surrounding quotes stripped.
func detectFromFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		value, found := strings.CutPrefix(line, "VERSION_ID=")
		if !found {
			continue
		}
		value = strings.Trim(value, `"'`)
		if value == "" {
			return "", fmt.Errorf("empty VERSION_ID in %s", path)
		}
		return value, nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	return "", fmt.Errorf("no VERSION_ID found in %s", path)
}
