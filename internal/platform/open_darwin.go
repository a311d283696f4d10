//go:build darwin

package platform

import (
	"os/exec"
	"strings"
)

// platformOpen opens the file or URL using the macOS 'open' command.
func platformOpen(path string) error {
	return exec.Command("open", path).Start()
}

// platformPickDirectory shows the Finder folder chooser through AppleScript.
func platformPickDirectory() (string, error) {
	out, err := exec.Command("osascript", "-e", `POSIX path of (choose folder)`).Output()
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
