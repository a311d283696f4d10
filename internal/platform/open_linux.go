//go:build linux

package platform

import (
	"bytes"
	"os/exec"
	"strings"
)

// platformOpen opens the file or URL using 'xdg-open' (default application).
func platformOpen(path string) error {
	return exec.Command("xdg-open", path).Start()
}

// platformPickDirectory uses zenity or kdialog when installed.
func platformPickDirectory() (string, error) {
	var cmd *exec.Cmd
	if _, err := exec.LookPath("zenity"); err == nil {
		cmd = exec.Command("zenity", "--file-selection", "--directory")
	} else if _, err := exec.LookPath("kdialog"); err == nil {
		cmd = exec.Command("kdialog", "--getexistingdirectory")
	} else {
		return "", nil
	}

	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		// Non-zero exit means the dialog was cancelled
		if _, ok := err.(*exec.ExitError); ok {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(out.String()), nil
}
