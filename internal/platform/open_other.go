//go:build !linux && !darwin && !windows

package platform

import "errors"

var errUnsupported = errors.New("platform: not supported on this OS")

func platformOpen(path string) error { return errUnsupported }

func platformPickDirectory() (string, error) { return "", nil }
