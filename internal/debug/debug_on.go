//go:build debug

// Package debug is a categorized verbose logger. It only logs in builds made
// with -tags debug; release builds compile every call away.
package debug

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Category groups debug output by subsystem.
type Category string

const (
	APP      Category = "APP"      // Orchestration, window lifecycle, wiring
	RPC      Category = "RPC"      // Queries, mutations, subscriptions
	THUMB    Category = "THUMB"    // Thumbnail availability cache and watcher
	EXPLORER Category = "EXPLORER" // Explorer view state transitions
	VAULT    Category = "VAULT"    // Key vault session transitions
	STORE    Category = "STORE"    // Settings database
	UI       Category = "UI"       // Rendering and input handling
	BACKEND  Category = "BACKEND"  // Development backend (indexing, thumbnail jobs)

	// Off unless asked for
	RPC_WIRE Category = "RPC_WIRE" // Encoded payloads
)

var (
	mu      sync.RWMutex
	enabled = map[Category]bool{
		APP: true, RPC: true, THUMB: true, EXPLORER: true,
		VAULT: true, STORE: true, UI: true, BACKEND: true,
	}

	logger *zap.SugaredLogger
)

func init() {
	l, err := zap.NewDevelopment(zap.AddCallerSkip(1))
	if err != nil {
		l = zap.NewNop()
	}
	logger = l.Sugar()

	// ORBIT_DEBUG=APP,RPC,VAULT selects categories; "all" and "none" do what they say
	env := strings.ToUpper(strings.TrimSpace(os.Getenv("ORBIT_DEBUG")))
	switch env {
	case "":
	case "ALL":
		for _, c := range []Category{APP, RPC, THUMB, EXPLORER, VAULT, STORE, UI, BACKEND, RPC_WIRE} {
			enabled[c] = true
		}
	case "NONE":
		clear(enabled)
	default:
		clear(enabled)
		EnableNamed(strings.Split(env, ","))
	}
}

// Log writes a debug line for cat when the category is on.
func Log(cat Category, format string, args ...interface{}) {
	mu.RLock()
	on := enabled[cat]
	mu.RUnlock()
	if on {
		logger.Debugw(fmt.Sprintf(format, args...), "category", string(cat))
	}
}

// SetCategories switches several categories at once.
func SetCategories(cats map[Category]bool) {
	mu.Lock()
	for cat, on := range cats {
		enabled[cat] = on
	}
	mu.Unlock()
}

// EnableNamed turns on categories given by name, as read from flags or config.
func EnableNamed(names []string) {
	mu.Lock()
	for _, n := range names {
		if n = strings.ToUpper(strings.TrimSpace(n)); n != "" {
			enabled[Category(n)] = true
		}
	}
	mu.Unlock()
}
