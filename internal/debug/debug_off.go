//go:build !debug

// Package debug is a categorized verbose logger. This is the release build,
// where every call is a no-op.
package debug

type Category string

const (
	APP      Category = "APP"
	RPC      Category = "RPC"
	THUMB    Category = "THUMB"
	EXPLORER Category = "EXPLORER"
	VAULT    Category = "VAULT"
	STORE    Category = "STORE"
	UI       Category = "UI"
	BACKEND  Category = "BACKEND"
	RPC_WIRE Category = "RPC_WIRE"
)

func Log(cat Category, format string, args ...interface{}) {}

func SetCategories(cats map[Category]bool) {}

func EnableNamed(names []string) {}
