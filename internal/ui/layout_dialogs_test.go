package ui

import (
	"testing"

	"github.com/justyntemme/orbit/internal/explorer"
	"github.com/justyntemme/orbit/internal/rpc"
)

func TestCryptoTarget(t *testing.T) {
	listing := explorer.Listing{Items: []explorer.Item{
		&explorer.Path{ID: 1, Name: "notes.txt"},
		&explorer.Path{ID: 2, Name: "photo.jpg"},
	}}
	locations := []rpc.Location{{ID: 3, Name: "Home"}, {ID: 5, Name: "Work"}}

	testCases := []struct {
		name     string
		view     explorer.Snapshot
		expected string
	}{
		{"recorded target", explorer.Snapshot{Listing: listing, LocationID: 5, ContextObjectID: 2, SelectedIndex: 0},
			`"photo.jpg" in Work`},
		{"no object recorded", explorer.Snapshot{Listing: listing, LocationID: 3, SelectedIndex: 1},
			"the selected item in Home"},
		{"unknown location", explorer.Snapshot{Listing: listing, LocationID: 9, ContextObjectID: 1},
			`"notes.txt"`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := cryptoTarget(&State{View: tc.view, Locations: locations})
			if got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}
