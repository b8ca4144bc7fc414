package industry

import (
	"io"
	"log/slog"
	"testing"
)

func TestLookupKnownID(t *testing.T) {
	p := Lookup("finance", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if p.ID != Finance {
		t.Errorf("expected finance profile, got %q", p.ID)
	}
	if len(p.NewsKeywords) == 0 || len(p.BiddingKeywords) == 0 {
		t.Error("expected non-empty keyword sets")
	}
}

func TestLookupEmptyFallsBackToDefault(t *testing.T) {
	p := Lookup("", nil)
	if p.ID != DefaultID {
		t.Errorf("expected default profile, got %q", p.ID)
	}
}

func TestLookupUnknownFallsBackToDefault(t *testing.T) {
	p := Lookup("aerospace", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if p.ID != DefaultID {
		t.Errorf("expected default profile, got %q", p.ID)
	}
}

func TestAllStableOrder(t *testing.T) {
	first := All()
	second := All()

	if len(first) != 4 {
		t.Fatalf("expected 4 profiles, got %d", len(first))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("catalog order not stable: %v vs %v", first[i].ID, second[i].ID)
		}
	}
	if first[0].ID != SmartTransportation {
		t.Errorf("expected smart_transportation first, got %q", first[0].ID)
	}
}

func TestEveryProfileHasKeywords(t *testing.T) {
	for _, p := range All() {
		if len(p.NewsKeywords) == 0 {
			t.Errorf("profile %q has no news keywords", p.ID)
		}
		if len(p.BiddingKeywords) == 0 {
			t.Errorf("profile %q has no bidding keywords", p.ID)
		}
		if p.Name == "" {
			t.Errorf("profile %q has no name", p.ID)
		}
	}
}
