package ids

import (
	"strings"
	"testing"
)

func TestFixtureIDRoundTrip(t *testing.T) {
	id := FixtureID("FURNACE", 12, 40, -9)
	kind, x, y, z, ok := ParseFixtureID(id)
	if !ok {
		t.Fatalf("ParseFixtureID failed for %q", id)
	}
	if kind != "FURNACE" || x != 12 || y != 40 || z != -9 {
		t.Fatalf("unexpected parse result: kind=%q x=%d y=%d z=%d", kind, x, y, z)
	}
}

func TestParseFixtureIDRejectsInvalid(t *testing.T) {
	tests := []string{
		"",
		"FURNACE",
		"@1,2,3",
		"FURNACE@1,2",
		"FURNACE@1,2,x",
	}
	for _, tc := range tests {
		if _, _, _, _, ok := ParseFixtureID(tc); ok {
			t.Fatalf("expected parse failure for %q", tc)
		}
	}
}

func TestResumeTokenCarriesWorld(t *testing.T) {
	tok := ResumeToken("MINE_L1")
	world, ok := ResumeTokenWorld(tok)
	if !ok || world != "MINE_L1" {
		t.Fatalf("world=%q ok=%v token=%q", world, ok, tok)
	}
	if tok == ResumeToken("MINE_L1") {
		t.Fatalf("tokens must be unique")
	}
	for _, bad := range []string{"", "resume_", "resume_OVERWORLD_notauuid", "token_OVERWORLD_x"} {
		if _, ok := ResumeTokenWorld(bad); ok {
			t.Fatalf("expected rejection for %q", bad)
		}
	}
}

func TestParticipantIDShape(t *testing.T) {
	id := ParticipantID()
	if len(id) != 13 || !strings.HasPrefix(id, "P") {
		t.Fatalf("unexpected id %q", id)
	}
}
