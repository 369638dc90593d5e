package delivery

import (
	"fmt"
	"strings"
	"testing"
)

func labeled(total int, texts ...string) string {
	parts := make([]string, len(texts))
	for i, text := range texts {
		parts[i] = fmt.Sprintf("(%d/%d) %s", i+1, total, text)
	}
	return strings.Join(parts, " ")
}

func TestSplitFitsInOneUnit(t *testing.T) {
	units := Split("short transcript", 2000)
	if len(units) != 1 || units[0] != "short transcript" {
		t.Fatalf("got %q", units)
	}
}

func TestSplitKeepsMarkerBoundaries(t *testing.T) {
	transcript := labeled(3,
		strings.Repeat("a", 1500),
		strings.Repeat("b", 1500),
		strings.Repeat("c", 1500),
	)
	units := Split(transcript, 2000)
	if len(units) != 3 {
		t.Fatalf("got %d units, want 3", len(units))
	}
	for i, u := range units {
		if len(u) > 2000 {
			t.Fatalf("unit %d has %d chars", i, len(u))
		}
		want := fmt.Sprintf("(%d/3)", i+1)
		if !strings.HasPrefix(u, want) {
			t.Fatalf("unit %d starts with %q, want %q", i, u[:10], want)
		}
	}
}

func TestSplitPacksSmallFragmentsTogether(t *testing.T) {
	transcript := labeled(4,
		strings.Repeat("a", 800),
		strings.Repeat("b", 800),
		strings.Repeat("c", 800),
		strings.Repeat("d", 800),
	)
	units := Split(transcript, 2000)
	if len(units) != 2 {
		t.Fatalf("got %d units, want 2: lengths %v", len(units), lengths(units))
	}
	if !strings.HasPrefix(units[1], "(3/4)") {
		t.Fatalf("second unit should open with the third marker: %q", units[1][:12])
	}
}

func TestSplitRoundTrip(t *testing.T) {
	transcript := labeled(5,
		strings.Repeat("a", 900),
		strings.Repeat("b", 1900),
		strings.Repeat("c", 40),
		strings.Repeat("d", 1200),
		strings.Repeat("e", 700),
	)
	units := Split(transcript, 2000)
	for i, u := range units {
		if len(u) > 2000 {
			t.Fatalf("unit %d has %d chars", i, len(u))
		}
	}
	if got := strings.Join(units, " "); got != transcript {
		t.Fatalf("round trip lost content:\n got %d chars\nwant %d chars", len(got), len(transcript))
	}
}

func TestSplitHardSlicesOversizedFragment(t *testing.T) {
	huge := strings.Repeat("x", 4500)
	transcript := labeled(2, "intro", huge)
	units := Split(transcript, 2000)

	if len(units) != 4 {
		t.Fatalf("got %d units, want 4: lengths %v", len(units), lengths(units))
	}
	for i, u := range units {
		if len(u) > 2000 {
			t.Fatalf("unit %d has %d chars", i, len(u))
		}
	}
	if units[1][:2000] != "(2/2) "+huge[:1994] {
		t.Fatalf("oversized fragment not sliced in order")
	}
	// Re-joining the slices (no separator for hard cuts) must reproduce the
	// oversized fragment.
	rejoined := units[1] + units[2] + units[3]
	if rejoined != "(2/2) "+huge {
		t.Fatalf("hard slices lost content: %d chars", len(rejoined))
	}
}

func TestSplitWithoutMarkersFallsBackToSlicing(t *testing.T) {
	transcript := strings.Repeat("y", 4100)
	units := Split(transcript, 2000)
	if len(units) != 3 {
		t.Fatalf("got %d units, want 3", len(units))
	}
	if len(units[0]) != 2000 || len(units[1]) != 2000 || len(units[2]) != 100 {
		t.Fatalf("unit lengths = %v", lengths(units))
	}
}

func lengths(units []string) []int {
	out := make([]int, len(units))
	for i, u := range units {
		out[i] = len(u)
	}
	return out
}
