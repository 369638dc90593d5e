package delivery

import (
	"regexp"
	"strings"
)

// marker matches the "(i/total)" numbering prefix the pipeline puts in front
// of every segment of a multi-part transcript.
var marker = regexp.MustCompile(`\(\d+/\d+\)`)

// Split repacks a transcript into ordered units of at most maxLen characters,
// cutting at numbering markers so a segment's label stays attached to its
// text. Fragments are packed greedily in transcript order; a fragment longer
// than maxLen is hard-sliced. Transcripts without markers fall back to plain
// fixed-size slicing.
func Split(transcript string, maxLen int) []string {
	if len(transcript) <= maxLen {
		return []string{transcript}
	}

	fragments := splitAtMarkers(transcript)
	if len(fragments) == 0 {
		return slice(transcript, maxLen)
	}

	var units []string
	current := ""
	for _, frag := range fragments {
		if len(current)+len(frag)+1 <= maxLen {
			if current != "" {
				current += " " + frag
			} else {
				current = frag
			}
			continue
		}

		if current != "" {
			units = append(units, current)
		}
		current = frag

		// A lone fragment over the limit has no marker boundary left to cut
		// at; slice it and carry the tail forward.
		if len(current) > maxLen {
			slices := slice(current, maxLen)
			units = append(units, slices[:len(slices)-1]...)
			current = slices[len(slices)-1]
		}
	}
	if current != "" {
		units = append(units, current)
	}
	return units
}

// splitAtMarkers cuts immediately before each numbering marker, keeping the
// marker with the text that follows it. Empty fragments are dropped.
func splitAtMarkers(s string) []string {
	locs := marker.FindAllStringIndex(s, -1)
	bounds := []int{0}
	for _, loc := range locs {
		if loc[0] > 0 {
			bounds = append(bounds, loc[0])
		}
	}
	bounds = append(bounds, len(s))

	var fragments []string
	for i := 0; i+1 < len(bounds); i++ {
		frag := strings.TrimSpace(s[bounds[i]:bounds[i+1]])
		if frag != "" {
			fragments = append(fragments, frag)
		}
	}
	return fragments
}

func slice(s string, maxLen int) []string {
	var out []string
	for len(s) > maxLen {
		out = append(out, s[:maxLen])
		s = s[maxLen:]
	}
	return append(out, s)
}
