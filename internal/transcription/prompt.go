package transcription

import "fmt"

// Position of a segment within its source recording.
type Position int

const (
	PositionOnly Position = iota
	PositionFirst
	PositionMiddle
	PositionLast
)

func (p Position) String() string {
	switch p {
	case PositionOnly:
		return "only"
	case PositionFirst:
		return "first"
	case PositionMiddle:
		return "middle"
	case PositionLast:
		return "last"
	}
	return "unknown"
}

// PositionFor derives the position from a 0-based index and the total count.
func PositionFor(index, total int) Position {
	switch {
	case total == 1:
		return PositionOnly
	case index == 0:
		return PositionFirst
	case index == total-1:
		return PositionLast
	default:
		return PositionMiddle
	}
}

// BuildPrompt produces the instruction sent along with one audio segment.
// The model never hears prior segments, so middle and last prompts embed the
// accumulated transcript verbatim to keep the narration continuous.
func BuildPrompt(pos Position, index, total int, context string) string {
	number := index + 1

	switch pos {
	case PositionOnly:
		return "Give a thorough description of the audio."

	case PositionFirst:
		return fmt.Sprintf(
			"Give a thorough description of the chunked audio. "+
				"You are currently listening to part %d/%d "+
				"meaning it will abruptly end and may lack some context. "+
				"The rest of the audio will be described in a later API request "+
				"and concatenated to this response.",
			number, total)

	case PositionLast:
		if total == 2 {
			return fmt.Sprintf(
				"Give a thorough description of the chunked audio. "+
					"You are currently listening to the final chunk meaning it will "+
					"abruptly start and may lack some context. "+
					"Continue from where the previous request left off and note that "+
					"certain basic details (like initial audio quality) have already "+
					"been described. Full context: %s",
				context)
		}
		return fmt.Sprintf(
			"Give a thorough description of the chunked audio. "+
				"You are currently listening to the final chunk "+
				"(part %d/%d) meaning it will abruptly "+
				"start and may lack some context. Continue from where the previous "+
				"request left off and note that certain basic details have already "+
				"been described. Full context: %s",
			number, total, context)

	default: // PositionMiddle
		return fmt.Sprintf(
			"Give a thorough description of the chunked audio. "+
				"You are currently listening to part %d/%d "+
				"meaning it will abruptly start/end and may lack some context. "+
				"Continue from where the previous request left off and note that "+
				"certain basic details have already been described. "+
				"Full context: %s",
			number, total, context)
	}
}
