package streamx

import "strings"

const (
	thinkingOpen  = "<thinking>"
	thinkingClose = "</thinking>"
)

// ThinkingSplitter separates inline <thinking>...</thinking> segments from
// user-visible text across arbitrary delta boundaries. Tags never leak into
// either output: a delta ending in a partial tag is held back until enough
// input arrives to classify it.
type ThinkingSplitter struct {
	inThinking bool
	carry      string
}

// Split consumes one text delta and returns the visible-text and reasoning
// portions it completes. Either return value may be empty.
func (s *ThinkingSplitter) Split(delta string) (text, reasoning string) {
	buf := s.carry + delta
	s.carry = ""

	var textB, reasonB strings.Builder
	for buf != "" {
		tag := thinkingOpen
		if s.inThinking {
			tag = thinkingClose
		}

		if i := strings.Index(buf, tag); i >= 0 {
			if s.inThinking {
				reasonB.WriteString(buf[:i])
			} else {
				textB.WriteString(buf[:i])
			}
			buf = buf[i+len(tag):]
			s.inThinking = !s.inThinking
			continue
		}

		hold := partialTagSuffix(buf, tag)
		emit := buf[:len(buf)-len(hold)]
		if s.inThinking {
			reasonB.WriteString(emit)
		} else {
			textB.WriteString(emit)
		}
		s.carry = hold
		break
	}

	return textB.String(), reasonB.String()
}

// Flush releases any held-back partial tag at end of stream. An unclosed
// partial tag is emitted to whichever side the splitter was in.
func (s *ThinkingSplitter) Flush() (text, reasoning string) {
	carry := s.carry
	s.carry = ""
	if carry == "" {
		return "", ""
	}
	if s.inThinking {
		return "", carry
	}
	return carry, ""
}

// partialTagSuffix returns the longest suffix of buf that is a strict
// prefix of tag, i.e. the piece that might become a tag once more input
// arrives.
func partialTagSuffix(buf, tag string) string {
	max := len(tag) - 1
	if max > len(buf) {
		max = len(buf)
	}
	for n := max; n > 0; n-- {
		if strings.HasSuffix(buf, tag[:n]) {
			return buf[len(buf)-n:]
		}
	}
	return ""
}
