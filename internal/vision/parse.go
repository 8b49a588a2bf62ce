package vision

import (
	"strings"
)

// ParseResponse parses a vision model response in the format
// "name | quantity | notes", one item per line.
func ParseResponse(raw string) []SuggestedItem {
	lines := strings.Split(raw, "\n")
	items := make([]SuggestedItem, 0)

	for _, line := range lines {
		if item := ParseLine(line); item != nil {
			items = append(items, *item)
		}
	}

	return items
}

// ParseLine parses a single "name | quantity | notes" line. It returns nil
// for blank lines, preamble, and lines without a pipe separator: a bare word
// is indistinguishable from chatter, so at least one | is required.
func ParseLine(line string) *SuggestedItem {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	if strings.HasPrefix(line, "Here") || strings.HasPrefix(line, "I see") || strings.HasPrefix(line, "Based on") {
		return nil
	}

	if !strings.Contains(line, "|") {
		return nil
	}

	parts := strings.Split(line, "|")
	item := SuggestedItem{Name: strings.TrimSpace(parts[0])}
	if len(parts) >= 2 {
		item.Quantity = strings.TrimSpace(parts[1])
	}
	if len(parts) >= 3 {
		item.Notes = strings.TrimSpace(parts[2])
	}

	if item.Name == "" {
		return nil
	}
	return &item
}
