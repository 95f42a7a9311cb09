package manual

import (
	"fmt"
	"regexp"
	"strings"
)

// MalformedTOCError reports a table-of-contents response that yielded no
// usable section titles, even after the corrective re-issue.
type MalformedTOCError struct {
	Reason string
}

func (e *MalformedTOCError) Error() string {
	return fmt.Sprintf("manual: malformed table of contents: %s", e.Reason)
}

// Section is one frozen entry of the parsed table of contents.
type Section struct {
	Index int    `json:"index"`
	Title string `json:"title"`
}

var (
	headerRe     = regexp.MustCompile(`^(#{1,3})\s+(.+?)\s*$`)
	listItemRe   = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+(.+?)\s*$`)
	numberingRe  = regexp.MustCompile(`^(?:\d+(?:\.\d+)*[.)]?|[IVXLCivxlc]+[.)])\s+`)
	mdEmphasisRe = regexp.MustCompile(`^[*_]+|[*_]+$`)
)

// ParseTOC extracts section titles from a markdown table of contents. H1-H3
// headers win when present; otherwise list items are used as a fallback.
// Leading numbering ("2.", "3.1", "IV.") is stripped from every title.
func ParseTOC(raw string) ([]Section, error) {
	lines := strings.Split(raw, "\n")

	var titles []string
	for _, line := range lines {
		m := headerRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if t := cleanTitle(m[2]); t != "" {
			titles = append(titles, t)
		}
	}

	if len(titles) == 0 {
		for _, line := range lines {
			m := listItemRe.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			if t := cleanTitle(m[1]); t != "" {
				titles = append(titles, t)
			}
		}
	}

	if len(titles) == 0 {
		return nil, &MalformedTOCError{Reason: "no headers or list items found"}
	}

	sections := make([]Section, 0, len(titles))
	for i, t := range titles {
		sections = append(sections, Section{Index: i, Title: t})
	}
	return sections, nil
}

func cleanTitle(t string) string {
	t = numberingRe.ReplaceAllString(t, "")
	t = mdEmphasisRe.ReplaceAllString(t, "")
	t = strings.TrimSpace(t)
	if strings.EqualFold(t, "table of contents") {
		return ""
	}
	return t
}
