package storage

import "strings"

func normalizeText(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	// Collapse any repeated whitespace (spaces/tabs/newlines) to a single space.
	return strings.Join(strings.Fields(trimmed), " ")
}

// normalizeDescription picks the first non-blank of the candidates, with
// whitespace collapsed. Backends send either a cleaned description or only
// the raw bank text.
func normalizeDescription(candidates ...string) string {
	for _, c := range candidates {
		if v := normalizeText(c); v != "" {
			return v
		}
	}
	return ""
}

// normalizeBillStatus lowercases the status and maps the spellings seen from
// billers onto the ones shown in the UI.
func normalizeBillStatus(status string) string {
	s := strings.ToLower(normalizeText(status))
	switch s {
	case "":
		return "open"
	case "settled", "complete", "completed":
		return "paid"
	case "past_due", "past due":
		return "overdue"
	default:
		return strings.ReplaceAll(s, " ", "_")
	}
}
