package storage

import "testing"

func TestNormalizeDescription(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		candidates []string
		want       string
	}{
		{name: "first non blank", candidates: []string{"  ", "Loan\t payment\n"}, want: "Loan payment"},
		{name: "prefers first", candidates: []string{"Rent", "RENT PMT 0042"}, want: "Rent"},
		{name: "all blank", candidates: []string{"", " "}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeDescription(tt.candidates...); got != tt.want {
				t.Fatalf("normalizeDescription() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeBillStatus(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":          "open",
		"Settled":   "paid",
		" PAST DUE": "overdue",
		"Scheduled": "scheduled",
		"in review": "in_review",
	}
	for in, want := range tests {
		if got := normalizeBillStatus(in); got != want {
			t.Fatalf("normalizeBillStatus(%q) = %q, want %q", in, got, want)
		}
	}
}
