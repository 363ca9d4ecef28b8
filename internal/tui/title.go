package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var blockGlyphs = map[rune][]string{
	'G': {
		" ██████╗ ",
		"██╔════╝ ",
		"██║  ███╗",
		"██║   ██║",
		"╚██████╔╝",
		" ╚═════╝ ",
	},
	'I': {
		"██╗",
		"██║",
		"██║",
		"██║",
		"██║",
		"╚═╝",
	},
	'D': {
		"██████╗ ",
		"██╔══██╗",
		"██║  ██║",
		"██║  ██║",
		"██████╔╝",
		"╚═════╝ ",
	},
	'Y': {
		"██╗   ██╗",
		"╚██╗ ██╔╝",
		" ╚████╔╝ ",
		"  ╚██╔╝  ",
		"   ██║   ",
		"   ╚═╝   ",
	},
	'C': {
		" ██████╗",
		"██╔════╝",
		"██║     ",
		"██║     ",
		"╚██████╗",
		" ╚═════╝",
	},
	'L': {
		"██╗     ",
		"██║     ",
		"██║     ",
		"██║     ",
		"███████╗",
		"╚══════╝",
	},
	'E': {
		"███████╗",
		"██╔════╝",
		"█████╗  ",
		"██╔══╝  ",
		"███████╗",
		"╚══════╝",
	},
	'S': {
		"███████╗",
		"██╔════╝",
		"███████╗",
		"╚════██║",
		"███████║",
		"╚══════╝",
	},
}

var smallGlyphs = map[rune][3]string{
	'A': {"▄▀█", "█▀█", "▀ ▀"},
	'B': {"█▀▄", "█▀▄", "▀▀ "},
	'C': {"█▀▀", "█▄▄", "▀▀▀"},
	'D': {"█▀▄", "█ █", "▀▀ "},
	'E': {"█▀▀", "██▄", "▀▀▀"},
	'F': {"█▀▀", "█▀ ", "▀  "},
	'G': {"█▀▀", "█▄█", "▀▀▀"},
	'I': {"█", "█", "▀"},
	'L': {"█  ", "█▄▄", "▀▀▀"},
	'N': {"█▄ █", "█ ▀█", "▀  ▀"},
	'O': {"█▀█", "█▄█", "▀▀▀"},
	'R': {"█▀█", "█▀▄", "▀ ▀"},
	'S': {"█▀", "▄█", "▀▀"},
	'T': {"▀█▀", " █ ", " ▀ "},
	'V': {"█ █", "▀▄▀", " ▀ "},
	'Y': {"█▄█", " █ ", " ▀ "},
	' ': {" ", " ", " "},
}

// renderBlockTitle draws the home banner. Below 100 columns the second word
// is dropped.
func renderBlockTitle(width int) string {
	words := []string{"GIDDY", "CYCLES"}
	if width > 0 && width < 100 {
		words = words[:1]
	}

	rows := make([]string, 6)
	segments := make([][2]int, 0, 11)
	col := 1
	for i := range rows {
		rows[i] = " "
	}
	for w, word := range words {
		if w > 0 {
			for i := range rows {
				rows[i] += "   "
			}
			col += 3
		}
		for _, ch := range word {
			glyph := blockGlyphs[ch]
			glyphWidth := len([]rune(glyph[0]))
			for i := range rows {
				rows[i] += glyph[i]
			}
			segments = append(segments, [2]int{col, col + glyphWidth - 1})
			col += glyphWidth
		}
	}
	return renderStyledBlockTitle(rows, segments)
}

func renderStyledBlockTitle(raw []string, segments [][2]int) string {
	blue := lipgloss.NewStyle().Foreground(lipgloss.Color("#5FA8FF")).Bold(true)
	coral := lipgloss.NewStyle().Foreground(lipgloss.Color("#F47A60")).Bold(true)
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A")).Bold(true)

	rows := make([]string, 0, len(raw))
	for _, line := range raw {
		runes := []rune(line)
		var out strings.Builder
		for idx, ch := range runes {
			if ch == ' ' {
				out.WriteRune(' ')
				continue
			}
			if isStrokeRune(ch) {
				out.WriteString(blue.Render(string(ch)))
				continue
			}
			seg := segmentForIndex(idx, segments)
			fill := coral
			if seg%2 == 1 {
				fill = yellow
			}
			out.WriteString(fill.Render(string(ch)))
		}
		rows = append(rows, out.String())
	}

	return strings.Join(rows, "\n")
}

func isStrokeRune(ch rune) bool {
	switch ch {
	case '╔', '╗', '╚', '╝', '║', '═', '┌', '┐', '└', '┘', '│', '─':
		return true
	default:
		return false
	}
}

func segmentForIndex(index int, segments [][2]int) int {
	for i, s := range segments {
		if index >= s[0] && index <= s[1] {
			return i
		}
	}
	return 0
}

// renderScreenTitle draws a screen heading in the three-row font.
func renderScreenTitle(word string) string {
	raw := smallTitleRows(word)
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#87CEEB")).
		Bold(true)
	rows := make([]string, 0, len(raw))
	for _, line := range raw {
		rows = append(rows, style.Render(line))
	}
	return strings.Join(rows, "\n")
}

func smallTitleRows(word string) []string {
	parts := [3][]string{}
	for _, ch := range strings.ToUpper(word) {
		glyph, ok := smallGlyphs[ch]
		if !ok {
			continue
		}
		for i := range parts {
			parts[i] = append(parts[i], glyph[i])
		}
	}
	rows := make([]string, 3)
	for i := range rows {
		rows[i] = strings.Join(parts[i], " ")
	}
	return rows
}
