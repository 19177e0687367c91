package tui

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MoveNotice is the pre-flight summary of a move run.
type MoveNotice struct {
	Count     int
	AgeMonths int
	FromName  string
	ToName    string
	// PageSize, when set, adds the expected number of pages.
	PageSize int
}

// Pages is the number of find/act cycles Count implies.
func (n MoveNotice) Pages() int {
	if n.PageSize <= 0 {
		return 0
	}
	return (n.Count + n.PageSize - 1) / n.PageSize
}

// RenderMoveNotice renders the boxed summary shown before issues are moved.
// Counts use English thousands separators.
func RenderMoveNotice(n MoveNotice) string {
	p := message.NewPrinter(language.English)

	var sb strings.Builder
	sb.WriteString(WarningStyle.Render(p.Sprintf("NOTICE: This operation will move %d issues.", n.Count)))
	sb.WriteString("\n\n")
	sb.WriteString(p.Sprintf("I'm ready to start moving issues older than %d months\n", n.AgeMonths))
	sb.WriteString("from project ")
	sb.WriteString(ValueStyle.Render(n.FromName))
	sb.WriteString(" to ")
	sb.WriteString(ValueStyle.Render(n.ToName))
	sb.WriteString(".")
	if pages := n.Pages(); pages > 0 {
		sb.WriteString("\n")
		sb.WriteString(MutedStyle.Render(p.Sprintf("(%d pages of up to %d)", pages, n.PageSize)))
	}
	return BoxStyle.Render(sb.String())
}
