package view

import (
	"fmt"
	"time"

	"github.com/soocke/pixel-capture-go/ui/theme"

	//lint:ignore ST1001 Dot import for concise Tk widget DSL.
	. "modernc.org/tk9.0"
)

// SessionStats shows session and total capture durations plus a stats line.
type SessionStats interface {
	SetSession(d time.Duration)
	SetTotal(d time.Duration)
	SetStats(text string)
}

type sessionStats struct {
	sessionLbl *LabelWidget
	totalLbl   *LabelWidget
	statsLbl   *TLabelWidget
}

// NewSessionStats places the session and total labels at (row, startCol) and
// (row, startCol+1) and the stats line across the next row.
func NewSessionStats(row, startCol int) SessionStats {
	s := &sessionStats{
		sessionLbl: Label(Width(14)),
		totalLbl:   Label(Width(14)),
		statsLbl:   TLabel(Style(theme.StyleStatsLabel), Anchor("w")),
	}
	Grid(s.sessionLbl, Row(row), Column(startCol), Sticky("w"), Padx("0.2m"))
	Grid(s.totalLbl, Row(row), Column(startCol+1), Sticky("w"), Padx("0.2m"))
	Grid(s.statsLbl, Row(row+1), Column(startCol), Columnspan(5), Sticky("we"), Padx("0.4m"))
	s.sessionLbl.Configure(Txt("Session: 00:00"))
	s.totalLbl.Configure(Txt("Total: 00:00"))
	s.statsLbl.Configure(Txt("-"))
	return s
}

func formatMinSec(prefix string, d time.Duration) string {
	seconds := int(d.Seconds())
	return fmt.Sprintf("%s: %02d:%02d", prefix, seconds/60, seconds%60)
}

// SetSession updates the session duration display.
func (s *sessionStats) SetSession(d time.Duration) {
	if s == nil || s.sessionLbl == nil {
		return
	}
	s.sessionLbl.Configure(Txt(formatMinSec("Session", d)))
}

// SetTotal updates the total duration display.
func (s *sessionStats) SetTotal(d time.Duration) {
	if s == nil || s.totalLbl == nil {
		return
	}
	s.totalLbl.Configure(Txt(formatMinSec("Total", d)))
}

func (s *sessionStats) SetStats(text string) {
	if s == nil || s.statsLbl == nil {
		return
	}
	s.statsLbl.Configure(Txt(text))
}
