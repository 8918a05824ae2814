package view

import (
	"image"
	"log/slog"
	"strconv"
	"time"

	"github.com/soocke/pixel-capture-go/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// RootView composes the top-level preview layout and wires UI callbacks.
type RootView struct {
	logger *slog.Logger
	maxW   int
	maxH   int

	// Subviews
	Session     SessionStats
	CapturePrev CapturePreview

	// Widgets
	StatusLabel  *TLabelWidget
	TargetSelect *TComboboxWidget
}

// UI abstracts the subset of view operations needed by presenters.
type UI interface {
	SetStatus(text string)
	TargetEditable(enabled bool)
	PreviewReset()
	UpdateCapture(img image.Image)
	SetFrameInfo(text string)
	SetSession(session, total time.Duration)
	SetStats(text string)
}

var _ UI = (*RootView)(nil)

func NewRootView(logger *slog.Logger, maxW, maxH int) *RootView {
	return &RootView{logger: logger, maxW: maxW, maxH: maxH}
}

// Build constructs the layout. targets labels the capture targets offered in
// the selection dropdown; onTargetChanged receives the chosen index.
func (rv *RootView) Build(targets []string, onToggleCapture, onClearCache, onExit func(), onTargetChanged func(idx int)) {
	if rv == nil {
		return
	}
	// Rows 0-1: session stats and stats line, status label, buttons frame
	rv.Session = NewSessionStats(0, 0)
	rv.StatusLabel = TLabel(Txt("Stopped"), Style(theme.StyleStatusLabel))
	Grid(rv.StatusLabel, Row(0), Column(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))

	btnFrame := Frame()
	Grid(btnFrame, Row(0), Column(4), Rowspan(2), Sticky("ne"), Padx("0.3m"), Pady("0.3m"))
	captureBtn := TButton(Txt("Toggle Capture"), Style(theme.StylePrimaryButton), Command(onToggleCapture))
	Grid(captureBtn, In(btnFrame), Row(0), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	clearBtn := TButton(Txt("Clear Cache"), Command(onClearCache))
	Grid(clearBtn, In(btnFrame), Row(1), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	if len(targets) == 0 {
		targets = []string{"<none>"}
	}
	rv.TargetSelect = TCombobox(Values(targets), Width(30), State("readonly"))
	Grid(rv.TargetSelect, In(btnFrame), Row(2), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	rv.TargetSelect.Current(0)
	Bind(rv.TargetSelect, "<<ComboboxSelected>>", Command(func() {
		if rv.TargetSelect == nil {
			return
		}
		idx, err := strconv.Atoi(rv.TargetSelect.Current(nil))
		if err != nil || idx < 0 || idx >= len(targets) {
			if rv.logger != nil {
				rv.logger.Error("target selection parse error", "error", err)
			}
			return
		}
		onTargetChanged(idx)
	}))
	exitBtn := TButton(Txt("Exit"), Style(theme.StyleDangerButton), Command(onExit))
	Grid(exitBtn, In(btnFrame), Row(3), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))

	rv.CapturePrev = NewCapturePreview(2, rv.maxW, rv.maxH)
}

// SetStatus updates the status label text.
func (rv *RootView) SetStatus(text string) {
	if rv != nil && rv.StatusLabel != nil {
		rv.StatusLabel.Configure(Txt(text))
	}
}

// TargetEditable locks the target dropdown while a session is running.
func (rv *RootView) TargetEditable(enabled bool) {
	if rv == nil || rv.TargetSelect == nil {
		return
	}
	state := "disabled"
	if enabled {
		state = "readonly"
	}
	rv.TargetSelect.Configure(State(state))
}

// PreviewReset clears the capture preview.
func (rv *RootView) PreviewReset() {
	if rv != nil && rv.CapturePrev != nil {
		rv.CapturePrev.Reset()
	}
}

// UpdateCapture proxies to the capture preview.
func (rv *RootView) UpdateCapture(img image.Image) {
	if rv != nil && rv.CapturePrev != nil {
		rv.CapturePrev.UpdateCapture(img)
	}
}

func (rv *RootView) SetFrameInfo(text string) {
	if rv != nil && rv.CapturePrev != nil {
		rv.CapturePrev.SetFrameInfo(text)
	}
}

// SetSession updates both session and total capture durations.
func (rv *RootView) SetSession(session, total time.Duration) {
	if rv == nil || rv.Session == nil {
		return
	}
	rv.Session.SetSession(session)
	rv.Session.SetTotal(total)
}

func (rv *RootView) SetStats(text string) {
	if rv != nil && rv.Session != nil {
		rv.Session.SetStats(text)
	}
}
