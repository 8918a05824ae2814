package app

import (
	"fmt"
	"time"

	tk "modernc.org/tk9.0"

	"github.com/soocke/pixel-capture-go/ui/theme"
)

// Preview runs the Tk preview window on top of a Container.
type Preview struct {
	c       *Container
	tick    time.Duration
	afterID string
}

func NewPreview(title string, c *Container) *Preview {
	a := &Preview{c: c, tick: time.Duration(c.Config.PreviewRefreshMs) * time.Millisecond}
	tk.App.WmTitle(title)
	tk.WmProtocol(tk.App, "WM_DELETE_WINDOW", a.exitHandler)
	tk.WmGeometry(tk.App, fmt.Sprintf("%dx%d+100+100", c.Config.PreviewMaxWidth+260, c.Config.PreviewMaxHeight+140))
	return a
}

// Run builds the layout and blocks until the window is closed.
func (a *Preview) Run() {
	theme.InitStyles(a.c.Config.PreviewDark)
	labels := make([]string, len(a.c.Targets))
	for i, t := range a.c.Targets {
		labels[i] = t.Label
	}
	a.c.RootView.Build(labels,
		a.c.CapturePresenter.Toggle,
		a.c.CapturePresenter.ClearCache,
		a.exitHandler,
		a.c.SelectTarget,
	)
	a.c.Loop.Schedule = a.scheduleUpdate
	a.scheduleUpdate()
	tk.App.Wait()
	a.c.CapturePresenter.Disable()
	a.c.Active.Close()
}

func (a *Preview) exitHandler() {
	if a.afterID != "" {
		tk.TclAfterCancel(a.afterID)
	}
	tk.Destroy(tk.App)
}

// scheduleUpdate uses TclAfter to stay on Tk's event loop thread.
func (a *Preview) scheduleUpdate() {
	a.afterID = tk.TclAfter(a.tick, a.c.Loop.Tick)
}
