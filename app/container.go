package app

import (
	"log/slog"

	"github.com/soocke/pixel-capture-go/config"
	"github.com/soocke/pixel-capture-go/domain/capture"
	"github.com/soocke/pixel-capture-go/domain/source"
	"github.com/soocke/pixel-capture-go/ui/model"
	"github.com/soocke/pixel-capture-go/ui/presenter"
	"github.com/soocke/pixel-capture-go/ui/view"
)

// Container assembles models, the active session, presenters and the root view.
type Container struct {
	Config   *config.Config
	Logger   *slog.Logger
	Registry *capture.Registry
	Platform *source.Platform
	Targets  []Target

	Capture  *model.CaptureModel
	Session  *model.SessionModel
	Active   *activeSession
	RootView *view.RootView

	// Presenters
	SessionPresenter *presenter.SessionPresenter
	PreviewPresenter *presenter.PreviewPresenter
	CapturePresenter *presenter.CapturePresenter
	Loop             *presenter.Loop
}

// BuildContainer constructs all components and creates a session for the
// first target. The registry must already be initialized.
func BuildContainer(cfg *config.Config, logger *slog.Logger, reg *capture.Registry, p *source.Platform) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger, Registry: reg, Platform: p}
	c.Targets = ListTargets(reg, p)
	c.Capture = &model.CaptureModel{}
	c.Session = model.NewSessionModel()
	c.Active = newActiveSession(reg, cfg.Capture())
	if len(c.Targets) > 0 {
		if err := c.Active.Switch(c.Targets[0].Target); err != nil {
			return nil, err
		}
	}
	c.RootView = view.NewRootView(logger, cfg.PreviewMaxWidth, cfg.PreviewMaxHeight)
	c.CapturePresenter = presenter.NewCapturePresenter(c.Capture, c.Active, c.RootView)
	c.SessionPresenter = presenter.NewSessionPresenter(c.Session, c.Capture, c.Active, c.RootView)
	c.PreviewPresenter = presenter.NewPreviewPresenter(c.Capture.Enabled, c.Active, c.RootView, logger, cfg.PreviewMaxWidth, cfg.PreviewMaxHeight)
	// Loop scheduling is attached by the app once Tk is running.
	c.Loop = presenter.NewLoop(c.SessionPresenter, c.PreviewPresenter, nil)
	return c, nil
}

// SelectTarget switches the previewed session to target idx.
func (c *Container) SelectTarget(idx int) {
	if idx < 0 || idx >= len(c.Targets) {
		return
	}
	t := c.Targets[idx]
	if err := c.Active.Switch(t.Target); err != nil {
		c.Logger.Error("target switch failed", "target", t.Label, "error", err)
		c.RootView.SetStatus("Target failed: " + err.Error())
		return
	}
	c.PreviewPresenter.Reset()
	c.RootView.PreviewReset()
	c.RootView.SetStatus("Target: " + t.Label)
}
