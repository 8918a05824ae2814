package presenter

// CaptureModel provides enabled state access.
type CaptureModel interface {
	Enabled() bool
	SetEnabled(bool)
	MarkCleared()
}

// SessionControl narrows what the presenter needs from a capture session.
type SessionControl interface {
	Start() error
	Stop() error
	ClearCache() error
}

// CaptureView updates UI elements affected by capture toggling.
type CaptureView interface {
	PreviewReset()
	TargetEditable(bool)
	SetStatus(string)
}

// CapturePresenter owns presentation logic for toggling capture state.
type CapturePresenter struct {
	model   CaptureModel
	service SessionControl
	view    CaptureView
}

func NewCapturePresenter(model CaptureModel, service SessionControl, view CaptureView) *CapturePresenter {
	return &CapturePresenter{model: model, service: service, view: view}
}

func (c *CapturePresenter) ready() bool {
	return c != nil && c.model != nil && c.service != nil && c.view != nil
}

// Enable starts the session. Idempotent; on failure the model stays disabled.
func (c *CapturePresenter) Enable() {
	if !c.ready() || c.model.Enabled() {
		return
	}
	if err := c.service.Start(); err != nil {
		c.view.SetStatus("Start failed: " + err.Error())
		return
	}
	c.model.SetEnabled(true)
	c.view.TargetEditable(false)
	c.view.SetStatus("Capturing")
}

// Disable stops the session and resets the preview. Idempotent.
func (c *CapturePresenter) Disable() {
	if !c.ready() || !c.model.Enabled() {
		return
	}
	if err := c.service.Stop(); err != nil {
		c.view.SetStatus("Stop failed: " + err.Error())
	} else {
		c.view.SetStatus("Stopped")
	}
	c.model.SetEnabled(false)
	c.view.PreviewReset()
	c.view.TargetEditable(true)
}

// Toggle flips enabled state delegating to Enable/Disable.
func (c *CapturePresenter) Toggle() {
	if !c.ready() {
		return
	}
	if c.model.Enabled() {
		c.Disable()
		return
	}
	c.Enable()
}

// ClearCache zeroes the session's frame buffers and blanks the preview.
func (c *CapturePresenter) ClearCache() {
	if !c.ready() {
		return
	}
	if err := c.service.ClearCache(); err != nil {
		c.view.SetStatus("Clear failed: " + err.Error())
		return
	}
	c.model.MarkCleared()
	c.view.PreviewReset()
	c.view.SetStatus("Frame cache cleared")
}
