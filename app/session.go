package app

import (
	"fmt"
	"sync"

	"github.com/soocke/pixel-capture-go/domain/capture"
	"github.com/soocke/pixel-capture-go/domain/source"
)

// Target is one entry of the target dropdown.
type Target struct {
	Label  string
	Target capture.Target
}

// maxWindows bounds the window list offered next to the monitors.
const maxWindows = 64

// ListTargets returns every output of the platform followed by the visible
// top-level windows. Window enumeration is best effort.
func ListTargets(reg *capture.Registry, p *source.Platform) []Target {
	var out []Target
	for i := 0; i < p.Outputs(); i++ {
		out = append(out, Target{Label: fmt.Sprintf("Monitor %d", i), Target: capture.MonitorTarget(i)})
	}
	for _, w := range reg.EnumWindows(maxWindows) {
		if w.Title == "" {
			continue
		}
		out = append(out, Target{Label: "Window: " + w.Title, Target: capture.WindowTarget(w.Handle)})
	}
	return out
}

// activeSession is the session shown in the preview. The target can only be
// switched while the session is stopped, which the view enforces by locking
// the dropdown.
type activeSession struct {
	reg *capture.Registry
	cfg capture.Config

	mu  sync.Mutex
	ref capture.SessionRef
	ok  bool
}

func newActiveSession(reg *capture.Registry, cfg capture.Config) *activeSession {
	return &activeSession{reg: reg, cfg: cfg}
}

// Switch destroys the current session and creates one for target.
func (a *activeSession) Switch(target capture.Target) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ok {
		a.ref.Destroy()
		a.ok = false
	}
	h, err := a.reg.Create(target, a.cfg)
	if err != nil {
		return err
	}
	a.ref, a.ok = a.reg.Ref(h), true
	return nil
}

func (a *activeSession) current() (capture.SessionRef, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.ok {
		return capture.SessionRef{}, capture.ErrInvalidParameter
	}
	return a.ref, nil
}

func (a *activeSession) Start() error {
	ref, err := a.current()
	if err != nil {
		return err
	}
	return ref.Start()
}

func (a *activeSession) Stop() error {
	ref, err := a.current()
	if err != nil {
		return err
	}
	return ref.Stop()
}

func (a *activeSession) ClearCache() error {
	ref, err := a.current()
	if err != nil {
		return err
	}
	return ref.ClearCache()
}

func (a *activeSession) Frame() (*capture.Frame, error) {
	ref, err := a.current()
	if err != nil {
		return nil, err
	}
	return ref.Frame()
}

func (a *activeSession) Stats() (capture.Stats, error) {
	ref, err := a.current()
	if err != nil {
		return capture.Stats{}, err
	}
	return ref.Stats()
}

// Close destroys the current session, if any.
func (a *activeSession) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ok {
		a.ref.Destroy()
		a.ok = false
	}
}
