package presenter

import (
	"errors"
	"testing"
)

type mockModel struct {
	enabled bool
	cleared int
}

func (m *mockModel) Enabled() bool     { return m.enabled }
func (m *mockModel) SetEnabled(b bool) { m.enabled = b }
func (m *mockModel) MarkCleared()      { m.cleared++ }

type mockService struct {
	started, stopped, cleared int
	startErr                  error
}

func (s *mockService) Start() error {
	if s.startErr != nil {
		return s.startErr
	}
	s.started++
	return nil
}
func (s *mockService) Stop() error       { s.stopped++; return nil }
func (s *mockService) ClearCache() error { s.cleared++; return nil }

type mockView struct {
	reset, editableCalls int
	lastEditable         bool
	status               string
}

func (v *mockView) PreviewReset()         { v.reset++ }
func (v *mockView) TargetEditable(b bool) { v.editableCalls++; v.lastEditable = b }
func (v *mockView) SetStatus(s string)    { v.status = s }

func TestCapturePresenter_EnableDisable_Idempotent(t *testing.T) {
	m := &mockModel{}
	svc := &mockService{}
	view := &mockView{}
	p := NewCapturePresenter(m, svc, view)

	p.Enable()
	if !m.Enabled() || svc.started != 1 || view.lastEditable || view.editableCalls != 1 {
		t.Fatalf("enable failed: enabled=%v started=%d editableCalls=%d lastEditable=%v", m.Enabled(), svc.started, view.editableCalls, view.lastEditable)
	}
	p.Enable()
	if svc.started != 1 {
		t.Fatalf("enable not idempotent: started=%d", svc.started)
	}

	p.Disable()
	if m.Enabled() || svc.stopped != 1 || view.reset != 1 || !view.lastEditable || view.editableCalls != 2 {
		t.Fatalf("disable failed: enabled=%v stopped=%d reset=%d editableCalls=%d lastEditable=%v", m.Enabled(), svc.stopped, view.reset, view.editableCalls, view.lastEditable)
	}
	p.Disable()
	if svc.stopped != 1 || view.reset != 1 {
		t.Fatalf("disable not idempotent: stopped=%d reset=%d", svc.stopped, view.reset)
	}
}

func TestCapturePresenter_Toggle(t *testing.T) {
	m := &mockModel{}
	svc := &mockService{}
	view := &mockView{}
	p := NewCapturePresenter(m, svc, view)
	p.Toggle()
	if !m.Enabled() || svc.started != 1 {
		t.Fatalf("toggle enable failed")
	}
	p.Toggle()
	if m.Enabled() || svc.stopped != 1 || view.reset != 1 {
		t.Fatalf("toggle disable failed")
	}
}

func TestCapturePresenter_StartFailureKeepsDisabled(t *testing.T) {
	m := &mockModel{}
	svc := &mockService{startErr: errors.New("Capture failed")}
	view := &mockView{}
	p := NewCapturePresenter(m, svc, view)
	p.Enable()
	if m.Enabled() || view.editableCalls != 0 {
		t.Fatalf("failed start must not enable: enabled=%v editableCalls=%d", m.Enabled(), view.editableCalls)
	}
	if view.status != "Start failed: Capture failed" {
		t.Fatalf("unexpected status %q", view.status)
	}
}

func TestCapturePresenter_ClearCache(t *testing.T) {
	m := &mockModel{}
	svc := &mockService{}
	view := &mockView{}
	p := NewCapturePresenter(m, svc, view)
	p.ClearCache()
	if svc.cleared != 1 || m.cleared != 1 || view.reset != 1 {
		t.Fatalf("clear cache not propagated: svc=%d model=%d reset=%d", svc.cleared, m.cleared, view.reset)
	}
}
