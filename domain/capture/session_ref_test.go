package capture

import (
	"testing"
)

func TestSessionRef_DelegatesToRegistry(t *testing.T) {
	r, _, _ := newTestRegistry(16, 8)
	h, err := r.CreateMonitorSession(0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	ref := r.Ref(h)
	if ref.Handle() != h {
		t.Fatalf("handle mismatch")
	}
	if err := ref.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	f, err := ref.Frame()
	if err != nil || f.Width != 16 || f.Height != 8 {
		t.Fatalf("frame: %+v %v", f, err)
	}
	st, err := ref.Stats()
	if err != nil || st.State != StateRunning || st.Captures == 0 {
		t.Fatalf("stats: %+v %v", st, err)
	}
	if err := ref.ClearCache(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := ref.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	ref.Destroy()
	if _, err := ref.Stats(); CodeOf(err) != InvalidParameter {
		t.Fatalf("stats after destroy: %v", err)
	}
}
