package capture

// SessionRef binds one handle to its registry so callers that drive a
// single session can pass it around as a value.
type SessionRef struct {
	r *Registry
	h Handle
}

// Ref returns a SessionRef for h. The handle is not validated until used.
func (r *Registry) Ref(h Handle) SessionRef { return SessionRef{r: r, h: h} }

func (s SessionRef) Handle() Handle { return s.h }

func (s SessionRef) Start() error { return s.r.Start(s.h) }

func (s SessionRef) Stop() error { return s.r.Stop(s.h) }

func (s SessionRef) ClearCache() error { return s.r.ClearFrameCache(s.h) }

func (s SessionRef) Frame() (*Frame, error) { return s.r.Frame(s.h) }

func (s SessionRef) Stats() (Stats, error) { return s.r.Stats(s.h) }

func (s SessionRef) SetConfig(cfg Config) error { return s.r.SetConfig(s.h, cfg) }

func (s SessionRef) Destroy() { s.r.Destroy(s.h) }
