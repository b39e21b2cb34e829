// Package healthz serves liveness and readiness probes for the debug
// endpoint.
package healthz

import "net/http"

// Handler answers probes.  Ready, when set, gates the response; a nil Ready
// always answers ok.
type Handler struct {
	Ready func() bool
}

func New() *Handler {
	return &Handler{}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Ready != nil && !h.Ready() {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("200 OK"))
}
