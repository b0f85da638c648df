// internal/app/features/verify/verify.go
package verify

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/memberhub/internal/app/services/verification"
	"github.com/dalemusser/memberhub/internal/app/system/httperr"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// ServeVerify handles GET /verify?q=<token>.
//
//	200 {"kind":"active","token_kind":"email","payload":{...}}
//	404 {"kind":"not_found","token_kind":"membership_id"}
func (h *Handler) ServeVerify(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	res, err := h.Verifier.Verify(ctx, q)
	if err != nil {
		httperr.Write(w, r, h.Log, err)
		return
	}
	writeResult(w, res)
}

// ServeDelegate handles GET /verify/delegates/{id}.
func (h *Handler) ServeDelegate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	res, err := h.Verifier.VerifyDelegate(ctx, chi.URLParam(r, "id"))
	if err != nil {
		httperr.Write(w, r, h.Log, err)
		return
	}
	writeResult(w, res)
}

func writeResult(w http.ResponseWriter, res verification.Result) {
	status := http.StatusOK
	if res.Kind == verification.KindNotFound {
		status = http.StatusNotFound
	}
	httperr.JSON(w, status, res)
}
