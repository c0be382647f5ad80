package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/AbrarAhmad001/antigravity-budget/pkg/logger"
)

// traceHeader carries the trace ID between the view server and the
// extraction backend so one capture round can be followed across both logs.
const traceHeader = "X-Trace-ID"

func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(traceHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := logger.With(r.Context(), "trace_id", traceID)
		w.Header().Set(traceHeader, traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
