// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/holomush/authengine/internal/auth"
)

// Envelope wraps every API response.
type Envelope struct {
	Code   int             `json:"code"`
	Title  string          `json:"title"`
	Detail string          `json:"detail"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Kind decodes the envelope's wire code. Unknown codes read as KindInternal.
func (e Envelope) Kind() auth.Kind {
	for k := auth.KindNone; k <= auth.KindAccountDisabled; k++ {
		if k.Status() == e.Code {
			return k
		}
	}
	return auth.KindInternal
}

// envelopeOut is the encoding side of Envelope, holding data before marshaling.
type envelopeOut struct {
	Code   int    `json:"code"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Data   any    `json:"data,omitempty"`
}

// writeEnvelope writes kind's envelope with the kind's HTTP status.
func writeEnvelope(w http.ResponseWriter, r *http.Request, kind auth.Kind, data any) {
	writeJSON(w, r, kind.HTTPStatus(), envelopeOut{
		Code:   kind.Status(),
		Title:  kind.Title(),
		Detail: kind.Detail(),
		Data:   data,
	})
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "failed to write response",
			"error", oops.With("status", statusCode).Wrap(err))
	}
}
