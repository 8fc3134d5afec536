package handler

import (
	"encoding/json"
	"net/http"

	"github.com/leadgrid/leadgrid/internal/domain"
)

// maxRequestBody caps JSON request bodies at 1MB.
const maxRequestBody = 1 << 20

// decodeJSON decodes a JSON request body into dst.
//
// Returns an EINVALID domain error on malformed input so handlers can pass
// it straight to ErrorResponse.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return domain.Invalid("", "invalid JSON request body")
	}
	return nil
}
