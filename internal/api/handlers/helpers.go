package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pratik-mahalle/opsguard/internal/pkg/errors"
	"github.com/pratik-mahalle/opsguard/internal/pkg/utils"
	"github.com/pratik-mahalle/opsguard/internal/pkg/validator"
)

// maxBodyBytes caps inbound JSON bodies
const maxBodyBytes = 1 << 20

// decodeRequest decodes the JSON body into req and validates it, writing the error response on failure
func decodeRequest(w http.ResponseWriter, r *http.Request, val *validator.Validator, req interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return false
	}
	if errs := val.Validate(req); len(errs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", errs))
		return false
	}
	return true
}
