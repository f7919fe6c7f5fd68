package api

import (
	"encoding/json"
	"mime"
	"net/http"
)

type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

func JSONResponse(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

func JSONError(w http.ResponseWriter, status int, message string) error {
	return JSONResponse(w, status, map[string]string{
		"error": message,
	})
}

// DecodeJSON reads a JSON body into v. A missing Content-Type is read as
// JSON; any other media type is rejected.
func DecodeJSON(r *http.Request, v any) error {
	if contentType := r.Header.Get("Content-Type"); contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || mediaType != "application/json" {
			return &HTTPError{
				Code:    http.StatusUnsupportedMediaType,
				Message: "Content-Type must be application/json",
			}
		}
	}

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &HTTPError{
			Code:    http.StatusBadRequest,
			Message: "Invalid JSON payload: " + err.Error(),
		}
	}
	return nil
}
