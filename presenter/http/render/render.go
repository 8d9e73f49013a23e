package render

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/omni/interchain-tracker/logging"
)

type errorResult struct {
	Error string `json:"error"`
}

func JSON(w http.ResponseWriter, r *http.Request, status int, res interface{}) {
	enc := json.NewEncoder(w)

	if pretty, _ := strconv.ParseBool(r.URL.Query().Get("pretty")); pretty {
		enc.SetIndent("", "  ")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := enc.Encode(res); err != nil {
		logging.LoggerFromContext(r.Context()).WithError(err).Error("failed to marshal JSON result")
	}
}

func Error(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.LoggerFromContext(r.Context())
	logger.WithError(err).Error("request handling failed")
	JSON(w, r, http.StatusInternalServerError, errorResult{err.Error()})
}

func NotFound(w http.ResponseWriter, r *http.Request, msg string) {
	JSON(w, r, http.StatusNotFound, errorResult{msg})
}

func BadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	JSON(w, r, http.StatusBadRequest, errorResult{msg})
}
