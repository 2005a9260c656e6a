package httpapi

import (
	"encoding/json"
	"net/http"

	"tickcom/portal/internal/model"
)

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, msg string) {
	var res errorResponse
	res.Error.Code = code
	res.Error.Message = msg
	writeJSON(w, status, res)
}

// writeRejection reports a failed login or recheck with the reason as the code.
func writeRejection(w http.ResponseWriter, status int, res model.AuthResult) {
	writeError(w, status, string(res.Reason), res.Reason.Message())
}
