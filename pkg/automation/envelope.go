package automation

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// envelope is the JSON body of every response.
type envelope struct {
	Value     any     `json:"value"`
	SessionID *string `json:"sessionId"`
}

type errorValue struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(body); err != nil {
		http.Error(w, "json encode error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func writeValue(w http.ResponseWriter, sessionID string, value any) {
	writeJSON(w, http.StatusOK, envelope{Value: value, SessionID: optionalID(sessionID)})
}

func writeError(w http.ResponseWriter, sessionID string, err *Error) {
	writeJSON(w, err.Status, envelope{
		Value:     errorValue{Error: err.Code, Message: err.Message},
		SessionID: optionalID(sessionID),
	})
}

func optionalID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
