package contact

import (
	"errors"
	"net/http"
)

// Response is the JSON body of every contact endpoint reply
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Format maps a Submit outcome to a status code and body
func Format(lang Language, err error) (int, Response) {
	if err == nil {
		return http.StatusOK, Response{Success: true, Message: Localize(lang, MsgSuccess)}
	}

	var cerr *Error
	if !errors.As(err, &cerr) {
		return http.StatusInternalServerError, Response{Error: Localize(LangEN, MsgInternal)}
	}
	return cerr.Kind.Status(), Response{Error: Localize(lang, cerr.Key)}
}
