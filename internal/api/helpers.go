package api

import (
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"
)

func writeJSON(c *echo.Context, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return writeError(c, http.StatusInternalServerError, "server_error", "encode response: "+err.Error(), "")
	}
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	w.WriteHeader(status)
	_, err = w.Write(body)
	return err
}

func writeBadRequest(c *echo.Context, msg, param string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, param)
}

// writeError cannot go through writeJSON: an encoding failure there would
// recurse.
func writeError(c *echo.Context, status int, errType, msg, param string) error {
	body, err := json.Marshal(ErrorResponse{Error: ErrorBody{Message: msg, Type: errType, Param: param}})
	if err != nil {
		return err
	}
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	w.WriteHeader(status)
	_, err = w.Write(body)
	return err
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}
