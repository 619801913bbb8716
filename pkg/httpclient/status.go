package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/ChristopheBouriel/restoh-frontend-sub000/pkg/errors"
)

// StatusError consumes and closes the body of a non-2xx response and turns it
// into an error. The message of a RestOh {"error": {...}} envelope is kept.
func StatusError(resp *http.Response, downstream string) error {
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	message := string(body)
	var envelope struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil {
		message = envelope.Error.Message
	}

	qualified := fmt.Sprintf("%s returned %d: %s", downstream, resp.StatusCode, message)
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.NotFound(downstream, resp.Request.URL.Path)
	case resp.StatusCode == http.StatusServiceUnavailable:
		return apperrors.Unavailable(qualified)
	default:
		return fmt.Errorf("%s", qualified)
	}
}
