package auth

import (
	"encoding/json"
	"errors"

	"github.com/go-resty/resty/v2"
	"github.com/kottesh/amuhacks/schema"
)

// Send executes request and decodes a JSON response body into result when
// result is not nil. Every failure is returned as *schema.Error.
func Send(request *resty.Request, method, path string, result interface{}) error {
	resp, err := request.Execute(method, path)
	if err != nil {
		var apiErr *schema.Error
		if errors.As(err, &apiErr) {
			return apiErr
		}
		return schema.NewNetworkError(err)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), result); err != nil {
		return schema.NewMalformedError(resp.StatusCode(), "Unexpected response from server.", err)
	}
	return nil
}

// translateError turns a non-2xx response into *schema.Error.
func translateError(_ *resty.Client, resp *resty.Response) error {
	if !resp.IsError() {
		return nil
	}
	return schema.NewHTTPError(resp.StatusCode(), resp.Body())
}
