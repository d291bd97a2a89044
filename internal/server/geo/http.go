package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var errLookupFailed = errors.New("geo lookup failed")

// HTTPResolver queries an ip-api style endpoint: GET {base}/{ip} returning
// {"status":"success","city":"...","country":"..."}.
type HTTPResolver struct {
	baseURL string
	client  *http.Client
}

func NewHTTPResolver(baseURL string, timeout time.Duration) *HTTPResolver {
	return &HTTPResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type lookupResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	City    string `json:"city"`
	Country string `json:"country"`
}

func (r *HTTPResolver) Lookup(ctx context.Context, ip string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/"+url.PathEscape(ip), nil)
	if err != nil {
		return "", err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", errLookupFailed, resp.StatusCode)
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: %v", errLookupFailed, err)
	}
	if body.Status != "" && body.Status != "success" {
		return "", fmt.Errorf("%w: %s", errLookupFailed, body.Message)
	}

	switch {
	case body.City != "" && body.Country != "":
		return body.City + ", " + body.Country, nil
	case body.Country != "":
		return body.Country, nil
	case body.City != "":
		return body.City, nil
	}
	return "", fmt.Errorf("%w: empty location", errLookupFailed)
}
