package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fenilmodi00/stock-api/models"
	"github.com/fenilmodi00/stock-api/shared"
	"github.com/sirupsen/logrus"
)

// Upstream resource paths under the FMP stable API
const (
	ResourceBiggestGainers = "biggest-gainers"
	ResourceBiggestLosers  = "biggest-losers"
	ResourceArticles       = "fmp-articles"
)

const (
	fmpServiceName  = "FMPClient"
	maxResponseSize = 10 << 20
	errorBodyPrefix = 256
)

// FMPClient fetches JSON collections from Financial Modeling Prep
type FMPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewFMPClient creates a client for baseURL authenticating with apiKey.
// The http.Client timeout bounds every fetch.
func NewFMPClient(baseURL, apiKey string, httpClient *http.Client) *FMPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &FMPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// ResourceURL builds the full request URL for resource with the API key attached
func (c *FMPClient) ResourceURL(resource string, query url.Values) (string, error) {
	u, err := url.Parse(c.baseURL + "/" + strings.TrimLeft(resource, "/"))
	if err != nil {
		return "", shared.NewServiceError(shared.ErrorCategoryConfiguration, "INVALID_BASE_URL",
			"cannot build upstream URL", fmpServiceName, "ResourceURL", false, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", shared.NewServiceError(shared.ErrorCategoryConfiguration, "INVALID_BASE_URL",
			fmt.Sprintf("upstream base URL %q is not absolute", c.baseURL), fmpServiceName, "ResourceURL", false, nil)
	}

	params := url.Values{}
	for key, values := range query {
		params[key] = append([]string(nil), values...)
	}
	params.Set("apikey", c.apiKey)
	u.RawQuery = params.Encode()

	return u.String(), nil
}

// FetchCollection GETs rawURL and decodes the body as a JSON array.
// Any transport error, non-200 status or non-array body is returned as an upstream error.
func (c *FMPClient) FetchCollection(ctx context.Context, rawURL string) (models.Collection, error) {
	logger := logrus.WithFields(logrus.Fields{
		"component": fmpServiceName,
		"url":       redactAPIKey(rawURL),
	})

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryConfiguration, "INVALID_REQUEST",
			"cannot create upstream request", fmpServiceName, "FetchCollection", false, err)
	}
	request.Header.Set("Accept", "application/json")

	startTime := time.Now()
	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, shared.WrapError(scrubURLError(err), shared.ErrorCategoryUpstream, "NETWORK_ERROR", fmpServiceName, "FetchCollection", true)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseSize))
	if err != nil {
		return nil, shared.WrapError(err, shared.ErrorCategoryUpstream, "READ_ERROR", fmpServiceName, "FetchCollection", true)
	}

	logger.WithFields(logrus.Fields{
		"status_code": response.StatusCode,
		"bytes":       len(body),
		"duration":    time.Since(startTime),
	}).Debug("Upstream request completed")

	if response.StatusCode != http.StatusOK {
		return nil, shared.NewServiceError(shared.ErrorCategoryUpstream, fmt.Sprintf("HTTP_%d", response.StatusCode),
			fmt.Sprintf("upstream returned %s", response.Status), fmpServiceName, "FetchCollection",
			response.StatusCode >= 500 || response.StatusCode == http.StatusTooManyRequests, nil).
			WithDetails(truncateBody(body))
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, shared.NewServiceError(shared.ErrorCategoryUpstream, "MALFORMED_BODY",
			"upstream body is not a JSON array", fmpServiceName, "FetchCollection", false, nil).
			WithDetails(truncateBody(body))
	}

	var records models.Collection
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryUpstream, "MALFORMED_BODY",
			"upstream body is not valid JSON", fmpServiceName, "FetchCollection", false, err)
	}
	if records == nil {
		records = models.Collection{}
	}

	return records, nil
}

// scrubURLError drops the request URL from transport errors so the key never reaches the logs
func scrubURLError(err error) error {
	if urlErr, ok := err.(*url.Error); ok {
		return fmt.Errorf("%s %s: %w", urlErr.Op, redactAPIKey(urlErr.URL), urlErr.Err)
	}
	return err
}

func redactAPIKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	query := u.Query()
	if query.Has("apikey") {
		query.Set("apikey", "REDACTED")
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func truncateBody(body []byte) string {
	if len(body) > errorBodyPrefix {
		return string(body[:errorBodyPrefix]) + "..."
	}
	return string(body)
}
