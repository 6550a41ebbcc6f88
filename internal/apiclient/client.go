package apiclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"airweather-map/internal/citydata"
	"airweather-map/internal/geo"
)

// Client talks to the weather/AQI backend.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// New returns a client rooted at baseURL. A zero timeout leaves requests unbounded.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// CityDataURL returns the lookup URL for a point.
func (c *Client) CityDataURL(lat, lon float64) string {
	return c.baseURL + "/weather-aqi/" + FormatCoordinate(lat) + "/" + FormatCoordinate(lon)
}

// FetchCityData performs one GET for the point. Coordinates are validated first and no request is
// made when they are not finite or out of range.
func (c *Client) FetchCityData(ctx context.Context, lat, lon float64) (citydata.Result, error) {
	if !geo.ValidCoordinates(lat, lon) {
		return citydata.Result{}, ErrInvalidCoordinates
	}

	url := c.CityDataURL(lat, lon)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return citydata.Result{}, &Error{Kind: InvalidInput, Message: "Invalid coordinates", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return citydata.Result{}, &Error{Kind: NetworkFailure, Message: err.Error(), Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("close response body", "error", err)
		}
	}()

	c.logger.Debug("api response", "url", url, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return citydata.Result{}, &Error{
			Kind:    HTTPError,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("HTTP error! status: %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return citydata.Result{}, &Error{Kind: NetworkFailure, Status: resp.StatusCode, Message: err.Error(), Err: err}
	}

	result, err := citydata.Decode(body)
	if err != nil {
		return citydata.Result{}, &Error{
			Kind:    NetworkFailure,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("invalid response body: %v", err),
			Err:     err,
		}
	}
	if result.Error != "" {
		return citydata.Result{}, &Error{Kind: LogicalError, Status: resp.StatusCode, Message: result.Error}
	}

	return result, nil
}

// Health probes {base}/health. Any non-2xx status is an error.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("health request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return &Error{Kind: NetworkFailure, Message: err.Error(), Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("close health body", "error", err)
		}
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Kind: HTTPError, Status: resp.StatusCode, Message: "Server not responding"}
	}
	return nil
}

// FormatCoordinate renders v as the shortest decimal that round-trips: -74.0060 becomes -74.006.
func FormatCoordinate(v float64) string {
	if v == 0 {
		// drops the sign of -0
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
