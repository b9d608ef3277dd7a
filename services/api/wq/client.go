package wq

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/hydrolab-nz/hydro-dataset-viewer/services/api/catalog"
	"github.com/hydrolab-nz/hydro-dataset-viewer/services/api/metrics"
)

// HTTPClient interface for HTTP operations
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config locates the measurement service.
type Config struct {
	BaseURL     string
	DatasetFile string
	Timeout     time.Duration
	Breaker     BreakerSettings
}

// Client fetches water-quality samples one site at a time. It implements
// catalog.MeasurementClient.
type Client struct {
	baseURL     string
	datasetFile string
	timeout     time.Duration
	httpClient  HTTPClient
	cb          *gobreaker.CircuitBreaker[[]catalog.Observation]
	logger      *zap.Logger
}

var _ catalog.MeasurementClient = (*Client)(nil)

// NewClient creates a client. A nil httpClient uses http.Client with cfg.Timeout.
func NewClient(cfg Config, httpClient HTTPClient, logger *zap.Logger) (*Client, error) {
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid measurement service url: %w", err)
	}
	if cfg.DatasetFile == "" {
		return nil, fmt.Errorf("measurement service dataset file is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("wq")
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		datasetFile: strings.TrimLeft(cfg.DatasetFile, "/"),
		timeout:     cfg.Timeout,
		httpClient:  httpClient,
		cb:          newBreaker(cfg.Breaker, logger),
		logger:      logger,
	}, nil
}

// GetData returns the samples for one site and measurement within the
// request window, ordered as the service returns them.
func (c *Client) GetData(ctx context.Context, req catalog.DataRequest) ([]catalog.Observation, error) {
	start := time.Now()
	obs, err := c.cb.Execute(func() ([]catalog.Observation, error) {
		return c.getData(ctx, req)
	})

	outcome := "success"
	switch {
	case err == nil:
	case isRejected(err):
		outcome = "rejected"
	default:
		outcome = "failure"
	}
	metrics.WQRequestDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		c.logger.Warn("measurement request failed",
			zap.String("site", req.SiteID),
			zap.String("measurement", req.MeasurementType),
			zap.String("outcome", outcome),
			zap.Error(err))
		return nil, err
	}
	return obs, nil
}

func (c *Client) getData(ctx context.Context, req catalog.DataRequest) ([]catalog.Observation, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(req), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/xml, text/xml")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	res, err := parseGetData(resp.Body, req.SiteID, req.DetectionLimit)
	if err != nil {
		return nil, err
	}
	if res.skipped > 0 {
		c.logger.Debug("skipped non-numeric samples",
			zap.String("site", req.SiteID),
			zap.Int("skipped", res.skipped))
	}

	// The service treats To as an instant; keep the whole last day and
	// nothing outside the window.
	out := make([]catalog.Observation, 0, len(res.observations))
	from, to := req.From.Time(), req.To.EndOfDay()
	for _, o := range res.observations {
		if o.Timestamp.Before(from) || o.Timestamp.After(to) {
			continue
		}
		o.SiteID = req.SiteID
		out = append(out, o)
	}
	metrics.WQObservations.Add(float64(len(out)))
	return out, nil
}

func (c *Client) buildURL(req catalog.DataRequest) string {
	params := url.Values{}
	params.Set("Service", "Hilltop")
	params.Set("Request", "GetData")
	params.Set("Site", req.SiteID)
	params.Set("Measurement", req.MeasurementType)
	params.Set("From", req.From.String())
	params.Set("To", req.To.EndOfDay().Format(timestampLayout))
	if req.DetectionLimit != catalog.DetectionLimitNone {
		params.Set("dtl_method", string(req.DetectionLimit))
	}
	return c.baseURL + "/" + c.datasetFile + "?" + params.Encode()
}
