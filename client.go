package altimetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	DefaultBaseURL = "https://openaltimetry.org/data/api/icesat2/level3a"
	DefaultProduct = "atl06"

	defaultMaxBodyBytes = 64 << 20 // 64MB.
	defaultUserAgent    = "go-altimetry"
)

// DefaultBeams are the six ICESat-2 ground tracks.
var DefaultBeams = []string{"gt1l", "gt1r", "gt2l", "gt2r", "gt3l", "gt3r"}

var (
	requests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "altimetry_requests_total",
		Help: "The total number of beam requests sent to the altimetry API",
	})
	requestFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "altimetry_request_failures_total",
		Help: "The total number of beam requests that returned an error",
	})
	pointsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "altimetry_points_total",
		Help: "The total number of elevation points received",
	})
	beamsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "altimetry_beams_skipped_total",
		Help: "The total number of beams with no data for the requested date",
	})
)

// A TrackRequest describes one pass to fetch.
type TrackRequest struct {
	Date    string // Acquisition date, compared verbatim with the response.
	BBox    BBox
	TrackID string
	Beams   []string
	Cycle   string
	Product string // Defaults to DefaultProduct.
}

// A Client fetches tracks from an OpenAltimetry compatible API.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	timeout      time.Duration
	maxBodyBytes int64
	userAgent    string
	logger       *slog.Logger
}

// A ClientOption sets an option on a Client.
type ClientOption func(*Client)

// NewClient returns a new Client for baseURL. An empty baseURL selects
// DefaultBaseURL.
func NewClient(baseURL string, options ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:      baseURL,
		maxBodyBytes: defaultMaxBodyBytes,
		userAgent:    defaultUserAgent,
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, option := range options {
		option(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout: c.timeout,
		}
	}
	return c
}

// WithHTTPClient sets the HTTP client. It takes precedence over WithTimeout.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per request timeout. Zero means no timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func WithMaxBodyBytes(maxBodyBytes int64) ClientOption {
	return func(c *Client) {
		c.maxBodyBytes = maxBodyBytes
	}
}

func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// BaseURL returns c's base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchTrack requests each beam of req in order and returns the points whose
// record date equals req.Date. Beams without a matching record or with an
// empty elevation array contribute no points. Any other failure aborts the
// whole fetch and no track is returned. An empty req.Date or req.TrackID
// returns ErrInvalidRequest without sending any request.
func (c *Client) FetchTrack(ctx context.Context, req TrackRequest) (*Track, error) {
	if req.Date == "" {
		return nil, fmt.Errorf("%w: empty date", ErrInvalidRequest)
	}
	if req.TrackID == "" {
		return nil, fmt.Errorf("%w: empty track id", ErrInvalidRequest)
	}
	if req.Product == "" {
		req.Product = DefaultProduct
	}

	track := &Track{}
	for _, beam := range req.Beams {
		points, err := c.fetchBeam(ctx, req, beam)
		if err != nil {
			requestFailures.Inc()
			return nil, fmt.Errorf("beam %s: %w", beam, err)
		}
		if points == nil {
			beamsSkipped.Inc()
			c.logger.DebugContext(ctx, "no data for beam",
				slog.String("beam", beam),
				slog.String("track", req.TrackID),
				slog.String("date", req.Date),
			)
			continue
		}
		pointsReceived.Add(float64(len(points)))
		c.logger.DebugContext(ctx, "fetched beam",
			slog.String("beam", beam),
			slog.String("track", req.TrackID),
			slog.String("date", req.Date),
			slog.Int("points", len(points)),
		)
		track.Points = append(track.Points, points...)
	}
	return track, nil
}

// fetchBeam returns the points for a single beam, or nil if the beam has no
// data for req.Date.
func (c *Client) fetchBeam(ctx context.Context, req TrackRequest, beam string) ([]Point, error) {
	body, err := c.get(ctx, trackQuery(req, beam))
	if err != nil {
		return nil, err
	}

	latLonElevs, err := decodeBeam(body, req.Date)
	if err != nil || len(latLonElevs) == 0 {
		return nil, err
	}

	points := make([]Point, 0, len(latLonElevs))
	for i, latLonElev := range latLonElevs {
		if len(latLonElev) < 3 {
			return nil, fmt.Errorf("%w: lat_lon_elev[%d] has %d elements, expected 3", ErrUnexpectedShape, i, len(latLonElev))
		}
		for j, value := range latLonElev[:3] {
			if value == nil {
				return nil, fmt.Errorf("%w: lat_lon_elev[%d][%d] is null", ErrUnexpectedShape, i, j)
			}
		}
		points = append(points, Point{
			Lat:   *latLonElev[0],
			Lon:   *latLonElev[1],
			H:     *latLonElev[2],
			Beam:  beam,
			Cycle: req.Cycle,
			Time:  req.Date,
		})
	}
	return points, nil
}

func trackQuery(req TrackRequest, beam string) url.Values {
	return url.Values{
		"product":      {req.Product},
		"startDate":    {req.Date},
		"minx":         {formatFloat(req.BBox.MinX)},
		"miny":         {formatFloat(req.BBox.MinY)},
		"maxx":         {formatFloat(req.BBox.MaxX)},
		"maxy":         {formatFloat(req.BBox.MaxY)},
		"trackId":      {req.TrackID},
		"beamName":     {beam},
		"outputFormat": {"json"},
	}
}

// get performs a GET to c's base URL with query and returns the body.
func (c *Client) get(ctx context.Context, query url.Values) ([]byte, error) {
	requests.Inc()

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	u.RawQuery = query.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status code %d from %s", ErrRequestFailed, resp.StatusCode, c.baseURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %w", ErrRequestFailed, err)
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, fmt.Errorf("%w: response body exceeds %d byte limit", ErrRequestFailed, c.maxBodyBytes)
	}
	return body, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// A dateRecord is one element of a response's data array. Keys are kept raw
// so that absent keys can be told apart from empty values.
type dateRecord struct {
	Date  string                       `json:"date"`
	Beams *[]map[string]json.RawMessage `json:"beams"`
}

// decodeBeam decodes body and returns the lat_lon_elev array of the first
// beam of the first record dated date. It returns nil if no record matches.
// Null values are kept as nil so that callers can reject them.
func decodeBeam(body []byte, date string) ([][]*float64, error) {
	var response struct {
		Data *[]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if response.Data == nil {
		return nil, fmt.Errorf("%w: missing data", ErrMalformedResponse)
	}

	for i, rawRecord := range *response.Data {
		if bytes.Equal(bytes.TrimSpace(rawRecord), []byte("null")) {
			return nil, fmt.Errorf("%w: data[%d] is null", ErrMalformedResponse, i)
		}
		var record dateRecord
		if err := json.Unmarshal(rawRecord, &record); err != nil {
			return nil, fmt.Errorf("%w: data[%d]: %w", ErrMalformedResponse, i, err)
		}
		if record.Date != date {
			continue
		}
		if record.Beams == nil {
			return nil, fmt.Errorf("%w: data[%d]: missing beams", ErrUnexpectedShape, i)
		}
		if len(*record.Beams) == 0 {
			return nil, fmt.Errorf("%w: data[%d]: empty beams", ErrUnexpectedShape, i)
		}
		rawLatLonElev, ok := (*record.Beams)[0]["lat_lon_elev"]
		if !ok {
			return nil, fmt.Errorf("%w: data[%d].beams[0]: missing lat_lon_elev", ErrUnexpectedShape, i)
		}
		var latLonElevs [][]*float64
		if err := json.Unmarshal(rawLatLonElev, &latLonElevs); err != nil {
			return nil, fmt.Errorf("%w: data[%d].beams[0].lat_lon_elev: %w", ErrMalformedResponse, i, err)
		}
		return latLonElevs, nil
	}
	return nil, nil
}
