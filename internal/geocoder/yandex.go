package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/LuckyBoy34/taxi/internal/geo"
)

// YandexClient resolves free-text addresses through the Yandex
// geocoder 1.x HTTP API. Every request is scoped to the configured
// city and bounding box; a single attempt per call, no retries.
type YandexClient struct {
	baseURL    string
	apiKey     string
	city       string
	area       geo.BoundingBox
	httpClient *http.Client
	logger     *zap.Logger
}

func NewYandexClient(baseURL, apiKey, city string, area geo.BoundingBox, timeout time.Duration, logger *zap.Logger) *YandexClient {
	return &YandexClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		city:    city,
		area:    area,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type geocodeResponse struct {
	Response struct {
		GeoObjectCollection struct {
			FeatureMember []struct {
				GeoObject struct {
					Point struct {
						Pos string `json:"pos"`
					} `json:"Point"`
				} `json:"GeoObject"`
			} `json:"featureMember"`
		} `json:"GeoObjectCollection"`
	} `json:"response"`
}

// Resolve geocodes an address. The city suffix is appended before the
// lookup so users can type street-level addresses. Returns ErrNotFound
// when the geocoder has no match and ErrOutsideServiceArea when the
// first match lies outside the bounding box.
func (c *YandexClient) Resolve(ctx context.Context, address string) (geo.Point, error) {
	fullAddress := fmt.Sprintf("%s, %s", address, c.city)

	q := url.Values{}
	q.Set("geocode", fullAddress)
	q.Set("format", "json")
	q.Set("apikey", c.apiKey)
	q.Set("bbox", c.area.String())
	q.Set("lang", "ru_RU")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+q.Encode(), nil)
	if err != nil {
		return geo.Point{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return geo.Point{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return geo.Point{}, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var body geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return geo.Point{}, fmt.Errorf("decode response: %w", err)
	}

	members := body.Response.GeoObjectCollection.FeatureMember
	if len(members) == 0 {
		c.logger.Info("Address not found", zap.String("address", fullAddress))
		return geo.Point{}, ErrNotFound
	}

	point, err := parsePos(members[0].GeoObject.Point.Pos)
	if err != nil {
		return geo.Point{}, fmt.Errorf("parse position: %w", err)
	}

	if !c.area.Contains(point) {
		c.logger.Info("Address outside service area",
			zap.String("address", fullAddress),
			zap.Float64("lat", point.Lat),
			zap.Float64("lon", point.Lon))
		return geo.Point{}, ErrOutsideServiceArea
	}

	return point, nil
}

// parsePos decodes the geocoder point format: "lon lat".
func parsePos(pos string) (geo.Point, error) {
	parts := strings.Fields(pos)
	if len(parts) != 2 {
		return geo.Point{}, fmt.Errorf("malformed pos %q", pos)
	}

	lon, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("malformed longitude %q: %w", parts[0], err)
	}
	lat, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("malformed latitude %q: %w", parts[1], err)
	}

	return geo.Point{Lat: lat, Lon: lon}, nil
}
