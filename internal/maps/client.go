package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api"

// ErrNoPharmacy is returned when the nearby search finds nothing within
// the search radius.
var ErrNoPharmacy = errors.New("no pharmacy nearby")

const (
	searchRadiusMeters = 1000
	phonePlaceholder   = "電話不詳"
	unknownName        = "藥局名稱未知"
)

// Pharmacy is the composed nearest-pharmacy result.
type Pharmacy struct {
	Name     string
	Phone    string
	Distance string
	MapURL   string
	Lat      float64
	Lng      float64
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// FindNearestPharmacy chains the three Places calls: nearby search,
// place details, distance matrix. The calls are data-dependent and run
// sequentially; only the first nearby result is considered.
func (c *Client) FindNearestPharmacy(ctx context.Context, lat, lng float64) (*Pharmacy, error) {
	place, err := c.nearbySearch(ctx, lat, lng)
	if err != nil {
		return nil, err
	}

	phone, err := c.placeDetails(ctx, place.PlaceID)
	if err != nil {
		return nil, err
	}

	distance, err := c.distanceText(ctx, lat, lng, place.Geometry.Location.Lat, place.Geometry.Location.Lng)
	if err != nil {
		return nil, err
	}

	name := place.Name
	if name == "" {
		name = unknownName
	}

	return &Pharmacy{
		Name:     name,
		Phone:    phone,
		Distance: distance,
		MapURL: fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%v,%v",
			place.Geometry.Location.Lat, place.Geometry.Location.Lng),
		Lat: place.Geometry.Location.Lat,
		Lng: place.Geometry.Location.Lng,
	}, nil
}

func (c *Client) nearbySearch(ctx context.Context, lat, lng float64) (*nearbyResult, error) {
	q := url.Values{}
	q.Set("location", fmt.Sprintf("%v,%v", lat, lng))
	q.Set("radius", fmt.Sprintf("%d", searchRadiusMeters))
	q.Set("type", "pharmacy")
	q.Set("key", c.apiKey)

	var result nearbyResponse
	if err := c.get(ctx, "/place/nearbysearch/json", q, &result); err != nil {
		return nil, fmt.Errorf("nearby search: %w", err)
	}
	if len(result.Results) == 0 {
		return nil, ErrNoPharmacy
	}
	return &result.Results[0], nil
}

func (c *Client) placeDetails(ctx context.Context, placeID string) (string, error) {
	q := url.Values{}
	q.Set("place_id", placeID)
	q.Set("fields", "name,formatted_phone_number")
	q.Set("key", c.apiKey)

	var result detailsResponse
	if err := c.get(ctx, "/place/details/json", q, &result); err != nil {
		return "", fmt.Errorf("place details: %w", err)
	}
	if result.Result.FormattedPhoneNumber == "" {
		return phonePlaceholder, nil
	}
	return result.Result.FormattedPhoneNumber, nil
}

func (c *Client) distanceText(ctx context.Context, fromLat, fromLng, toLat, toLng float64) (string, error) {
	q := url.Values{}
	q.Set("origins", fmt.Sprintf("%v,%v", fromLat, fromLng))
	q.Set("destinations", fmt.Sprintf("%v,%v", toLat, toLng))
	q.Set("key", c.apiKey)

	var result distanceResponse
	if err := c.get(ctx, "/distancematrix/json", q, &result); err != nil {
		return "", fmt.Errorf("distance matrix: %w", err)
	}
	if len(result.Rows) == 0 || len(result.Rows[0].Elements) == 0 {
		return "", fmt.Errorf("distance matrix: empty rows")
	}
	return result.Rows[0].Elements[0].Distance.Text, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
