package maps

// --- Google Maps Platform response payloads ---
// Reference: https://developers.google.com/maps/documentation/places/web-service/search-nearby

type nearbyResponse struct {
	Results []nearbyResult `json:"results"`
	Status  string         `json:"status"`
}

type nearbyResult struct {
	PlaceID  string   `json:"place_id"`
	Name     string   `json:"name"`
	Geometry geometry `json:"geometry"`
}

type geometry struct {
	Location latLng `json:"location"`
}

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type detailsResponse struct {
	Result detailsResult `json:"result"`
	Status string        `json:"status"`
}

type detailsResult struct {
	Name                 string `json:"name"`
	FormattedPhoneNumber string `json:"formatted_phone_number"`
}

type distanceResponse struct {
	Rows   []distanceRow `json:"rows"`
	Status string        `json:"status"`
}

type distanceRow struct {
	Elements []distanceElement `json:"elements"`
}

type distanceElement struct {
	Distance distanceValue `json:"distance"`
	Status   string        `json:"status"`
}

type distanceValue struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}
