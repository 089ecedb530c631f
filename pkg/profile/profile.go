// Package profile gives the CLI a typed view of a detail record. The
// dispatcher and the extension never go through it: they pass records on
// untouched.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/hazyhaar/scoutlens/pkg/playerapi"
)

// ErrUpstream is returned for a record that carries the API's own
// {"error": "..."} marker instead of a profile.
var ErrUpstream = errors.New("upstream reported an error")

// Missing is the API's placeholder for a field it could not scrape.
const Missing = "-"

// MarketValuePoint is one entry of market_value_history. Date and Value are
// display strings as the API scraped them ("Jun 23, 2025", "35,00 mil. €").
type MarketValuePoint struct {
	Date  string `json:"date"`
	Value string `json:"value"`
	Club  string `json:"club"`
}

// Profile holds the commonly displayed fields of a detail record.
type Profile struct {
	Name               string
	Club               string
	MarketValue        string
	HighestMarketValue string
	Position           string
	Age                string
	Nationality        string
	URL                string
	MarketValueHistory []MarketValuePoint
}

type rawProfile struct {
	Error              *string            `json:"error"`
	Name               flexString         `json:"name"`
	Club               flexString         `json:"club"`
	MarketValue        flexString         `json:"market_value"`
	HighestMarketValue flexString         `json:"highest_market_value"`
	Position           flexString         `json:"position"`
	Age                flexString         `json:"age"`
	Nationality        flexString         `json:"nationality"`
	URL                flexString         `json:"url"`
	MarketValueHistory []MarketValuePoint `json:"market_value_history"`
}

// Parse decodes the fields Profile knows about and ignores the rest.
// Absent fields are reported as Missing. When the record has no highest
// market value, it is derived from the history.
func Parse(rec playerapi.DetailRecord) (*Profile, error) {
	var raw rawProfile
	if err := json.Unmarshal(rec, &raw); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if raw.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrUpstream, *raw.Error)
	}

	p := &Profile{
		Name:               raw.Name.or(Missing),
		Club:               raw.Club.or(Missing),
		MarketValue:        raw.MarketValue.or(Missing),
		HighestMarketValue: raw.HighestMarketValue.or(Missing),
		Position:           raw.Position.or(Missing),
		Age:                raw.Age.or(Missing),
		Nationality:        raw.Nationality.or(Missing),
		URL:                raw.URL.or(""),
		MarketValueHistory: raw.MarketValueHistory,
	}
	if p.HighestMarketValue == Missing {
		if v, ok := HighestMarketValue(p.MarketValueHistory); ok {
			p.HighestMarketValue = v
		}
	}
	return p, nil
}

// flexString accepts a JSON string, number or null. The API renders age as
// a string but other scrapers emit it as a number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	if i, err := n.Int64(); err == nil {
		*f = flexString(strconv.FormatInt(i, 10))
		return nil
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) or(def string) string {
	if f == "" {
		return def
	}
	return string(f)
}
