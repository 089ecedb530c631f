package playerapi

import (
	"encoding/json"
)

// Candidate is one entry of a search result list, pending disambiguation.
type Candidate struct {
	Name     string `json:"name"`
	Club     string `json:"club"`
	Locator  string `json:"url"`
	ImageURL string `json:"image_url"`

	// Extra holds attributes the resolver never interprets. They are kept so
	// that a LIST envelope hands the presentation layer everything the API sent.
	Extra map[string]json.RawMessage `json:"-"`
}

var candidateKeys = []string{"name", "club", "url", "image_url"}

// UnmarshalJSON decodes the known fields and keeps the rest in Extra.
func (c *Candidate) UnmarshalJSON(data []byte) error {
	type plain Candidate
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range candidateKeys {
		delete(raw, k)
	}
	if len(raw) > 0 {
		p.Extra = raw
	}
	*c = Candidate(p)
	return nil
}

// MarshalJSON emits the known fields plus Extra. Known fields win on key clashes.
func (c Candidate) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Extra)+len(candidateKeys))
	for k, v := range c.Extra {
		out[k] = v
	}
	out["name"] = c.Name
	out["club"] = c.Club
	out["url"] = c.Locator
	out["image_url"] = c.ImageURL
	return json.Marshal(out)
}

// DetailRecord is the full profile returned for one locator. It is always a
// JSON object; its fields are the presentation layer's business.
type DetailRecord json.RawMessage

// MarshalJSON returns the record verbatim.
func (d DetailRecord) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

// UnmarshalJSON stores a copy of data.
func (d *DetailRecord) UnmarshalJSON(data []byte) error {
	*d = append((*d)[0:0], data...)
	return nil
}
