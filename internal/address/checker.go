// Package address answers whether a resident's address sits inside the
// service area. The area is configured as a ZIP allow-list, optionally
// tagging each ZIP with a routing zone ("30303=north").
package address

import "strings"

// Result is the outcome of a service-area check.
type Result struct {
	Zip    string `json:"zip"`
	InArea bool   `json:"in_area"`
	Zone   string `json:"zone,omitempty"`
}

// Checker resolves ZIP codes against the configured service area.
type Checker struct {
	zones map[string]string
}

// NewChecker parses allow-list entries. An empty list means every address
// is in area, which keeps local development friction free.
func NewChecker(entries []string) *Checker {
	zones := make(map[string]string, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		zip, zone, _ := strings.Cut(e, "=")
		zones[strings.TrimSpace(zip)] = strings.TrimSpace(zone)
	}
	return &Checker{zones: zones}
}

// Check resolves one ZIP code.
func (c *Checker) Check(zip string) Result {
	zip = strings.TrimSpace(zip)
	if len(c.zones) == 0 {
		return Result{Zip: zip, InArea: zip != ""}
	}
	zone, ok := c.zones[zip]
	return Result{Zip: zip, InArea: ok, Zone: zone}
}
