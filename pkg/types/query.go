package types

import (
	"fmt"
	"net/url"
	"regexp"
	"time"
)

// Defaults used when the caller leaves a parameter out.
const (
	DefaultRateName  = "EV2A"
	DefaultCircuitID = "013921103"
	DefaultCCA       = "PCE"
)

// DateLayout is the layout of QueryParameters.Date.
const DateLayout = "2006-01-02"

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// QueryParameters identifies a pricing request. Everything except Date is an
// opaque identifier that is passed to the upstream feed.
type QueryParameters struct {
	Date      string `json:"date"`
	RateName  string `json:"rateName"`
	CircuitID string `json:"representativeCircuitId"`
	CCA       string `json:"cca"`
}

// RequestError is returned for invalid caller input.
type RequestError struct {
	Field   string
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ParseQueryParameters reads the pricing parameters from q, filling defaults.
func ParseQueryParameters(q url.Values) (QueryParameters, error) {
	p := QueryParameters{
		Date:      q.Get("date"),
		RateName:  q.Get("rateName"),
		CircuitID: q.Get("representativeCircuitId"),
		CCA:       q.Get("cca"),
	}
	p.ApplyDefaults()
	if err := p.Validate(); err != nil {
		return QueryParameters{}, err
	}
	return p, nil
}

// ApplyDefaults fills any empty identifier with its default.
func (p *QueryParameters) ApplyDefaults() {
	if p.RateName == "" {
		p.RateName = DefaultRateName
	}
	if p.CircuitID == "" {
		p.CircuitID = DefaultCircuitID
	}
	if p.CCA == "" {
		p.CCA = DefaultCCA
	}
}

// Validate returns a *RequestError if the date is missing or not a real
// YYYY-MM-DD calendar date.
func (p QueryParameters) Validate() error {
	if p.Date == "" {
		return &RequestError{Field: "date", Message: "date is required and must be in YYYY-MM-DD format"}
	}
	if !dateRe.MatchString(p.Date) {
		return &RequestError{Field: "date", Message: "date must be in YYYY-MM-DD format"}
	}
	if _, err := time.Parse(DateLayout, p.Date); err != nil {
		return &RequestError{Field: "date", Message: fmt.Sprintf("%s is not a calendar date", p.Date)}
	}
	return nil
}

// Day returns the parsed date at midnight UTC.
func (p QueryParameters) Day() (time.Time, error) {
	return time.Parse(DateLayout, p.Date)
}

// CacheKey identifies the request for caching purposes.
func (p QueryParameters) CacheKey() string {
	return fmt.Sprintf("pricing_%s_%s_%s_%s", p.Date, p.RateName, p.CircuitID, p.CCA)
}
