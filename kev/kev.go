package kev

import (
	"encoding/json"
	"log"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/xerrors"

	"github.com/exaybachay-ak/CISA-KEV-Notifications/utils"
)

const (
	kevURL = "https://www.cisa.gov/sites/default/files/feeds/known_exploited_vulnerabilities.json"
	retry  = 5
)

type Fetcher struct {
	url   string
	retry int
}

type option func(*Fetcher)

func WithURL(url string) option {
	return func(f *Fetcher) { f.url = url }
}

func WithRetry(retry int) option {
	return func(f *Fetcher) { f.retry = retry }
}

func NewFetcher(opts ...option) Fetcher {
	f := Fetcher{
		url:   kevURL,
		retry: retry,
	}

	for _, opt := range opts {
		opt(&f)
	}

	return f
}

// Fetch downloads the Known Exploited Vulnerabilities Catalog and
// normalizes it into domain records. Entries whose dates cannot be parsed
// are logged and dropped.
func (f Fetcher) Fetch() ([]Vulnerability, error) {
	log.Print("Fetching Known Exploited Vulnerabilities Catalog")

	res, err := utils.FetchURL(f.url, "", f.retry)
	if err != nil {
		return nil, xerrors.Errorf("failed to fetch KEV catalog: %w", err)
	}

	var c catalog
	if err := json.Unmarshal(res, &c); err != nil {
		return nil, xerrors.Errorf("failed to unmarshal KEV catalog: %w", err)
	}
	if c.Count != len(c.Vulnerabilities) {
		return nil, xerrors.Errorf("vulnerability count mismatch: count %d, vulnerabilities length %d", c.Count, len(c.Vulnerabilities))
	}

	vulns := make([]Vulnerability, 0, len(c.Vulnerabilities))
	for _, raw := range c.Vulnerabilities {
		v, err := raw.normalize()
		if err != nil {
			log.Printf("skip %s: %s", raw.CveID, err)
			continue
		}
		vulns = append(vulns, v)
	}

	log.Printf("KEV catalog %s: %d entries", c.CatalogVersion, len(vulns))
	return vulns, nil
}

func (r rawVulnerability) normalize() (Vulnerability, error) {
	added, err := dateparse.ParseAny(r.DateAdded)
	if err != nil {
		return Vulnerability{}, xerrors.Errorf("unparseable dateAdded %q: %w", r.DateAdded, err)
	}

	var due *time.Time
	if r.DueDate != "" {
		d, err := dateparse.ParseAny(r.DueDate)
		if err != nil {
			return Vulnerability{}, xerrors.Errorf("unparseable dueDate %q: %w", r.DueDate, err)
		}
		due = &d
	}

	return Vulnerability{
		CveID:             r.CveID,
		VendorProject:     r.VendorProject,
		Product:           r.Product,
		VulnerabilityName: r.VulnerabilityName,
		DateAdded:         added,
		ShortDescription:  r.ShortDescription,
		RequiredAction:    r.RequiredAction,
		DueDate:           due,
		Notes:             r.Notes,
	}, nil
}
