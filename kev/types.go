package kev

import "time"

// Vulnerability is one normalized entry of the Known Exploited
// Vulnerabilities Catalog. DueDate is nil when the feed leaves it empty.
type Vulnerability struct {
	CveID             string
	VendorProject     string
	Product           string
	VulnerabilityName string
	DateAdded         time.Time
	ShortDescription  string
	RequiredAction    string
	DueDate           *time.Time
	Notes             string
}

// TextFields returns the free-text fields that match terms are tested
// against. Identifiers and dates are never matched.
func (v Vulnerability) TextFields() []string {
	return []string{
		v.VendorProject,
		v.Product,
		v.VulnerabilityName,
		v.ShortDescription,
		v.RequiredAction,
		v.Notes,
	}
}

type catalog struct {
	Title           string             `json:"title"`
	CatalogVersion  string             `json:"catalogVersion"`
	DateReleased    time.Time          `json:"dateReleased"`
	Count           int                `json:"count"`
	Vulnerabilities []rawVulnerability `json:"vulnerabilities"`
}

type rawVulnerability struct {
	CveID             string `json:"cveID"`
	VendorProject     string `json:"vendorProject"`
	Product           string `json:"product"`
	VulnerabilityName string `json:"vulnerabilityName"`
	DateAdded         string `json:"dateAdded"`
	ShortDescription  string `json:"shortDescription"`
	RequiredAction    string `json:"requiredAction"`
	DueDate           string `json:"dueDate"`
	Notes             string `json:"notes"`
}
