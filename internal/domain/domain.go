// Package domain defines the five SAP CX product areas the assistant
// answers questions about. Every stored chunk and every classified query is
// tagged with one of these.
package domain

import (
	"fmt"
	"strings"
)

// Domain identifies one SAP CX product documentation set
type Domain string

const (
	ServiceCloud Domain = "service_cloud"
	FSM          Domain = "fsm"
	SalesCloud   Domain = "sales_cloud"
	CPQ          Domain = "cpq"
	CPI          Domain = "cpi"
)

// descriptions powers the classification prompt. Wording matters: the
// classifier keys on these phrases to separate overlapping queries.
var descriptions = map[Domain]string{
	ServiceCloud: "Customer service, tickets, cases, support workflows",
	FSM:          "Field service management, work orders, scheduling, technicians",
	SalesCloud:   "Opportunities, leads, accounts, sales processes",
	CPQ:          "Configure-Price-Quote, product configuration, pricing rules",
	CPI:          "Cloud Platform Integration, data flows, API integration, middleware",
}

// All returns the domains in canonical order
func All() []Domain {
	return []Domain{ServiceCloud, FSM, SalesCloud, CPQ, CPI}
}

// Strings returns the domains in canonical order as plain strings
func Strings() []string {
	domains := All()
	out := make([]string, len(domains))
	for i, d := range domains {
		out[i] = string(d)
	}
	return out
}

// Valid reports whether s names a known domain
func Valid(s string) bool {
	_, ok := descriptions[Domain(s)]
	return ok
}

// Parse normalizes and validates a domain name
func Parse(s string) (Domain, error) {
	d := Domain(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := descriptions[d]; !ok {
		return "", fmt.Errorf("unknown domain: %q", s)
	}
	return d, nil
}

// Normalize lowercases and trims a domain name without validating it.
// Classifier output is kept even when it falls outside the known set; an
// unknown domain simply matches nothing at retrieval time.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Description returns the one-line description for a domain
func Description(d Domain) string {
	return descriptions[d]
}

// Descriptions returns the prompt block listing every domain with its
// description
func Descriptions() string {
	var b strings.Builder
	b.WriteString("Available domains:\n")
	for _, d := range All() {
		fmt.Fprintf(&b, "- %s: %s\n", d, descriptions[d])
	}
	return b.String()
}
