package registry

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"

	"jobscrape-engine/internal/domain"
)

// Normalize trims every string field and drops nothing; blank keywords are
// left in place so ValidateSite can report them.
func Normalize(s domain.Site) domain.Site {
	s.Name = strings.TrimSpace(s.Name)
	s.BaseURL = strings.TrimSpace(s.BaseURL)
	kws := make([]string, len(s.Keywords))
	for i, k := range s.Keywords {
		kws[i] = strings.TrimSpace(k)
	}
	s.Keywords = kws
	s.Selectors = domain.Selectors{
		Container: strings.TrimSpace(s.Selectors.Container),
		Title:     strings.TrimSpace(s.Selectors.Title),
		Company:   strings.TrimSpace(s.Selectors.Company),
		Location:  strings.TrimSpace(s.Selectors.Location),
		Link:      strings.TrimSpace(s.Selectors.Link),
	}
	return s
}

// ValidateSite checks a normalized site. The returned error wraps
// domain.ErrValidation and lists every problem found.
func ValidateSite(s domain.Site) error {
	var errs []string

	if s.Name == "" {
		errs = append(errs, "name is required")
	}
	if s.BaseURL == "" {
		errs = append(errs, "baseUrl is required")
	} else if u, err := url.Parse(s.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, "baseUrl must be an absolute http(s) URL")
	}

	if len(s.Keywords) == 0 {
		errs = append(errs, "keywords must have at least 1 entry")
	}
	for i, k := range s.Keywords {
		if k == "" {
			errs = append(errs, fmt.Sprintf("keywords[%d] cannot be empty", i))
		}
	}

	for _, name := range s.Selectors.Missing() {
		errs = append(errs, fmt.Sprintf("selectors.%s is required", name))
	}

	if len(errs) > 0 {
		return eris.Wrap(domain.ErrValidation, strings.Join(errs, "; "))
	}
	return nil
}
