package scrape

import (
	"net/url"
	"strings"
)

// SearchURL appends the escaped keyword to the site's base URL. Spaces are
// encoded as %20, matching what most boards emit in their own search links.
func SearchURL(baseURL, keyword string) string {
	return baseURL + strings.ReplaceAll(url.QueryEscape(keyword), "+", "%20")
}

// origin returns scheme://host of raw, or "" if raw has no host.
func origin(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// AbsoluteLink resolves href against the origin of baseURL. Links already
// carrying an http(s) scheme are returned unchanged; empty stays empty.
func AbsoluteLink(baseURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	low := strings.ToLower(href)
	if strings.HasPrefix(low, "http://") || strings.HasPrefix(low, "https://") {
		return href
	}

	o := origin(baseURL)
	if o == "" {
		return href
	}
	base, _ := url.Parse(o + "/")
	ref, err := url.Parse(href)
	if err != nil {
		if strings.HasPrefix(href, "/") {
			return o + href
		}
		return o + "/" + href
	}
	return base.ResolveReference(ref).String()
}
