package domain

import "strings"

// Selectors are the CSS queries used to pull postings out of a search page.
// Title, Company, Location and Link are evaluated inside each Container match.
type Selectors struct {
	Container string `yaml:"container" json:"container"`
	Title     string `yaml:"title" json:"title"`
	Company   string `yaml:"company" json:"company"`
	Location  string `yaml:"location" json:"location"`
	Link      string `yaml:"link" json:"link"`
}

// Missing returns the names of blank selector fields.
func (s Selectors) Missing() []string {
	var out []string
	check := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			out = append(out, name)
		}
	}
	check("container", s.Container)
	check("title", s.Title)
	check("company", s.Company)
	check("location", s.Location)
	check("link", s.Link)
	return out
}

type Site struct {
	Name      string    `yaml:"name" json:"name"`
	BaseURL   string    `yaml:"base_url" json:"baseUrl"`
	Keywords  []string  `yaml:"keywords" json:"keywords"`
	Selectors Selectors `yaml:"selectors" json:"selectors"`
}

// Scrapable reports whether the site has keywords and a complete selector
// set. Sites that are not scrapable are skipped by a run.
func (s Site) Scrapable() bool {
	return len(s.Keywords) > 0 && len(s.Selectors.Missing()) == 0
}

// Clone returns a copy that shares no slices with s.
func (s Site) Clone() Site {
	out := s
	out.Keywords = append([]string(nil), s.Keywords...)
	return out
}
