// Package content holds the static marketing data: brand, hero, pricing and
// integrations. It is loaded once at start-up and only ever read.
package content

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed site.yaml
var defaultSite []byte

type Site struct {
	Brand        Brand         `yaml:"brand"`
	Hero         Hero          `yaml:"hero"`
	Pricing      Pricing       `yaml:"pricing"`
	Integrations []Integration `yaml:"integrations"`
}

type Brand struct {
	Name         string `yaml:"name"`
	Tagline      string `yaml:"tagline"`
	SupportEmail string `yaml:"support_email"`
}

type Hero struct {
	Title        string `yaml:"title"`
	Subtitle     string `yaml:"subtitle"`
	PrimaryCTA   Link   `yaml:"primary_cta"`
	SecondaryCTA Link   `yaml:"secondary_cta"`
}

type Link struct {
	Label string `yaml:"label"`
	Href  string `yaml:"href"`
}

type Pricing struct {
	Currency string `yaml:"currency"`
	Plans    []Plan `yaml:"plans"`
}

type Plan struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	MonthlyCents int      `yaml:"monthly_cents"`
	Highlighted  bool     `yaml:"highlighted"`
	Summary      string   `yaml:"summary"`
	Features     []string `yaml:"features"`
}

// Price formats the monthly price, e.g. "$9" or "$9.50". Free plans read "Free".
func (p Plan) Price(currency string) string {
	if p.MonthlyCents == 0 {
		return "Free"
	}
	symbol := currency + " "
	if currency == "" || currency == "USD" {
		symbol = "$"
	}
	if p.MonthlyCents%100 == 0 {
		return fmt.Sprintf("%s%d", symbol, p.MonthlyCents/100)
	}
	return fmt.Sprintf("%s%d.%02d", symbol, p.MonthlyCents/100, p.MonthlyCents%100)
}

type Integration struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Category    string `yaml:"category"`
	Description string `yaml:"description"`
}

// Default returns the embedded site content.
func Default() (*Site, error) {
	return Parse(defaultSite)
}

// Load reads content from path, or the embedded default when path is empty.
func Load(path string) (*Site, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("content: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Site, error) {
	var s Site
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("content: decode: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Site) validate() error {
	var errs []error
	if s.Brand.Name == "" {
		errs = append(errs, errors.New("brand.name is required"))
	}
	seen := map[string]bool{}
	for i, p := range s.Pricing.Plans {
		if p.ID == "" || p.Name == "" {
			errs = append(errs, fmt.Errorf("pricing.plans[%d]: id and name are required", i))
		}
		if p.MonthlyCents < 0 {
			errs = append(errs, fmt.Errorf("pricing.plans[%d]: negative price", i))
		}
		if seen[p.ID] {
			errs = append(errs, fmt.Errorf("pricing.plans[%d]: duplicate id %q", i, p.ID))
		}
		seen[p.ID] = true
	}
	for i, in := range s.Integrations {
		if in.ID == "" || in.Name == "" {
			errs = append(errs, fmt.Errorf("integrations[%d]: id and name are required", i))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("content: %w", err)
	}
	return nil
}

// Categories returns integration categories in first-seen order.
func (s *Site) Categories() []string {
	var out []string
	seen := map[string]bool{}
	for _, in := range s.Integrations {
		if !seen[in.Category] {
			seen[in.Category] = true
			out = append(out, in.Category)
		}
	}
	return out
}

// InCategory returns the integrations tagged with category, in file order.
func (s *Site) InCategory(category string) []Integration {
	var out []Integration
	for _, in := range s.Integrations {
		if in.Category == category {
			out = append(out, in)
		}
	}
	return out
}
