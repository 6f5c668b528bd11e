package booking

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog resolves free-form names spoken by a customer to catalog entries.
type Catalog interface {
	Services() []Service
	Stylists() []Stylist
	FindService(query string) (Service, bool)
	FindStylist(query string) (Stylist, bool)
}

// StaticCatalog is an immutable in-memory catalog.
type StaticCatalog struct {
	services []Service
	stylists []Stylist
}

// NewStaticCatalog copies the given entries into a catalog.
func NewStaticCatalog(services []Service, stylists []Stylist) *StaticCatalog {
	return &StaticCatalog{
		services: append([]Service(nil), services...),
		stylists: append([]Stylist(nil), stylists...),
	}
}

// DefaultCatalog returns the shop's standard services and team.
func DefaultCatalog() *StaticCatalog {
	return NewStaticCatalog(DefaultServices, DefaultStylists)
}

// DefaultServices is the shop's service menu.
var DefaultServices = []Service{
	{
		ID:          "1",
		Name:        "Executive Precision Cut",
		Price:       50,
		Duration:    60,
		Description: "Corte artesanal utilizando técnicas de visagismo avançado para realçar a estrutura óssea facial.",
		Image:       "https://images.unsplash.com/photo-1593702288056-7927b442d0fa?auto=format&fit=crop&q=80&w=800",
	},
	{
		ID:          "2",
		Name:        "The Royal Shave",
		Price:       40,
		Duration:    45,
		Description: "Experiência sensorial com 3 camadas de toalhas quentes e navalha japonesa.",
		Image:       "https://images.unsplash.com/photo-1621605815971-fbc98d665033?auto=format&fit=crop&q=80&w=800",
	},
	{
		ID:          "3",
		Name:        "Master Grooming Ritual",
		Price:       85,
		Duration:    100,
		Description: "Serviço assinatura Paulo Jorge. Inclui corte, barba e massagem craniana.",
		Image:       "https://images.unsplash.com/photo-1503951914875-452162b0f3f1?auto=format&fit=crop&q=80&w=800",
	},
}

// DefaultStylists is the shop's team.
var DefaultStylists = []Stylist{
	{
		ID:        "s1",
		Name:      "Paulo Jorge",
		Role:      "Master Founder",
		Specialty: "Visagismo & Design",
		Bio:       "Fundador e mentor da marca.",
		Avatar:    "https://images.unsplash.com/photo-1492562080023-ab3db95bfbce?auto=format&fit=crop&q=80&w=400",
		Email:     "admin@paulojorge.pt",
	},
	{
		ID:        "s2",
		Name:      "Julian Ross",
		Role:      "Senior Barber",
		Specialty: "Modern Fades",
		Bio:       "Especialista em degradês modernos.",
		Avatar:    "https://images.unsplash.com/photo-1506794778202-cad84cf45f1d?auto=format&fit=crop&q=80&w=400",
		Email:     "julian@paulojorge.pt",
	},
}

// Services returns a copy of the service list.
func (c *StaticCatalog) Services() []Service { return append([]Service(nil), c.services...) }

// Stylists returns a copy of the stylist list.
func (c *StaticCatalog) Stylists() []Stylist { return append([]Stylist(nil), c.stylists...) }

// FindService returns the first service whose name contains query,
// case-insensitively.
func (c *StaticCatalog) FindService(query string) (Service, bool) {
	q := strings.ToLower(query)
	for _, s := range c.services {
		if strings.Contains(strings.ToLower(s.Name), q) {
			return s, true
		}
	}
	return Service{}, false
}

// FindStylist returns the first stylist whose name contains query,
// case-insensitively.
func (c *StaticCatalog) FindStylist(query string) (Stylist, bool) {
	q := strings.ToLower(query)
	for _, s := range c.stylists {
		if strings.Contains(strings.ToLower(s.Name), q) {
			return s, true
		}
	}
	return Stylist{}, false
}

type catalogFile struct {
	Services []Service `yaml:"services"`
	Stylists []Stylist `yaml:"stylists"`
}

// ParseCatalog decodes a YAML catalog document.
func ParseCatalog(data []byte) (*StaticCatalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(f.Services) == 0 {
		return nil, fmt.Errorf("parse catalog: at least one service is required")
	}
	if len(f.Stylists) == 0 {
		return nil, fmt.Errorf("parse catalog: at least one stylist is required")
	}
	for i, s := range f.Services {
		if strings.TrimSpace(s.Name) == "" {
			return nil, fmt.Errorf("parse catalog: services[%d].name is required", i)
		}
	}
	for i, s := range f.Stylists {
		if strings.TrimSpace(s.Name) == "" {
			return nil, fmt.Errorf("parse catalog: stylists[%d].name is required", i)
		}
	}
	return NewStaticCatalog(f.Services, f.Stylists), nil
}

// LoadCatalogFile reads a YAML catalog from path.
func LoadCatalogFile(path string) (*StaticCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}
