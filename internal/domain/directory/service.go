package directory

import (
	"context"
	"sort"
	"strings"

	apperrors "github.com/yanqian/disha/pkg/errors"
)

// Contact is an emergency helpline.
type Contact struct {
	Name  string `json:"name" yaml:"name"`
	Phone string `json:"phone" yaml:"phone"`
	SMS   string `json:"sms" yaml:"sms"`
}

// Resource is a preparedness guide topic.
type Resource struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
	Icon string `json:"icon"`
}

// Guide is the safety advice shown for one preparedness topic.
type Guide struct {
	Slug  string   `json:"slug" yaml:"-"`
	Name  string   `json:"name" yaml:"name"`
	Title string   `json:"title" yaml:"title"`
	Image string   `json:"image" yaml:"image"`
	Tips  []string `json:"tips" yaml:"tips"`
}

// ServicesResponse lists helplines with dialable links.
type ServicesResponse struct {
	Services []Service `json:"services"`
}

// Service is a helpline with its tel: and sms: links.
type Service struct {
	Contact
	CallURI string `json:"callUri"`
	SMSURI  string `json:"smsUri"`
}

// ResourcesResponse lists preparedness topics.
type ResourcesResponse struct {
	Resources []Resource `json:"resources"`
}

// Config overrides the built-in helpline list when Contacts is non-empty.
// Guides are keyed by slug: an entry replaces the title, image or tips of a
// built-in guide, and an unknown slug adds a topic.
type Config struct {
	Contacts []Contact        `yaml:"contacts"`
	Guides   map[string]Guide `yaml:"guides"`
}

// Directory serves the static emergency directory.
type Directory interface {
	Services(ctx context.Context) ServicesResponse
	Resources(ctx context.Context) ResourcesResponse
	Guide(ctx context.Context, slug string) (Guide, error)
}

var nationalHelplines = []Contact{
	{Name: "Disaster Management Authority", Phone: "1070", SMS: "1070"},
	{Name: "National Disaster Response Force (NDRF)", Phone: "011-24363260", SMS: "9711077372"},
	{Name: "Police Emergency", Phone: "100", SMS: "100"},
	{Name: "Fire Emergency", Phone: "101", SMS: "101"},
	{Name: "Ambulance", Phone: "102", SMS: "102"},
	{Name: "Medical Assistance", Phone: "108", SMS: "108"},
	{Name: "Women Helpline", Phone: "1091", SMS: "1091"},
	{Name: "Child Helpline", Phone: "1098", SMS: "1098"},
}

var builtinGuides = []Guide{
	{Name: "Earthquake", Title: "Earthquake Safety", Tips: []string{
		"Drop, Cover, and Hold On.",
		"Stay away from windows and falling objects.",
		"If outdoors, move to an open area.",
		"Be prepared for aftershocks.",
	}},
	{Name: "Tsunami", Title: "Tsunami Safety", Tips: []string{
		"Move to higher ground immediately.",
		"Follow evacuation orders.",
		"Stay away from the coast.",
		"Wait for official all-clear before returning.",
	}},
	{Name: "Flood", Title: "Flood Safety", Tips: []string{
		"Move to higher ground.",
		"Avoid walking or driving through flood waters.",
		"Be prepared to evacuate.",
		"Follow official instructions.",
	}},
	{Name: "Wildfire", Title: "Wildfire Safety", Tips: []string{
		"Evacuate immediately if ordered.",
		"Create a defensible space around your home.",
		"Have an emergency kit ready.",
		"Stay informed about fire conditions.",
	}},
	{Name: "Hurricane", Title: "Hurricane Safety", Tips: []string{
		"Prepare an emergency kit.",
		"Board up windows and secure outdoor items.",
		"Follow evacuation orders.",
		"Stay indoors during the storm.",
	}},
	{Name: "Heavy Rainfall", Title: "Heavy Rainfall Safety", Tips: []string{
		"Stay indoors if possible.",
		"Avoid flooded areas.",
		"Be cautious of landslides.",
		"Have emergency supplies ready.",
	}},
	{Name: "Thunderstorm", Title: "Thunderstorm Safety", Tips: []string{
		"Seek shelter indoors.",
		"Stay away from windows and electrical equipment.",
		"Avoid using corded phones.",
		"Wait 30 minutes after the last thunder before going outside.",
	}},
	{Name: "Health Kit", Title: "Emergency Health Kit", Image: "/health-kit.jpg", Tips: []string{
		"Include first-aid supplies.",
		"Pack essential medications.",
		"Include personal hygiene items.",
		"Don't forget important medical documents.",
	}},
}

type directory struct {
	services  []Service
	resources []Resource
	guides    map[string]Guide
}

// New builds the directory.
func New(cfg Config) Directory {
	contacts := nationalHelplines
	if len(cfg.Contacts) > 0 {
		contacts = cfg.Contacts
	}
	d := &directory{
		services: make([]Service, 0, len(contacts)),
		guides:   make(map[string]Guide, len(builtinGuides)+len(cfg.Guides)),
	}
	for _, c := range contacts {
		sms := c.SMS
		if sms == "" {
			sms = c.Phone
		}
		c.SMS = sms
		d.services = append(d.services, Service{
			Contact: c,
			CallURI: "tel:" + dialable(c.Phone),
			SMSURI:  "sms:" + dialable(sms),
		})
	}
	for _, g := range builtinGuides {
		d.addGuide(slugify(g.Name), g)
	}
	for _, slug := range sortedKeys(cfg.Guides) {
		override := cfg.Guides[slug]
		slug = slugify(slug)
		if g, ok := d.guides[slug]; ok {
			d.guides[slug] = mergeGuide(g, override)
			continue
		}
		if override.Name == "" {
			override.Name = override.Title
		}
		d.addGuide(slug, override)
	}
	return d
}

func (d *directory) addGuide(slug string, g Guide) {
	g.Slug = slug
	if g.Title == "" {
		g.Title = g.Name
	}
	if g.Image == "" {
		g.Image = "/" + slug + "-safety.jpg"
	}
	d.guides[slug] = g
	d.resources = append(d.resources, Resource{Name: g.Name, Slug: slug, Icon: "/" + slug + ".png"})
}

func (d *directory) Services(context.Context) ServicesResponse {
	return ServicesResponse{Services: append([]Service(nil), d.services...)}
}

func (d *directory) Resources(context.Context) ResourcesResponse {
	return ResourcesResponse{Resources: append([]Resource(nil), d.resources...)}
}

func (d *directory) Guide(_ context.Context, slug string) (Guide, error) {
	g, ok := d.guides[strings.ToLower(strings.TrimSpace(slug))]
	if !ok {
		return Guide{}, apperrors.Wrap(apperrors.CodeNotFound, "Information not found", nil)
	}
	g.Tips = append([]string(nil), g.Tips...)
	return g, nil
}

func mergeGuide(base, override Guide) Guide {
	if override.Title != "" {
		base.Title = override.Title
	}
	if override.Image != "" {
		base.Image = override.Image
	}
	if len(override.Tips) > 0 {
		base.Tips = override.Tips
	}
	return base
}

func sortedKeys(m map[string]Guide) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func slugify(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}

func dialable(number string) string {
	return strings.ReplaceAll(number, " ", "")
}
