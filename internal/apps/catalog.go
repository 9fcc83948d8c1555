// Package apps holds the static Velox application catalog. The hub
// filters and annotates this list but does not own the apps themselves.
package apps

import "os"

type Status string

const (
	StatusAvailable  Status = "available"
	StatusComingSoon Status = "coming-soon"
)

type App struct {
	Slug         string  `json:"slug"`
	Name         string  `json:"name"`
	Tagline      string  `json:"tagline"`
	Icon         string  `json:"icon"`
	Color        string  `json:"color"`
	URL          string  `json:"url"`
	Status       Status  `json:"status"`
	Free         bool    `json:"free"` // free apps bypass the subscription check
	MonthlyPrice float64 `json:"monthly_price,omitempty"`
}

var catalog = []App{
	{
		Slug:         "nota",
		Name:         "Velox Nota",
		Tagline:      "Beautiful markdown notes",
		Icon:         "📝",
		Color:        "#f59e0b",
		URL:          envOr("NOTA_URL", "https://nota.veloxlabs.app"),
		Status:       StatusAvailable,
		Free:         true, // free during beta
		MonthlyPrice: 4.99,
	},
	{
		Slug:         "contacts",
		Name:         "Velox Contacts",
		Tagline:      "Smart contact management",
		Icon:         "👥",
		Color:        "#3b82f6",
		URL:          envOr("CONTACTS_URL", "https://contacts.veloxlabs.app"),
		Status:       StatusComingSoon,
		MonthlyPrice: 2.99,
	},
	{
		Slug:         "inventory",
		Name:         "Velox Inventory",
		Tagline:      "Track everything you own",
		Icon:         "📦",
		Color:        "#10b981",
		URL:          envOr("INVENTORY_URL", "https://inventory.veloxlabs.app"),
		Status:       StatusComingSoon,
		MonthlyPrice: 4.99,
	},
	{
		Slug:         "projects",
		Name:         "Velox Projects",
		Tagline:      "Simple project tracking",
		Icon:         "🎯",
		Color:        "#8b5cf6",
		URL:          envOr("PROJECTS_URL", "https://projects.veloxlabs.app"),
		Status:       StatusComingSoon,
		MonthlyPrice: 5.99,
	},
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Catalog returns the full ordered catalog.
func Catalog() []App {
	out := make([]App, len(catalog))
	copy(out, catalog)
	return out
}

// Get returns the app with the given slug.
func Get(slug string) (App, bool) {
	for _, a := range catalog {
		if a.Slug == slug {
			return a, true
		}
	}
	return App{}, false
}

// ValidSlug reports whether slug names a catalog app.
func ValidSlug(slug string) bool {
	_, ok := Get(slug)
	return ok
}

// InvalidSlugs returns the subset of slugs that are not in the catalog.
func InvalidSlugs(slugs []string) []string {
	var bad []string
	for _, s := range slugs {
		if !ValidSlug(s) {
			bad = append(bad, s)
		}
	}
	return bad
}
