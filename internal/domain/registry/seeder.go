package registry

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/skyharbor-io/opsdeck/internal/shared/types"
)

// Catalog receives descriptors; duplicate registration is a no-op.
type Catalog interface {
	RegisterApp(desc types.AppDescriptor)
}

// Seeder loads app descriptors into a catalogue.
type Seeder struct {
	catalog      Catalog
	manifestPath string
}

// NewSeeder creates a seeder. manifestPath may be empty.
func NewSeeder(catalog Catalog, manifestPath string) *Seeder {
	return &Seeder{
		catalog:      catalog,
		manifestPath: manifestPath,
	}
}

// manifest is the YAML shape of an operator app manifest.
type manifest struct {
	Apps []manifestApp `yaml:"apps"`
}

type manifestApp struct {
	ID            string `yaml:"id"`
	Title         string `yaml:"title"`
	Icon          string `yaml:"icon"`
	Component     string `yaml:"component"`
	DefaultWidth  int    `yaml:"default_width"`
	DefaultHeight int    `yaml:"default_height"`
	Category      string `yaml:"category"`
}

// Seed registers manifest apps (when a manifest exists) followed by the
// built-in suite. A missing manifest file is not an error.
func (s *Seeder) Seed() error {
	if s.manifestPath != "" {
		if err := s.seedManifest(); err != nil {
			return err
		}
	}
	for _, desc := range builtinApps() {
		s.catalog.RegisterApp(desc)
	}
	return nil
}

func (s *Seeder) seedManifest() error {
	data, err := os.ReadFile(s.manifestPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read app manifest %s: %w", s.manifestPath, err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("failed to parse app manifest %s: %w", s.manifestPath, err)
	}

	for _, app := range m.Apps {
		if app.ID == "" || app.Title == "" {
			return fmt.Errorf("app manifest %s: every app needs id and title", s.manifestPath)
		}
		s.catalog.RegisterApp(types.AppDescriptor{
			ID:            app.ID,
			Title:         app.Title,
			Icon:          app.Icon,
			Component:     app.Component,
			DefaultWidth:  app.DefaultWidth,
			DefaultHeight: app.DefaultHeight,
			Category:      app.Category,
		})
	}
	return nil
}

// builtinApps returns the standard airport suite.
func builtinApps() []types.AppDescriptor {
	return []types.AppDescriptor{
		{ID: "checkin", Title: "Check-In Desk", Icon: "ticket", Component: "CheckInApp", DefaultWidth: 1100, DefaultHeight: 760, Category: "operations"},
		{ID: "boarding", Title: "Boarding Control", Icon: "plane", Component: "BoardingApp", DefaultWidth: 1000, DefaultHeight: 700, Category: "operations"},
		{ID: "security", Title: "Security Checkpoint", Icon: "shield", Component: "SecurityApp", DefaultWidth: 960, DefaultHeight: 680, Category: "operations"},
		{ID: "occ", Title: "Operations Control Center", Icon: "radar", Component: "OCCApp", DefaultWidth: 1280, DefaultHeight: 840, Category: "operations"},
		{ID: "baggage", Title: "Baggage Services", Icon: "luggage", Component: "BaggageApp", DefaultWidth: 900, DefaultHeight: 640, Category: "operations"},
		{ID: "announcements", Title: "Announcements", Icon: "megaphone", Component: "AnnouncementsApp", DefaultWidth: 720, DefaultHeight: 520, Category: "communication"},
		{ID: "kiosk", Title: "Self Check-In Kiosk", Icon: "kiosk", Component: "KioskApp", DefaultWidth: 840, DefaultHeight: 900, Category: "passenger"},
		{ID: "gate", Title: "Gate Screens", Icon: "monitor", Component: "GateScreenApp", DefaultWidth: 1280, DefaultHeight: 720, Category: "passenger"},
		{ID: "mobile", Title: "Passenger Mobile", Icon: "phone", Component: "MobileApp", DefaultWidth: 420, DefaultHeight: 860, Category: "passenger"},
	}
}
