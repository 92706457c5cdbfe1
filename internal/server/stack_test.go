package server

import (
	"reflect"
	"testing"

	"github.com/any-hub/rackup/internal/config"
	"github.com/any-hub/rackup/internal/rack"
)

func TestBuildRegistryAppliesPlacements(t *testing.T) {
	catalog := rack.NewCatalog()
	items := []config.MiddlewareConfig{
		{Name: "A"},
		{Name: "C"},
		{Name: "B", Before: "C"},
		{Name: "D", After: "C"},
		{Name: "E", Replace: "A"},
	}
	registry, err := BuildRegistry(items, catalog)
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}
	want := []string{"E", "B", "C", "D"}
	if got := registry.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if registry.Sealed() {
		t.Fatalf("registry should not be sealed yet")
	}
}

func TestBuildRegistryFailsOnUnknownTarget(t *testing.T) {
	items := []config.MiddlewareConfig{
		{Name: "A"},
		{Name: "B", After: "Missing"},
	}
	if _, err := BuildRegistry(items, rack.NewCatalog()); err == nil {
		t.Fatalf("unknown placement target should fail")
	}
}

func TestBuildRegistryLoadsSources(t *testing.T) {
	catalog := rack.NewCatalog()
	calls := 0
	_ = catalog.Provide("pkg", func(c *rack.Catalog) error {
		calls++
		return nil
	})
	items := []config.MiddlewareConfig{
		{Name: "A", Source: "pkg"},
		{Name: "B", Source: "pkg"},
	}
	if _, err := BuildRegistry(items, catalog); err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}
	if calls != 1 {
		t.Fatalf("source should load once, got %d", calls)
	}
}
