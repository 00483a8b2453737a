package tenant

import (
	"testing"

	"github.com/larkbridge/larkbridge/internal/config"
)

func TestResolveKnownTenant(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry([]config.TenantConfig{
		{AppID: "cli_a", AppSecret: "s1", FeatureLabel: "alpha"},
		{AppID: "cli_b", AppSecret: "s2", FeatureLabel: "beta"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	profile, err := reg.Resolve("cli_b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.FeatureLabel != "beta" {
		t.Fatalf("unexpected feature label: %s", profile.FeatureLabel)
	}
	if profile.Client == nil {
		t.Fatal("expected a constructed lark client")
	}
}

func TestResolveUnknownTenantFailsClosed(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry([]config.TenantConfig{
		{AppID: "cli_a", AppSecret: "s1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := reg.Resolve("cli_missing"); err == nil {
		t.Fatal("expected routing error for unknown app_id")
	}
}

func TestFromListsRejectsMisalignedLists(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		ids     []string
		secrets []string
		labels  []string
	}{
		{name: "short secrets", ids: []string{"a", "b"}, secrets: []string{"s"}, labels: []string{"x", "y"}},
		{name: "short labels", ids: []string{"a", "b"}, secrets: []string{"s", "t"}, labels: []string{"x"}},
		{name: "long ids", ids: []string{"a", "b", "c"}, secrets: []string{"s", "t"}, labels: []string{"x", "y"}},
	}
	for _, tc := range cases {
		if _, err := FromLists(tc.ids, tc.secrets, tc.labels); err == nil {
			t.Fatalf("%s: expected misalignment error", tc.name)
		}
	}
}

func TestFromListsAligned(t *testing.T) {
	t.Parallel()

	reg, err := FromLists(
		[]string{"cli_a", "cli_b"},
		[]string{"s1", "s2"},
		[]string{"alpha", "beta"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	profile, err := reg.Resolve("cli_a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.FeatureLabel != "alpha" {
		t.Fatalf("unexpected feature label: %s", profile.FeatureLabel)
	}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	t.Parallel()

	_, err := NewRegistry([]config.TenantConfig{
		{AppID: "cli_a", AppSecret: "s1"},
		{AppID: "cli_a", AppSecret: "s2"},
	})
	if err == nil {
		t.Fatal("expected duplicate app_id error")
	}
}
