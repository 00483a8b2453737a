// Package tenant maps inbound application ids to their Lark clients and
// feature profiles.
package tenant

import (
	"fmt"
	"strings"

	lark "github.com/larksuite/oapi-sdk-go/v3"

	"github.com/larkbridge/larkbridge/internal/config"
)

// Profile bundles everything the relay needs to act on behalf of one tenant.
type Profile struct {
	AppID        string
	Client       *lark.Client
	FeatureLabel string
	Config       config.TenantConfig
}

// Registry resolves application ids to tenant profiles. Routing for an app id
// without a profile fails closed.
type Registry struct {
	profiles map[string]Profile
}

// NewRegistry builds one client+profile pair per configured tenant.
// The lark client refreshes its own tenant access token, so profiles may be
// reused across invocations.
func NewRegistry(tenants []config.TenantConfig) (*Registry, error) {
	if len(tenants) == 0 {
		return nil, fmt.Errorf("tenant registry requires at least one tenant")
	}
	profiles := make(map[string]Profile, len(tenants))
	for _, t := range tenants {
		appID := strings.TrimSpace(t.AppID)
		secret := strings.TrimSpace(t.AppSecret)
		if appID == "" || secret == "" {
			return nil, fmt.Errorf("tenant registry: app_id and app_secret are required")
		}
		if _, ok := profiles[appID]; ok {
			return nil, fmt.Errorf("tenant registry: duplicate app_id %s", appID)
		}
		profiles[appID] = Profile{
			AppID:        appID,
			Client:       lark.NewClient(appID, secret),
			FeatureLabel: strings.TrimSpace(t.FeatureLabel),
			Config:       t,
		}
	}
	return &Registry{profiles: profiles}, nil
}

// FromLists builds a registry from positionally aligned id/secret/label lists.
// Mismatched lengths are a configuration error; the lists are never truncated
// to the shortest one.
func FromLists(appIDs, secrets, labels []string) (*Registry, error) {
	if len(appIDs) != len(secrets) || len(appIDs) != len(labels) {
		return nil, fmt.Errorf(
			"tenant registry: misaligned tenant lists (app_ids=%d secrets=%d labels=%d)",
			len(appIDs), len(secrets), len(labels))
	}
	tenants := make([]config.TenantConfig, 0, len(appIDs))
	for i := range appIDs {
		tenants = append(tenants, config.TenantConfig{
			AppID:        appIDs[i],
			AppSecret:    secrets[i],
			FeatureLabel: labels[i],
		})
	}
	return NewRegistry(tenants)
}

// Resolve returns the profile for an application id.
func (r *Registry) Resolve(appID string) (Profile, error) {
	profile, ok := r.profiles[strings.TrimSpace(appID)]
	if !ok {
		return Profile{}, fmt.Errorf("tenant registry: unknown app_id %s", appID)
	}
	return profile, nil
}

// Profiles returns all registered profiles.
func (r *Registry) Profiles() []Profile {
	out := make([]Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	return out
}
