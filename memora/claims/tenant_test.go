package claims

import (
	"testing"

	"github.com/memoralabs/memora/memora"
)

func testResolver() *TenantResolver {
	return NewTenantResolver(memora.TenantsConfig{
		DefaultTenant:  "evermark",
		DefaultChannel: "lp-default",
		Origins: []memora.TenantOrigin{
			{Origin: "https://pages.evermark.app", Tenant: "evermark", ChannelID: "lp-1"},
			{Origin: "https://memories.partnerco.com", Tenant: "partnerco", ChannelID: "lp-9"},
		},
	})
}

func TestResolveTenantFromOrigin(t *testing.T) {
	resolver := testResolver()

	tests := []struct {
		name   string
		origin string
		want   TenantChannel
	}{
		{"known origin", "https://pages.evermark.app", TenantChannel{"evermark", "lp-1"}},
		{"second tenant", "https://memories.partnerco.com", TenantChannel{"partnerco", "lp-9"}},
		{"case insensitive", "HTTPS://PAGES.EVERMARK.APP", TenantChannel{"evermark", "lp-1"}},
		{"trailing slash", "https://pages.evermark.app/", TenantChannel{"evermark", "lp-1"}},
		{"unknown origin falls back", "https://evil.example.com", TenantChannel{"evermark", "lp-default"}},
		{"empty origin falls back", "", TenantChannel{"evermark", "lp-default"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolver.ResolveTenantFromOrigin(tt.origin); got != tt.want {
				t.Errorf("ResolveTenantFromOrigin(%q) = %+v, want %+v", tt.origin, got, tt.want)
			}
		})
	}
}
