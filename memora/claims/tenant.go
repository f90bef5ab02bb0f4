package claims

import (
	"strings"

	"github.com/memoralabs/memora/memora"
)

// TenantChannel is the identity a request origin is authorized to act as.
type TenantChannel struct {
	Tenant    string
	ChannelID string
}

// TenantResolver maps request origins to tenant/channel pairs. The mapping
// is loaded once from configuration; resolution is total and pure.
type TenantResolver struct {
	byOrigin map[string]TenantChannel
	fallback TenantChannel
}

func NewTenantResolver(cfg memora.TenantsConfig) *TenantResolver {
	byOrigin := make(map[string]TenantChannel, len(cfg.Origins))
	for _, o := range cfg.Origins {
		byOrigin[normalizeOrigin(o.Origin)] = TenantChannel{
			Tenant:    o.Tenant,
			ChannelID: o.ChannelID,
		}
	}

	return &TenantResolver{
		byOrigin: byOrigin,
		fallback: TenantChannel{
			Tenant:    cfg.DefaultTenant,
			ChannelID: cfg.DefaultChannel,
		},
	}
}

// ResolveTenantFromOrigin always returns a pair; unrecognized origins map
// to the configured default tenant/channel.
func (r *TenantResolver) ResolveTenantFromOrigin(origin string) TenantChannel {
	if tc, ok := r.byOrigin[normalizeOrigin(origin)]; ok {
		return tc
	}
	return r.fallback
}

func normalizeOrigin(origin string) string {
	origin = strings.ToLower(strings.TrimSpace(origin))
	return strings.TrimSuffix(origin, "/")
}
