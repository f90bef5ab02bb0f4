package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	webmodels "github.com/memoralabs/memora/backend/models"
	webservices "github.com/memoralabs/memora/backend/services"
	"github.com/memoralabs/memora/backend/utils"
	"github.com/memoralabs/memora/memora"
	"github.com/memoralabs/memora/memora/audit"
	"github.com/memoralabs/memora/memora/claims"
	"github.com/memoralabs/memora/memora/database"
	"github.com/memoralabs/memora/memora/database/models"
	"github.com/memoralabs/memora/memora/services"
)

// WebApp represents the web application with all dependencies
type WebApp struct {
	Config         *memora.Config
	DB             *database.DB
	Repos          *webmodels.Repositories
	SpacesService  *services.SpacesService
	PreviewService *services.PreviewImageService
	NFCService     *services.NFCService
	SessionService *webservices.SessionService
	Processor      *claims.Processor
	Audit          *audit.Logger
	Version        string
	Commit         string
}

// GetSession retrieves the staff session from the request
func (w *WebApp) GetSession(c *fiber.Ctx) (*webmodels.StaffSession, error) {
	return w.SessionService.GetSession(c)
}

// tenantScope resolves which tenant an admin request may see: tenant
// admins are pinned to their tenant, higher roles may select one.
func tenantScope(session *webmodels.StaffSession, c *fiber.Ctx) string {
	if session.AdminTenant != "" {
		return session.AdminTenant
	}
	return c.Query("tenant")
}

// HealthCheck reports service health including its backing stores
func HealthCheck(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		health := webmodels.NewHealthCheck(webApp.Version)

		ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
		defer cancel()

		if err := webApp.DB.Ping(ctx); err != nil {
			health.AddComponent("database", "unhealthy", err.Error(), nil)
		} else {
			health.AddComponent("database", "healthy", "", nil)
		}

		status := fiber.StatusOK
		if health.Status != "healthy" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(health)
	}
}

// getDashboardStats gathers the CRM landing page counters. The counts hit
// independent collections, so they run concurrently.
func getDashboardStats(ctx context.Context, webApp *WebApp, tenant string) (*webmodels.DashboardStats, error) {
	stats := &webmodels.DashboardStats{}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := webApp.Repos.Order.Count(gctx, tenant)
		stats.TotalOrders = n
		return err
	})
	g.Go(func() error {
		n, err := webApp.Repos.ClaimRequest.CountByStatus(gctx, tenant, models.ClaimStatusPending)
		stats.PendingClaims = n
		return err
	})
	g.Go(func() error {
		n, err := webApp.Repos.ClaimRequest.CountByStatus(gctx, tenant, models.ClaimStatusClaimed)
		stats.ClaimedClaims = n
		return err
	})
	g.Go(func() error {
		n, err := webApp.Repos.Memory.CountByStatus(gctx, tenant, models.MemoryStatusDraft)
		stats.DraftMemories = n
		return err
	})
	g.Go(func() error {
		n, err := webApp.Repos.Memory.CountByStatus(gctx, tenant, models.MemoryStatusPublished)
		stats.PublishedMemories = n
		return err
	})
	g.Go(func() error {
		n, err := webApp.Repos.SecurityEvent.CountSince(gctx, time.Now().Add(-24*time.Hour))
		stats.SecurityEvents24h = n
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

// DashboardStatsAPI serves aggregated counters for the CRM dashboard
func DashboardStatsAPI(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, ok := utils.ExtractStaffSession(c)
		if !ok {
			return utils.SendForbidden(c, "Access denied")
		}

		stats, err := getDashboardStats(c.Context(), webApp, tenantScope(session, c))
		if err != nil {
			return utils.SendInternalServerError(c, "Failed to load dashboard stats")
		}

		return utils.SendSuccess(c, stats, "")
	}
}
