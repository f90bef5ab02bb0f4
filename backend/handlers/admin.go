package handlers

import (
	"encoding/base64"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	webmodels "github.com/memoralabs/memora/backend/models"
	"github.com/memoralabs/memora/backend/utils"
	"github.com/memoralabs/memora/memora/claims"
	"github.com/memoralabs/memora/memora/database/models"
	"github.com/memoralabs/memora/memora/database/repositories"
)

// OrdersAPI lists or fuzzy-searches orders within the caller's tenant scope
func OrdersAPI(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, ok := utils.ExtractStaffSession(c)
		if !ok {
			return utils.SendForbidden(c, "Access denied")
		}
		tenant := tenantScope(session, c)

		if query := c.Query("q"); query != "" {
			orders, err := webApp.Repos.Order.Search(c.Context(), tenant, query)
			if err != nil {
				return utils.SendInternalServerError(c, "Failed to search orders")
			}
			return utils.SendSuccess(c, orders, "")
		}

		page, _ := strconv.Atoi(c.Query("page", "1"))
		if page < 1 {
			page = 1
		}
		limit, _ := strconv.Atoi(c.Query("limit", "50"))

		orders, err := webApp.Repos.Order.ListByTenant(c.Context(), tenant, limit, (page-1)*limit)
		if err != nil {
			return utils.SendInternalServerError(c, "Failed to list orders")
		}

		total, err := webApp.Repos.Order.Count(c.Context(), tenant)
		if err != nil {
			return utils.SendInternalServerError(c, "Failed to count orders")
		}

		return utils.SendPaginated(c, orders, webmodels.NewPaginationInfo(page, limit, total), "")
	}
}

// loadScopedOrder fetches an order and enforces the caller's tenant scope.
func loadScopedOrder(webApp *WebApp, c *fiber.Ctx) (*models.Order, error) {
	session, ok := utils.ExtractStaffSession(c)
	if !ok {
		return nil, utils.SendForbidden(c, "Access denied")
	}

	order, err := webApp.Repos.Order.GetByID(c.Context(), c.Params("id"))
	if errors.Is(err, repositories.ErrOrderNotFound) {
		return nil, utils.SendNotFound(c, "Order not found")
	}
	if err != nil {
		return nil, utils.SendInternalServerError(c, "Failed to load order")
	}

	if session.AdminTenant != "" && order.Tenant != session.AdminTenant {
		return nil, utils.SendForbidden(c, "Order belongs to another tenant")
	}
	return order, nil
}

// OrderDetail returns one order
func OrderDetail(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		order, err := loadScopedOrder(webApp, c)
		if order == nil {
			return err
		}
		return utils.SendSuccess(c, order, "")
	}
}

// OrderCreate records a manually entered order
func OrderCreate(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, ok := utils.ExtractStaffSession(c)
		if !ok {
			return utils.SendForbidden(c, "Access denied")
		}

		var req webmodels.OrderCreateRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "Invalid order payload", nil)
		}
		if err := utils.ValidateEmail(req.CustomerEmail); err != nil {
			return utils.SendUnprocessableEntity(c, err.Error(), nil)
		}

		tenant := req.Tenant
		if session.AdminTenant != "" {
			tenant = session.AdminTenant
		}
		if tenant == "" {
			return utils.SendBadRequest(c, "tenant is required", nil)
		}

		order := &models.Order{
			Tenant:        tenant,
			ChannelID:     req.ChannelID,
			CustomerName:  req.CustomerName,
			CustomerEmail: req.CustomerEmail,
			ProductType:   req.ProductType,
		}

		if _, err := webApp.Repos.Order.Create(c.Context(), order); err != nil {
			return utils.SendInternalServerError(c, "Failed to create order")
		}
		return utils.SendCreated(c, order, "Order created")
	}
}

// IssueClaimLink creates a pending claim request for an order and returns
// the claim link the customer will receive. Reissuing replaces the order's
// active link; the old claim request stays pending until it expires.
func IssueClaimLink(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		order, err := loadScopedOrder(webApp, c)
		if order == nil {
			return err
		}

		if order.MemoryID != "" {
			return utils.SendConflict(c, "Order already has a memory page", nil)
		}

		validity := claims.DefaultLinkValidity
		if webApp.Config.Claims.LinkValidityHours > 0 {
			validity = time.Duration(webApp.Config.Claims.LinkValidityHours) * time.Hour
		}

		now := time.Now()
		request := &models.ClaimRequest{
			RequestKey:  uuid.NewString(),
			Tenant:      order.Tenant,
			ChannelID:   order.ChannelID,
			Email:       order.CustomerEmail,
			ProductType: order.ProductType,
			OrderID:     order.ID,
			Status:      models.ClaimStatusPending,
			CreatedAt:   now,
		}

		if _, err := webApp.Repos.ClaimRequest.Create(c.Context(), request); err != nil {
			return utils.SendInternalServerError(c, "Failed to create claim request")
		}

		token, err := claims.EncodeToken(&claims.ClaimToken{
			SubjectID: request.RequestKey,
			Email:     order.CustomerEmail,
			Tenant:    order.Tenant,
			ChannelID: order.ChannelID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(validity).Unix(),
		}, webApp.Config.Session.Secret)
		if err != nil {
			return utils.SendInternalServerError(c, "Failed to encode claim token")
		}

		if err := webApp.Repos.Order.AttachClaim(c.Context(), order.ID, request.RequestKey); err != nil {
			return utils.SendInternalServerError(c, "Failed to attach claim to order")
		}

		return utils.SendCreated(c, &webmodels.ClaimLinkResponse{
			ClaimKey:  request.RequestKey,
			Token:     token,
			Link:      webApp.Config.Web.PublicBaseURL + "/claim?token=" + token,
			ExpiresAt: now.Add(validity).Unix(),
		}, "Claim link issued")
	}
}

// WriteTagSerial records the serial of the NFC tag written for an order
func WriteTagSerial(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		order, err := loadScopedOrder(webApp, c)
		if order == nil {
			return err
		}

		var req webmodels.TagWriteRequest
		if err := c.BodyParser(&req); err != nil || req.TagSerial == "" {
			return utils.SendBadRequest(c, "tag_serial is required", nil)
		}

		if err := webApp.Repos.Order.SetTagSerial(c.Context(), order.ID, req.TagSerial); err != nil {
			return utils.SendInternalServerError(c, "Failed to record tag serial")
		}
		return utils.SendSuccess(c, nil, "Tag serial recorded")
	}
}

// TagPayload returns the NDEF message to write onto the order's NFC tag
func TagPayload(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		order, err := loadScopedOrder(webApp, c)
		if order == nil {
			return err
		}

		if order.MemoryID == "" {
			return utils.SendConflict(c, "Order has no memory page yet", nil)
		}

		memory, err := webApp.Repos.Memory.GetByID(c.Context(), order.MemoryID)
		if errors.Is(err, repositories.ErrMemoryNotFound) {
			return utils.SendNotFound(c, "Memory not found")
		}
		if err != nil {
			return utils.SendInternalServerError(c, "Failed to load memory")
		}

		payload, err := webApp.NFCService.TagPayload(memory.PublicPageID)
		if err != nil {
			return utils.SendUnprocessableEntity(c, err.Error(), nil)
		}

		return utils.SendSuccess(c, fiber.Map{
			"url":         webApp.NFCService.PageURL(memory.PublicPageID),
			"ndef_base64": base64.StdEncoding.EncodeToString(payload),
		}, "")
	}
}

// MemoryPreview renders a share-card PNG for a memory page
func MemoryPreview(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		memory, err := webApp.Repos.Memory.GetByID(c.Context(), c.Params("id"))
		if errors.Is(err, repositories.ErrMemoryNotFound) {
			return utils.SendNotFound(c, "Memory not found")
		}
		if err != nil {
			return utils.SendInternalServerError(c, "Failed to load memory")
		}

		image, err := webApp.PreviewService.GeneratePreview(c.Context(), memory)
		if err != nil {
			return utils.SendInternalServerError(c, "Failed to render preview")
		}

		c.Set("Content-Type", "image/png")
		return c.Send(image)
	}
}

// SetMemoryStatus lets staff override a page's status, e.g. archiving a
// reported page.
func SetMemoryStatus(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Status models.MemoryStatus `json:"status"`
		}
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "Invalid payload", nil)
		}

		switch req.Status {
		case models.MemoryStatusDraft, models.MemoryStatusPublished, models.MemoryStatusArchived:
		default:
			return utils.SendUnprocessableEntity(c, "unknown status", nil)
		}

		err := webApp.Repos.Memory.SetStatus(c.Context(), c.Params("id"), req.Status)
		if errors.Is(err, repositories.ErrMemoryNotFound) {
			return utils.SendNotFound(c, "Memory not found")
		}
		if err != nil {
			return utils.SendInternalServerError(c, "Failed to update status")
		}
		return utils.SendSuccess(c, nil, "Status updated")
	}
}

// StaffList lists all staff accounts
func StaffList(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accounts, err := webApp.Repos.Staff.List(c.Context())
		if err != nil {
			return utils.SendInternalServerError(c, "Failed to list staff")
		}
		return utils.SendSuccess(c, accounts, "")
	}
}

// StaffUpsert creates or updates a staff account and returns its login
// access code.
func StaffUpsert(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req webmodels.StaffUpsertRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "Invalid staff payload", nil)
		}
		if err := utils.ValidateEmail(req.Email); err != nil {
			return utils.SendUnprocessableEntity(c, err.Error(), nil)
		}
		if err := utils.ValidateRole(req.Role); err != nil {
			return utils.SendUnprocessableEntity(c, err.Error(), nil)
		}

		if req.UID == "" {
			req.UID = uuid.NewString()
		}

		account := &models.Staff{
			UID:         req.UID,
			Email:       req.Email,
			DisplayName: req.DisplayName,
			Role:        req.Role,
			Permissions: req.Permissions,
			AdminTenant: req.AdminTenant,
		}

		if err := webApp.Repos.Staff.Upsert(c.Context(), account); err != nil {
			return utils.SendInternalServerError(c, "Failed to save staff account")
		}

		return utils.SendCreated(c, fiber.Map{
			"staff":       account,
			"access_code": webApp.SessionService.AccessCodeFor(account.UID),
		}, "Staff account saved")
	}
}

// SecurityEventsAPI lists recent security events within the caller's scope
func SecurityEventsAPI(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, ok := utils.ExtractStaffSession(c)
		if !ok {
			return utils.SendForbidden(c, "Access denied")
		}

		limit, _ := strconv.Atoi(c.Query("limit", "100"))
		events, err := webApp.Repos.SecurityEvent.ListRecent(c.Context(), tenantScope(session, c), limit)
		if err != nil {
			return utils.SendInternalServerError(c, "Failed to list security events")
		}
		return utils.SendSuccess(c, events, "")
	}
}
