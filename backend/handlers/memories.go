package handlers

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	webmodels "github.com/memoralabs/memora/backend/models"
	"github.com/memoralabs/memora/backend/utils"
	"github.com/memoralabs/memora/memora/claims"
	"github.com/memoralabs/memora/memora/database/models"
	"github.com/memoralabs/memora/memora/database/repositories"
)

// ownerFromBearer identifies the customer editing a page. Customers hold no
// account; possession of the claim link token is what proves ownership, the
// same way it proved the right to redeem.
func ownerFromBearer(webApp *WebApp, c *fiber.Ctx) (string, error) {
	auth := c.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", errors.New("missing bearer token")
	}

	token, err := claims.DecodeToken(strings.TrimPrefix(auth, prefix), webApp.codecOptions())
	if err != nil {
		return "", err
	}
	return token.Email, nil
}

// loadOwnedMemory fetches a memory and checks the caller owns it.
func loadOwnedMemory(webApp *WebApp, c *fiber.Ctx) (*models.Memory, error) {
	owner, err := ownerFromBearer(webApp, c)
	if err != nil {
		return nil, utils.SendUnauthorized(c, "A valid claim link is required")
	}

	memory, err := webApp.Repos.Memory.GetByID(c.Context(), c.Params("id"))
	if errors.Is(err, repositories.ErrMemoryNotFound) {
		return nil, utils.SendNotFound(c, "Memory not found")
	}
	if err != nil {
		return nil, utils.SendInternalServerError(c, "Failed to load memory")
	}

	if memory.OwnerUID != owner {
		return nil, utils.SendForbidden(c, "Not your memory page")
	}
	return memory, nil
}

// ListMyMemories lists the caller's memory pages
func ListMyMemories(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner, err := ownerFromBearer(webApp, c)
		if err != nil {
			return utils.SendUnauthorized(c, "A valid claim link is required")
		}

		memories, err := webApp.Repos.Memory.ListByOwner(c.Context(), owner)
		if err != nil {
			return utils.SendInternalServerError(c, "Failed to list memories")
		}
		return utils.SendSuccess(c, memories, "")
	}
}

// GetMemory returns one owned memory page with all draft content
func GetMemory(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		memory, err := loadOwnedMemory(webApp, c)
		if memory == nil {
			return err
		}
		return utils.SendSuccess(c, memory, "")
	}
}

// UpdateMemory applies an authoring update to an owned memory page
func UpdateMemory(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		memory, err := loadOwnedMemory(webApp, c)
		if memory == nil {
			return err
		}

		if memory.Status == models.MemoryStatusArchived {
			return utils.SendConflict(c, "Archived pages cannot be edited", nil)
		}

		var req webmodels.MemoryUpdateRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "Invalid update payload", nil)
		}

		if req.Title != nil {
			memory.Title = *req.Title
		}
		if req.Description != nil {
			memory.Description = *req.Description
		}
		if req.Design != nil {
			if err := utils.ValidateDesign(req.Design); err != nil {
				return utils.SendUnprocessableEntity(c, err.Error(), nil)
			}
			memory.Design = *req.Design
		}
		if req.Blocks != nil {
			if err := utils.ValidateBlocks(req.Blocks); err != nil {
				return utils.SendUnprocessableEntity(c, err.Error(), nil)
			}
			memory.Blocks = req.Blocks
		}

		if err := webApp.Repos.Memory.Update(c.Context(), memory); err != nil {
			return utils.SendInternalServerError(c, "Failed to save memory")
		}
		return utils.SendSuccess(c, memory, "Memory updated")
	}
}

// PublishMemory flips an owned memory page to its public state
func PublishMemory(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		memory, err := loadOwnedMemory(webApp, c)
		if memory == nil {
			return err
		}

		if len(memory.Blocks) == 0 {
			return utils.SendUnprocessableEntity(c, "Add at least one content block before publishing", nil)
		}

		if err := webApp.Repos.Memory.SetStatus(c.Context(), memory.ID, models.MemoryStatusPublished); err != nil {
			return utils.SendInternalServerError(c, "Failed to publish memory")
		}

		return utils.SendSuccess(c, fiber.Map{
			"public_page_id": memory.PublicPageID,
			"url":            webApp.NFCService.PageURL(memory.PublicPageID),
		}, "Memory published")
	}
}

// UploadMemoryPhoto stores a photo for an owned memory page and returns its URL
func UploadMemoryPhoto(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		memory, err := loadOwnedMemory(webApp, c)
		if memory == nil {
			return err
		}

		file, err := c.FormFile("photo")
		if err != nil {
			return utils.SendBadRequest(c, "photo file is required", nil)
		}

		const maxPhotoSize = 15 * 1024 * 1024
		if file.Size > maxPhotoSize {
			return utils.SendBadRequest(c, "Photo too large (max 15MB)", nil)
		}

		allowedTypes := map[string]bool{
			"image/jpeg": true,
			"image/jpg":  true,
			"image/png":  true,
			"image/webp": true,
		}
		contentType := file.Header.Get("Content-Type")
		if !allowedTypes[contentType] {
			return utils.SendBadRequest(c, "Only JPEG, PNG and WebP photos are accepted", nil)
		}

		src, err := file.Open()
		if err != nil {
			return utils.SendInternalServerError(c, "Failed to read photo")
		}
		defer src.Close()

		filename := fmt.Sprintf("%s%s", uuid.NewString(), filepath.Ext(file.Filename))
		url, err := webApp.SpacesService.UploadPhoto(c.Context(), memory.Tenant, memory.ID, filename, contentType, src)
		if err != nil {
			return utils.SendInternalServerError(c, "Failed to store photo")
		}

		return utils.SendCreated(c, fiber.Map{"url": url}, "Photo uploaded")
	}
}

// PublicPage serves a published memory page by its public page id. Drafts
// and archived pages are indistinguishable from missing ones.
func PublicPage(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		memory, err := webApp.Repos.Memory.GetByPublicPageID(c.Context(), c.Params("pageID"))
		if errors.Is(err, repositories.ErrMemoryNotFound) {
			return utils.SendNotFound(c, "Page not found")
		}
		if err != nil {
			return utils.SendInternalServerError(c, "Failed to load page")
		}

		if memory.Status != models.MemoryStatusPublished {
			return utils.SendNotFound(c, "Page not found")
		}

		return utils.SendSuccess(c, webmodels.NewPublicPageDTO(memory), "")
	}
}
