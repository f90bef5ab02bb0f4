package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	webmodels "github.com/memoralabs/memora/backend/models"
	"github.com/memoralabs/memora/backend/utils"
	"github.com/memoralabs/memora/memora/claims"
	"github.com/memoralabs/memora/memora/database/models"
)

func (w *WebApp) codecOptions() claims.CodecOptions {
	return claims.CodecOptions{
		SkipExpiryCheck: w.Config.Claims.SkipExpiryCheck,
	}
}

// DecodeClaimToken previews a claim link before the customer commits: the
// landing page shows who the link was issued to and whether it is still
// usable. Nothing is written.
func DecodeClaimToken(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req webmodels.RedeemRequest
		if err := c.BodyParser(&req); err != nil || req.Token == "" {
			return utils.SendBadRequest(c, "token is required", nil)
		}

		token, err := claims.DecodeToken(req.Token, webApp.codecOptions())
		switch {
		case errors.Is(err, claims.ErrTokenExpired):
			return utils.SendGone(c, "Claim link has expired")
		case err != nil:
			return utils.SendBadRequest(c, "Claim link is not valid", nil)
		}

		preview := &webmodels.TokenPreview{
			Email:     token.Email,
			Tenant:    token.Tenant,
			ChannelID: token.ChannelID,
			IssuedAt:  token.IssuedAt,
			ExpiresAt: token.ExpiresAt,
		}

		// Enrich from the claim request when it still exists; a missing
		// record is reported at redemption time, not here.
		if cr, err := webApp.Repos.ClaimRequest.GetByKey(c.Context(), token.SubjectID); err == nil {
			preview.ProductType = cr.ProductType
			if cr.Status != models.ClaimStatusPending {
				return utils.SendConflict(c, "Claim link has already been used", nil)
			}
		}

		return utils.SendSuccess(c, preview, "")
	}
}

// RedeemClaim turns a valid claim link into a draft memory page. The
// claimant is identified by the email baked into the token.
func RedeemClaim(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req webmodels.RedeemRequest
		if err := c.BodyParser(&req); err != nil || req.Token == "" {
			return utils.SendBadRequest(c, "token is required", nil)
		}

		token, err := claims.DecodeToken(req.Token, webApp.codecOptions())
		switch {
		case errors.Is(err, claims.ErrTokenExpired):
			return utils.SendGone(c, "Claim link has expired")
		case err != nil:
			return utils.SendBadRequest(c, "Claim link is not valid", nil)
		}

		outcome := webApp.Processor.ProcessClaimRequest(c.Context(), token.SubjectID, token.Email, c.Get("Origin"))
		if outcome.OK() {
			return utils.SendCreated(c, &webmodels.RedeemResponse{
				MemoryID:     outcome.Memory.ID,
				PublicPageID: outcome.Memory.PublicPageID,
			}, "Memory page created")
		}

		reason := map[string]string{"reason": string(outcome.Reason)}
		switch outcome.Reason {
		case claims.ReasonNotFound:
			return utils.SendNotFound(c, "Unknown claim link")
		case claims.ReasonTenantMismatch:
			return utils.SendForbidden(c, "Claim link does not belong to this site")
		case claims.ReasonAlreadyClaimed:
			return utils.SendConflict(c, "Claim link has already been used", reason)
		case claims.ReasonLinkExpired:
			return utils.SendGone(c, "Claim link has expired")
		default:
			return utils.SendInternalServerError(c, "Failed to process claim")
		}
	}
}
