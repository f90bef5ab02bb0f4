package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/memoralabs/memora/memora/database/models"
)

var (
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// ValidateEmail checks basic email shape. Full RFC validation is not the
// goal; this catches typos before they reach the claim pipeline.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

// ValidateDesign rejects designs that the page renderer cannot display.
func ValidateDesign(d *models.MemoryDesign) error {
	if d == nil {
		return nil
	}
	for _, color := range d.Colors {
		if !hexColorPattern.MatchString(color) {
			return fmt.Errorf("invalid color %q", color)
		}
	}
	return nil
}

// ValidateBlocks checks every content block and normalizes positions to
// their slice order.
func ValidateBlocks(blocks []models.ContentBlock) error {
	for i := range blocks {
		b := &blocks[i]
		switch b.Kind {
		case models.BlockKindText:
			if strings.TrimSpace(b.Text) == "" {
				return fmt.Errorf("block %d: text block is empty", i)
			}
		case models.BlockKindPhoto:
			if b.PhotoURL == "" {
				return fmt.Errorf("block %d: photo block has no photo", i)
			}
		case models.BlockKindAlbum:
			if len(b.Photos) == 0 {
				return fmt.Errorf("block %d: album block has no photos", i)
			}
		default:
			return fmt.Errorf("block %d: unknown kind %q", i, b.Kind)
		}
		b.Position = i
	}
	return nil
}

// ValidateRole checks a role string against the known set.
func ValidateRole(role models.StaffRole) error {
	switch role {
	case models.RoleViewer, models.RoleEditor, models.RoleTenantAdmin, models.RoleSuperAdmin:
		return nil
	default:
		return fmt.Errorf("unknown role %q", role)
	}
}
