package models

import (
	"time"
)

type MemoryStatus string

const (
	MemoryStatusDraft     MemoryStatus = "draft"
	MemoryStatusPublished MemoryStatus = "published"
	MemoryStatusArchived  MemoryStatus = "archived"
)

type BlockKind string

const (
	BlockKindText  BlockKind = "text"
	BlockKindPhoto BlockKind = "photo"
	BlockKindAlbum BlockKind = "album"
)

// ContentBlock is one ordered element of a memory page.
type ContentBlock struct {
	ID       string    `bson:"id" json:"id"`
	Kind     BlockKind `bson:"kind" json:"kind"`
	Text     string    `bson:"text,omitempty" json:"text,omitempty"`
	PhotoURL string    `bson:"photo_url,omitempty" json:"photo_url,omitempty"`
	Photos   []string  `bson:"photos,omitempty" json:"photos,omitempty"`
	Caption  string    `bson:"caption,omitempty" json:"caption,omitempty"`
	Position int       `bson:"position" json:"position"`
}

type MemoryDesign struct {
	Theme  string   `bson:"theme" json:"theme"`
	Layout string   `bson:"layout" json:"layout"`
	Colors []string `bson:"colors" json:"colors"`
}

type MemoryMetadata struct {
	ChannelID   string `bson:"channel_id" json:"channel_id"`
	Source      string `bson:"source" json:"source"`
	ProductType string `bson:"product_type" json:"product_type"`
}

// Memory is one authored memory page. Repeated purchases yield repeated
// Memory records; each traces back to its ClaimRequest via that record's
// memory_id.
type Memory struct {
	ID           string         `bson:"_id,omitempty" json:"id"`
	OwnerUID     string         `bson:"owner_uid" json:"owner_uid"`
	Tenant       string         `bson:"tenant" json:"tenant"`
	Metadata     MemoryMetadata `bson:"metadata" json:"metadata"`
	Title        string         `bson:"title" json:"title"`
	Description  string         `bson:"description" json:"description"`
	Type         string         `bson:"type" json:"type"`
	Status       MemoryStatus   `bson:"status" json:"status"`
	PublicPageID string         `bson:"public_page_id" json:"public_page_id"`
	Design       MemoryDesign   `bson:"design" json:"design"`
	Blocks       []ContentBlock `bson:"blocks" json:"blocks"`
	CreatedAt    time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `bson:"updated_at" json:"updated_at"`
}

func DefaultDesign() MemoryDesign {
	return MemoryDesign{
		Theme:  "classic",
		Layout: "single-column",
		Colors: []string{"#1f2937", "#f9fafb"},
	}
}

func (m *Memory) ApplyDefaults() {
	if m.Status == "" {
		m.Status = MemoryStatusDraft
	}
	if m.Design.Theme == "" {
		m.Design = DefaultDesign()
	}
	if m.Blocks == nil {
		m.Blocks = []ContentBlock{}
	}
}
