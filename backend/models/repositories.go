package models

import (
	"github.com/memoralabs/memora/memora/database/repositories"
)

// Repositories groups all repository interfaces for easy injection
type Repositories struct {
	ClaimRequest  repositories.ClaimRequestRepository
	Memory        repositories.MemoryRepository
	Order         repositories.OrderRepository
	Staff         repositories.StaffRepository
	SecurityEvent repositories.SecurityEventRepository
}

// NewRepositories creates a new repositories group from individual repositories
func NewRepositories(
	claimRequest repositories.ClaimRequestRepository,
	memory repositories.MemoryRepository,
	order repositories.OrderRepository,
	staff repositories.StaffRepository,
	securityEvent repositories.SecurityEventRepository,
) *Repositories {
	return &Repositories{
		ClaimRequest:  claimRequest,
		Memory:        memory,
		Order:         order,
		Staff:         staff,
		SecurityEvent: securityEvent,
	}
}
