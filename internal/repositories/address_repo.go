package repositories

import "pasar/internal/models"

// AddressRepository defines the interface for shipping address data access.
type AddressRepository interface {
	Create(address *models.Address) error
	GetByUser(userID string) ([]models.Address, error)
	// GetDefaultByUser returns the user's default shipping address, or
	// ErrNotFound when the user has none.
	GetDefaultByUser(userID string) (*models.Address, error)
}
