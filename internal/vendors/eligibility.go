package vendors

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/fulfillment-router/pkg/db/models"
)

// Eligible reports whether an approved vendor may work an order of the given
// class whose lines carry brandIDs.
func Eligible(vendor *models.Vendor, isPrime bool, brandIDs []uuid.UUID) bool {
	if vendor == nil || !vendor.IsApproved {
		return false
	}
	return Authorized(vendor, isPrime, brandIDs)
}

// Authorized checks class and brand coverage without looking at approval. A
// prime vendor with no declared brands accepts any prime brand.
func Authorized(vendor *models.Vendor, isPrime bool, brandIDs []uuid.UUID) bool {
	if vendor == nil || vendor.Class.HandlesPrime() != isPrime {
		return false
	}
	if !isPrime || len(vendor.BrandIDs) == 0 {
		return true
	}
	for _, id := range brandIDs {
		if !vendor.BrandIDs.Contains(id) {
			return false
		}
	}
	return true
}
