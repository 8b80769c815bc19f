package menu

import "errors"

var (
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrScrapeFailed       = errors.New("could not extract a menu from the page")
	ErrPartnerDisabled    = errors.New("partner menu API is not configured")
	ErrPlaceNotFound      = errors.New("place not found")
)
