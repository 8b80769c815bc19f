package rediscache

import "time"

const (
	menuKeyPrefix     = "menu:"
	deliveryKeyPrefix = "delivery:status:"
	eventKeyPrefix    = "payment:event:"

	// DeliveryStatusTTL bounds how long a stale status may be served
	DeliveryStatusTTL = 24 * time.Hour
	// EventDedupeTTL covers the provider's retry window
	EventDedupeTTL = 48 * time.Hour
)

func menuKey(placeID string) string {
	return menuKeyPrefix + placeID
}

func deliveryKey(orderID string) string {
	return deliveryKeyPrefix + orderID
}

func eventKey(eventID string) string {
	return eventKeyPrefix + eventID
}
