package common

import "fmt"

var (
	// Star keys
	starSet string = "stars:user:%s" // email

	// Notification keys
	notificationUserTopics  string = "notifications:user:%s"  // email
	notificationSubscribers string = "notifications:topic:%s" // topic

	// Catalog keys
	catalogSeedLock string = "catalog:seed:lock"
	catalogSeen     string = "catalog:seen"

	// Service worker keys
	serviceWorkerIndex string = "serviceworker:index"
	serviceWorkerState string = "serviceworker:state:%s" // registrationId

	// Gateway keys
	gatewayInitLock string = "gateway:init:%s:lock" // name
)

var Keys = &redisKeys{}

type redisKeys struct{}

// Star keys
func (rk *redisKeys) StarSet(email string) string {
	return fmt.Sprintf(starSet, email)
}

// Notification keys
func (rk *redisKeys) NotificationUserTopics(email string) string {
	return fmt.Sprintf(notificationUserTopics, email)
}

func (rk *redisKeys) NotificationSubscribers(topic string) string {
	return fmt.Sprintf(notificationSubscribers, topic)
}

// Catalog keys
func (rk *redisKeys) CatalogSeedLock() string {
	return catalogSeedLock
}

func (rk *redisKeys) CatalogSeen() string {
	return catalogSeen
}

// Service worker keys
func (rk *redisKeys) ServiceWorkerIndex() string {
	return serviceWorkerIndex
}

func (rk *redisKeys) ServiceWorkerState(registrationId string) string {
	return fmt.Sprintf(serviceWorkerState, registrationId)
}

// Gateway keys
func (rk *redisKeys) GatewayInitLock(name string) string {
	return fmt.Sprintf(gatewayInitLock, name)
}
