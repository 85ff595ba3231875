package types

// NotificationPermission mirrors the browser's notification permission states.
type NotificationPermission string

const (
	PermissionGranted NotificationPermission = "granted"
	PermissionDenied  NotificationPermission = "denied"
	PermissionDefault NotificationPermission = "default"
)

func (p NotificationPermission) Valid() bool {
	switch p {
	case PermissionGranted, PermissionDenied, PermissionDefault:
		return true
	}
	return false
}
