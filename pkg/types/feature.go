package types

import (
	"strconv"
	"time"
)

// AllFeaturesTopic is the notification topic covering every feature.
const AllFeaturesTopic = "new-feature"

// Feature is one entry of the feature catalog.
type Feature struct {
	Id        int64     `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Summary   string    `json:"summary" yaml:"summary"`
	Category  string    `json:"category" yaml:"category"`
	Component string    `json:"component" yaml:"component"`
	Owners    []string  `json:"owners" yaml:"owners"`
	Milestone int       `json:"milestone,omitempty" yaml:"milestone"`
	Status    string    `json:"status" yaml:"status"`
	Updated   time.Time `json:"updated" yaml:"updated"`
}

// VersionKind tells milestone versions apart from status versions.
type VersionKind string

const (
	VersionKindMilestone VersionKind = "milestone"
	VersionKindStatus    VersionKind = "status"
)

// Version is an entry of the metadata panel: a milestone number or a
// status string.
type Version struct {
	Kind  VersionKind `json:"kind"`
	Value string      `json:"value"`
	Count int         `json:"count"`
}

// MilestoneVersion builds the version entry for milestone m.
func MilestoneVersion(m int, count int) Version {
	return Version{Kind: VersionKindMilestone, Value: strconv.Itoa(m), Count: count}
}

// View is a legend entry.
type View struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// Subscription is a user's subscription to a notification topic.
type Subscription struct {
	Email string `json:"email"`
	Topic string `json:"topic"`
}

// ServiceWorkerRegistration records a client that registered its service worker.
type ServiceWorkerRegistration struct {
	Id           string    `json:"id"`
	Scope        string    `json:"scope"`
	RegisteredAt time.Time `json:"registered_at"`
}
