package widgets

// Filtered is published by the feature list after every filter.
type Filtered struct {
	Query string
	Count int
}

// HasScrollList is published once the feature list renders a scrollable list.
type HasScrollList struct{}

// AppReady is published once the feature list finished loading.
type AppReady struct {
	Count int
}

// FilterCategory is published when the user clicks a feature's category.
type FilterCategory struct {
	Val string
}

// FilterOwner is published when the user clicks a feature owner.
type FilterOwner struct {
	Val string
}

// FilterComponent is published when the user clicks a feature's component.
type FilterComponent struct {
	Val string
}

// QueryChanged is published when the user picks a version in the metadata panel.
type QueryChanged struct {
	Version string
}

// Input is published on every edit of the search box.
type Input struct {
	Value string
}

// Search is published when the search box is submitted or cleared.
type Search struct {
	Value string
}

// Click is published by buttons.
type Click struct{}

// HistoryState is the state attached to a history entry.
type HistoryState struct {
	ID int64
}

// PopState is published when navigating back. State is nil for the initial entry.
type PopState struct {
	State *HistoryState
}
