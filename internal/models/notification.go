package models

// Notification is what the dispatcher reports back to the user surface.
type Notification struct {
	Action  Action
	Success bool
	Message string
}
