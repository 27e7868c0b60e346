package config

const (
	TypeSubscriptionExpiry = "subscription:expire"
)

var DefinedTasks = map[string]struct{}{
	TypeSubscriptionExpiry: {},
}
