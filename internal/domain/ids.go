package domain

// UserID identifies the account that owns a profile and its activity history.
// It is opaque: its format is controlled by the upstream auth provider.
type UserID string

// PlanID is an internal identifier for a generated plan or coach reply.
type PlanID string
