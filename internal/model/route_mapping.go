package model

import "time"

// RouteMapping is the routing-sync record the edge request router reads at
// request time to dispatch a hostname to the owning project backend.
type RouteMapping struct {
	Domain    string    `json:"domain" db:"domain"`
	ProjectID string    `json:"project_id" db:"project_id"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
