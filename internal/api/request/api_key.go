package request

// CreateAPIKey requests a new API key for the calling owner.
type CreateAPIKey struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}
