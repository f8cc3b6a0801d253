package request

// AddDomain connects a customer-managed domain to a project.
type AddDomain struct {
	Domain    string  `json:"domain" validate:"required,domainname"`
	ProjectID *string `json:"project_id,omitempty"`
}

// SetupExternalDomain connects a domain through a managed DNS zone.
type SetupExternalDomain struct {
	Domain    string  `json:"domain" validate:"required,domainname"`
	ProjectID *string `json:"project_id,omitempty"`
}

// UpdateDomainStatus moves a domain forward through its lifecycle.
type UpdateDomainStatus struct {
	Status  string  `json:"status" validate:"required"`
	Message *string `json:"message,omitempty"`
}

// CheckAvailability prices a batch of candidate names.
type CheckAvailability struct {
	Domains []string `json:"domains" validate:"required,min=1,max=20,dive,required"`
}
