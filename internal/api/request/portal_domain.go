package request

// AddPortalDomain connects a white-label portal hostname.
type AddPortalDomain struct {
	Domain string `json:"domain" validate:"required,domainname"`
}
