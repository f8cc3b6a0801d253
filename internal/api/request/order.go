package request

// CreateOrder starts a domain purchase awaiting payment.
type CreateOrder struct {
	Domain    string  `json:"domain" validate:"required,domainname"`
	TermYears int     `json:"term_years" validate:"required,min=1,max=10"`
	ProjectID *string `json:"project_id,omitempty"`
}
