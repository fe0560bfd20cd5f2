package dto

// CompanyInput is one outreach target supplied at campaign creation.
type CompanyInput struct {
	WebsiteURL    string `json:"website_url"`
	CompanyName   string `json:"company_name,omitempty"`
	ContactEmail  string `json:"contact_email,omitempty"`
	ContactPerson string `json:"contact_person,omitempty"`
	Phone         string `json:"phone,omitempty"`
}

// SenderProfileInput is the message identity filled into every form.
type SenderProfileInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company,omitempty"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Message   string `json:"message"`
}

// CreateCampaignRequest is the JSON body of POST /campaigns.
type CreateCampaignRequest struct {
	Name      string             `json:"name"`
	Sender    SenderProfileInput `json:"sender"`
	Companies []CompanyInput     `json:"companies"`
}
