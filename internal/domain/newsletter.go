package domain

// NewsletterEmail is one message a sender contributed to a digest.
type NewsletterEmail struct {
	From            string `json:"from"`
	UnsubscribeLink string `json:"unsubscribeLink"`
}

// NewsletterDigest summarizes one sender's newsletter emails as aggregated by the backend.
type NewsletterDigest struct {
	EmailID         string            `json:"emailId"`
	CompanyName     string            `json:"companyName"`
	CompanyLogo     string            `json:"companyLogo"`
	UnsubscribeLink string            `json:"unsubscribeLink"`
	Emails          []NewsletterEmail `json:"emails"`
}

// ListItem is the flat projection consumed by the presentation layer.
type ListItem struct {
	Title           string
	Email           string
	CompanyLogo     string
	NumberOfEmails  int
	UnsubscribeLink string
}

func (d NewsletterDigest) ListItem() ListItem {
	return ListItem{
		Title:           d.CompanyName,
		Email:           d.EmailID,
		CompanyLogo:     d.CompanyLogo,
		NumberOfEmails:  len(d.Emails),
		UnsubscribeLink: d.UnsubscribeLink,
	}
}

// ViewState is what the newsletter view renders. Mails is always replaced as a whole.
type ViewState struct {
	Mails   []NewsletterDigest `json:"mails"`
	Loading bool               `json:"loading"`
}

func (s ViewState) Items() []ListItem {
	items := make([]ListItem, 0, len(s.Mails))
	for _, digest := range s.Mails {
		items = append(items, digest.ListItem())
	}
	return items
}
