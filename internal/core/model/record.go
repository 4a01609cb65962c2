package model

import "time"

const (
	CategoryContacts = "contacts"

	PropertyName              = "name"
	PropertyHomeownershipRate = "homeownership_rate"
	PropertyMedianHomeAge     = "median_home_age"

	PropertyFirstName = "firstname"
	PropertyLastName  = "lastname"
	PropertyEmail     = "email"
)

// Record is a CRM object as returned by the v3 objects API. Property values
// arrive as strings (or null) regardless of their declared type.
type Record struct {
	ID         string            `json:"id"`
	Category   string            `json:"-"`
	Properties map[string]string `json:"properties"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
	Archived   bool              `json:"archived"`
}

func (r Record) Prop(name string) string {
	if r.Properties == nil {
		return ""
	}
	return r.Properties[name]
}

type ZipCode struct {
	ID                string
	Name              string
	HomeownershipRate string
	MedianHomeAge     string
	Contact           *Contact
}

type Contact struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	ZipCode   *ZipCode
}

func (c Contact) FullName() string {
	switch {
	case c.FirstName != "" && c.LastName != "":
		return c.FirstName + " " + c.LastName
	case c.FirstName != "":
		return c.FirstName
	case c.LastName != "":
		return c.LastName
	}
	return c.Email
}

// ZipCodeInput holds the properties sent when creating a zip code record.
type ZipCodeInput struct {
	Name              string
	HomeownershipRate float64
	MedianHomeAge     int
}

func (in ZipCodeInput) Properties() map[string]interface{} {
	return map[string]interface{}{
		PropertyName:              in.Name,
		PropertyHomeownershipRate: in.HomeownershipRate,
		PropertyMedianHomeAge:     in.MedianHomeAge,
	}
}

func ZipCodeFromRecord(r Record) ZipCode {
	return ZipCode{
		ID:                r.ID,
		Name:              r.Prop(PropertyName),
		HomeownershipRate: r.Prop(PropertyHomeownershipRate),
		MedianHomeAge:     r.Prop(PropertyMedianHomeAge),
	}
}

func ContactFromRecord(r Record) Contact {
	return Contact{
		ID:        r.ID,
		FirstName: r.Prop(PropertyFirstName),
		LastName:  r.Prop(PropertyLastName),
		Email:     r.Prop(PropertyEmail),
	}
}
