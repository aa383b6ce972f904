package patient

import "time"

// Patient is one row of the tenant's patient registry.
type Patient struct {
	MRN            string     `json:"mrn"`
	Name           string     `json:"name"`
	MemberNumber   string     `json:"member_number,omitempty"`
	Gender         string     `json:"gender"`
	BirthDate      *time.Time `json:"birth_date,omitempty"`
	IdentityNumber string     `json:"identity_number,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	Address        string     `json:"address,omitempty"`
	Village        string     `json:"village,omitempty"`
	District       string     `json:"district,omitempty"`
	City           string     `json:"city,omitempty"`
	Province       string     `json:"province,omitempty"`
}
