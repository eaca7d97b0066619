package model

import "time"

// Partner is a legacy business-partner record. Email is unique.
type Partner struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`  // ≤ 100 chars
	Email     string    `json:"email"` // unique
	Company   string    `json:"company"`
	Phone     string    `json:"phone,omitempty"`
	Website   string    `json:"website,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PartnerPatch is a partial update; nil fields are left unchanged.
type PartnerPatch struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Company *string `json:"company"`
	Phone   *string `json:"phone"`
	Website *string `json:"website"`
	Active  *bool   `json:"active"`
}

// Merge applies the patch to p, only touching fields the client sent.
func (patch PartnerPatch) Merge(p *Partner) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Email != nil {
		p.Email = *patch.Email
	}
	if patch.Company != nil {
		p.Company = *patch.Company
	}
	if patch.Phone != nil {
		p.Phone = *patch.Phone
	}
	if patch.Website != nil {
		p.Website = *patch.Website
	}
	if patch.Active != nil {
		p.Active = *patch.Active
	}
}
