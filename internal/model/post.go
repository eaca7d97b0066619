package model

import "time"

// BlogPost is a legacy content entity kept for the marketing site.
// It has no relationship to users or meals.
type BlogPost struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"` // ≤ 200 chars
	Content   string    `json:"content"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BlogPostPatch is a partial update; nil fields are left unchanged.
type BlogPostPatch struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	Published *bool   `json:"published"`
}

// Merge applies the patch to p, only touching fields the client sent.
func (patch BlogPostPatch) Merge(p *BlogPost) {
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	if patch.Published != nil {
		p.Published = *patch.Published
	}
}
