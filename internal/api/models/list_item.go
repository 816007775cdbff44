package models

// UnratedRating marks a list item the owner has not rated yet.
const UnratedRating = -1

// ListItem is a user's entry for a book on their reading list.
// Dates are unix milliseconds.
type ListItem struct {
	ID         string `db:"id" json:"id"`
	OwnerID    string `db:"owner_id" json:"ownerId"`
	BookID     string `db:"book_id" json:"bookId"`
	Rating     int    `db:"rating" json:"rating"`
	Notes      string `db:"notes" json:"notes"`
	StartDate  int64  `db:"start_date" json:"startDate"`
	FinishDate *int64 `db:"finish_date" json:"finishDate"`
}

// ListItemView is a list item joined with its book. Book is nil when the
// referenced book no longer exists.
type ListItemView struct {
	ListItem
	Book *Book `json:"book"`
}

// ListItemFilter selects list items. Empty fields are not filtered on.
type ListItemFilter struct {
	OwnerID string
	BookID  string
}

// ListItemPatch holds the fields a client may change on a list item.
// Identity fields are absent, so a patch never changes them.
type ListItemPatch struct {
	Rating     *int    `json:"rating" validate:"omitempty,min=-1,max=5"`
	Notes      *string `json:"notes" validate:"omitempty,max=10000"`
	StartDate  *int64  `json:"startDate" validate:"omitempty,gte=0"`
	FinishDate *int64  `json:"finishDate" validate:"omitempty,gte=0"`
}

// Apply returns a copy of item with the patch's non-nil fields merged in.
func (p ListItemPatch) Apply(item ListItem) ListItem {
	if p.Rating != nil {
		item.Rating = *p.Rating
	}
	if p.Notes != nil {
		item.Notes = *p.Notes
	}
	if p.StartDate != nil {
		item.StartDate = *p.StartDate
	}
	if p.FinishDate != nil {
		finish := *p.FinishDate
		item.FinishDate = &finish
	}
	return item
}

// CreateListItemRequest is the body of POST /list-items.
type CreateListItemRequest struct {
	BookID string `json:"bookId"`
}

// ListItemResponse wraps a single list item.
type ListItemResponse struct {
	ListItem *ListItemView `json:"listItem"`
}

// ListItemsResponse wraps the caller's list items.
type ListItemsResponse struct {
	ListItems []ListItemView `json:"listItems"`
}

// SuccessResponse acknowledges an operation that returns no entity.
type SuccessResponse struct {
	Success bool `json:"success"`
}
