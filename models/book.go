package models

// SavedBook is an entry in a user's saved list. BookID is the identifier from the
// external catalog and is unique within one user's list.
type SavedBook struct {
	BookID      string   `bson:"bookId" json:"bookId" validate:"required"`
	Title       string   `bson:"title" json:"title" validate:"required"`
	Authors     []string `bson:"authors" json:"authors"`
	Description string   `bson:"description,omitempty" json:"description,omitempty"`
	Image       string   `bson:"image,omitempty" json:"image,omitempty"`
	Link        string   `bson:"link,omitempty" json:"link,omitempty"`
}
