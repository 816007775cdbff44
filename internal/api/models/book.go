package models

// Book is a catalogue entry. The API only reads books; they are loaded with
// the seed command.
type Book struct {
	ID            string `db:"id" json:"id" yaml:"id"`
	Title         string `db:"title" json:"title" yaml:"title" validate:"required"`
	Author        string `db:"author" json:"author" yaml:"author" validate:"required"`
	CoverImageURL string `db:"cover_image_url" json:"coverImageUrl" yaml:"coverImageUrl" validate:"omitempty,url"`
	PageCount     int    `db:"page_count" json:"pageCount" yaml:"pageCount" validate:"gte=0"`
	Publisher     string `db:"publisher" json:"publisher" yaml:"publisher"`
	Synopsis      string `db:"synopsis" json:"synopsis" yaml:"synopsis"`
}

// BookResponse wraps a book for GET /books/:id.
type BookResponse struct {
	Book *Book `json:"book"`
}
