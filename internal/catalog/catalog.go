// Package catalog loads the book catalogue used to seed the database.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"ctchen222/bookshelf/internal/api/models"
	"ctchen222/bookshelf/internal/api/repository"
	"ctchen222/bookshelf/internal/validator"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
)

// File is the layout of a catalogue file.
type File struct {
	Books []models.Book `yaml:"books"`
}

// Load reads and parses the catalogue file at path.
func Load(path string) ([]models.Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogue: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalogue and validates every book. Books without an
// id get a random one.
func Parse(data []byte) ([]models.Book, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalogue: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Books))
	for i := range file.Books {
		book := &file.Books[i]
		if book.ID == "" {
			book.ID = uuid.New().String()
		}
		if _, ok := seen[book.ID]; ok {
			return nil, fmt.Errorf("book %d: duplicate id %q", i, book.ID)
		}
		seen[book.ID] = struct{}{}

		if err := validator.GetValidator().Struct(book); err != nil {
			return nil, fmt.Errorf("book %d (%s): invalid %s", i, book.ID, validator.FirstInvalidField(err))
		}
	}
	return file.Books, nil
}

// Seed stores books, replacing existing books with the same id.
func Seed(ctx context.Context, repo repository.BookRepository, books []models.Book) error {
	for i := range books {
		if err := repo.Insert(ctx, &books[i]); err != nil {
			return fmt.Errorf("failed to seed book %s: %w", books[i].ID, err)
		}
	}
	slog.InfoContext(ctx, "Catalogue seeded", "book.count", len(books))
	return nil
}
