package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"ctchen222/bookshelf/internal/api/repository"
	"ctchen222/bookshelf/internal/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
books:
  - id: book-dune
    title: Dune
    author: Frank Herbert
    pageCount: 412
    publisher: Chilton Books
  - title: The Hobbit
    author: J.R.R. Tolkien
    coverImageUrl: https://example.com/hobbit.jpg
`

func TestParse(t *testing.T) {
	books, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.Len(t, books, 2)

	assert.Equal(t, "book-dune", books[0].ID)
	assert.Equal(t, "Dune", books[0].Title)
	assert.Equal(t, 412, books[0].PageCount)
	assert.Equal(t, "Chilton Books", books[0].Publisher)

	assert.NotEmpty(t, books[1].ID)
	assert.Equal(t, "https://example.com/hobbit.jpg", books[1].CoverImageURL)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains string
	}{
		{"missing title", "books:\n  - id: b1\n    author: Someone\n", "invalid title"},
		{"bad cover url", "books:\n  - id: b1\n    title: T\n    author: A\n    coverImageUrl: not a url\n", "invalid coverImageUrl"},
		{"negative page count", "books:\n  - id: b1\n    title: T\n    author: A\n    pageCount: -3\n", "invalid pageCount"},
		{"duplicate id", "books:\n  - {id: b1, title: T, author: A}\n  - {id: b1, title: U, author: B}\n", "duplicate id"},
		{"not yaml", "books: [", "failed to parse catalogue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestLoadAndSeed(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "books.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	books, err := Load(path)
	require.NoError(t, err)

	pool, err := db.Open(ctx, db.MemoryDSN)
	require.NoError(t, err)
	defer pool.Close()
	repo := repository.NewBookRepository(pool)

	require.NoError(t, Seed(ctx, repo, books))
	// Seeding is repeatable.
	require.NoError(t, Seed(ctx, repo, books))

	got, err := repo.ReadByID(ctx, "book-dune")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, books[0], *got)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
