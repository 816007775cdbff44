package repository

//go:generate mockgen -source=book_repository.go -destination=mocks/mock_book_repository.go -package=mocks

import (
	"context"
	"database/sql"

	"ctchen222/bookshelf/internal/api/models"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// BookRepository defines the interface for book data operations.
type BookRepository interface {
	ReadByID(ctx context.Context, id string) (*models.Book, error)
	ReadManyByID(ctx context.Context, ids []string) ([]models.Book, error)
	Insert(ctx context.Context, book *models.Book) error
}

type sqliteBookRepository struct {
	db *sqlx.DB
}

// NewBookRepository creates a new SQLite-based BookRepository.
func NewBookRepository(db *sqlx.DB) BookRepository {
	return &sqliteBookRepository{db: db}
}

const bookColumns = `id, title, author, cover_image_url, page_count, publisher, synopsis`

// ReadByID returns the book with id, or nil if there is none.
func (r *sqliteBookRepository) ReadByID(ctx context.Context, id string) (*models.Book, error) {
	ctx, span := tracer.Start(ctx, "BookRepository.ReadByID", trace.WithAttributes(
		attribute.String("book.id", id),
	))
	defer span.End()

	var book models.Book
	err := r.db.GetContext(ctx, &book, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get book")
	}
	return &book, nil
}

// ReadManyByID loads all books whose id is in ids with a single query.
// Missing ids are skipped; the result order is unspecified.
func (r *sqliteBookRepository) ReadManyByID(ctx context.Context, ids []string) ([]models.Book, error) {
	ctx, span := tracer.Start(ctx, "BookRepository.ReadManyByID", trace.WithAttributes(
		attribute.Int("book.count", len(ids)),
	))
	defer span.End()

	if len(ids) == 0 {
		return []models.Book{}, nil
	}

	query, args, err := sqlx.In(`SELECT `+bookColumns+` FROM books WHERE id IN (?)`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build book query")
	}

	books := []models.Book{}
	if err := r.db.SelectContext(ctx, &books, r.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "failed to get books")
	}
	return books, nil
}

// Insert stores a book, replacing any existing book with the same id.
func (r *sqliteBookRepository) Insert(ctx context.Context, book *models.Book) error {
	ctx, span := tracer.Start(ctx, "BookRepository.Insert")
	defer span.End()

	query := `INSERT OR REPLACE INTO books (` + bookColumns + `)
		VALUES (:id, :title, :author, :cover_image_url, :page_count, :publisher, :synopsis)`
	if _, err := r.db.NamedExecContext(ctx, query, book); err != nil {
		return wrapWrite(err, "failed to insert book")
	}
	return nil
}
