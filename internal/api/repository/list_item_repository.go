package repository

//go:generate mockgen -source=list_item_repository.go -destination=mocks/mock_list_item_repository.go -package=mocks

import (
	"context"
	"database/sql"
	"strings"

	"ctchen222/bookshelf/internal/api/apperr"
	"ctchen222/bookshelf/internal/api/models"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ListItemRepository defines the interface for list item data operations.
type ListItemRepository interface {
	Query(ctx context.Context, filter models.ListItemFilter) ([]models.ListItem, error)
	Create(ctx context.Context, item *models.ListItem) error
	ReadByID(ctx context.Context, id string) (*models.ListItem, error)
	Update(ctx context.Context, item *models.ListItem) error
	Remove(ctx context.Context, id string) error
}

type sqliteListItemRepository struct {
	db *sqlx.DB
}

// NewListItemRepository creates a new SQLite-based ListItemRepository.
func NewListItemRepository(db *sqlx.DB) ListItemRepository {
	return &sqliteListItemRepository{db: db}
}

const listItemColumns = `id, owner_id, book_id, rating, notes, start_date, finish_date`

// Query returns the list items matching filter, oldest first.
func (r *sqliteListItemRepository) Query(ctx context.Context, filter models.ListItemFilter) ([]models.ListItem, error) {
	ctx, span := tracer.Start(ctx, "ListItemRepository.Query", trace.WithAttributes(
		attribute.String("list_item.owner_id", filter.OwnerID),
		attribute.String("list_item.book_id", filter.BookID),
	))
	defer span.End()

	var (
		where []string
		args  []any
	)
	if filter.OwnerID != "" {
		where = append(where, "owner_id = ?")
		args = append(args, filter.OwnerID)
	}
	if filter.BookID != "" {
		where = append(where, "book_id = ?")
		args = append(args, filter.BookID)
	}

	query := `SELECT ` + listItemColumns + ` FROM list_items`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY start_date, rowid`

	items := []models.ListItem{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to query list items")
	}
	return items, nil
}

// Create inserts a new list item. A second item for the same owner and book
// fails with ErrDuplicate.
func (r *sqliteListItemRepository) Create(ctx context.Context, item *models.ListItem) error {
	ctx, span := tracer.Start(ctx, "ListItemRepository.Create", trace.WithAttributes(
		attribute.String("list_item.id", item.ID),
	))
	defer span.End()

	query := `INSERT INTO list_items (` + listItemColumns + `)
		VALUES (:id, :owner_id, :book_id, :rating, :notes, :start_date, :finish_date)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return wrapWrite(err, "failed to create list item")
	}
	return nil
}

// ReadByID returns the list item with id, or nil if there is none.
func (r *sqliteListItemRepository) ReadByID(ctx context.Context, id string) (*models.ListItem, error) {
	ctx, span := tracer.Start(ctx, "ListItemRepository.ReadByID", trace.WithAttributes(
		attribute.String("list_item.id", id),
	))
	defer span.End()

	var item models.ListItem
	err := r.db.GetContext(ctx, &item, `SELECT `+listItemColumns+` FROM list_items WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get list item")
	}
	return &item, nil
}

// Update persists the mutable fields of item. Owner and book are never
// rewritten. Updating an item that no longer exists is a not-found error.
func (r *sqliteListItemRepository) Update(ctx context.Context, item *models.ListItem) error {
	ctx, span := tracer.Start(ctx, "ListItemRepository.Update", trace.WithAttributes(
		attribute.String("list_item.id", item.ID),
	))
	defer span.End()

	query := `UPDATE list_items
		SET rating = :rating, notes = :notes, start_date = :start_date, finish_date = :finish_date
		WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		return wrapWrite(err, "failed to update list item")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.NotFoundf("No list item was found with the id of %s", item.ID)
	}
	return nil
}

// Remove deletes the list item with id. Removing a missing item is not an error.
func (r *sqliteListItemRepository) Remove(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "ListItemRepository.Remove", trace.WithAttributes(
		attribute.String("list_item.id", id),
	))
	defer span.End()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM list_items WHERE id = ?`, id); err != nil {
		return errors.Wrap(err, "failed to remove list item")
	}
	return nil
}
