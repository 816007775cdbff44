package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ctchen222/bookshelf/internal/api/apperr"
	"ctchen222/bookshelf/internal/api/models"
	"ctchen222/bookshelf/internal/api/repository"
	"ctchen222/bookshelf/internal/events"
	"ctchen222/bookshelf/internal/validator"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ListItemService defines the interface for a user's reading list.
//
// Get, Update and Delete receive an item that has already been loaded and
// checked for ownership; they do not repeat that check.
type ListItemService interface {
	Get(ctx context.Context, user *models.User, item *models.ListItem) (*models.ListItemView, error)
	List(ctx context.Context, user *models.User) ([]models.ListItemView, error)
	Create(ctx context.Context, user *models.User, bookID string) (*models.ListItemView, error)
	Update(ctx context.Context, user *models.User, item *models.ListItem, patch *models.ListItemPatch) (*models.ListItemView, error)
	Delete(ctx context.Context, user *models.User, item *models.ListItem) error
}

type listItemService struct {
	listItemRepo repository.ListItemRepository
	bookRepo     repository.BookRepository
	publisher    events.Publisher
	now          func() time.Time
}

// NewListItemService creates a new ListItemService.
func NewListItemService(listItemRepo repository.ListItemRepository, bookRepo repository.BookRepository, publisher events.Publisher) ListItemService {
	return &listItemService{
		listItemRepo: listItemRepo,
		bookRepo:     bookRepo,
		publisher:    publisher,
		now:          time.Now,
	}
}

func duplicateListItem(ownerID, bookID string) *apperr.Error {
	return apperr.Conflictf("User %s already has a list item for the book with the ID %s", ownerID, bookID)
}

// Get joins item with its book.
func (s *listItemService) Get(ctx context.Context, user *models.User, item *models.ListItem) (*models.ListItemView, error) {
	ctx, span := tracer.Start(ctx, "ListItemService.Get", trace.WithAttributes(
		attribute.String("list_item.id", item.ID),
	))
	defer span.End()

	return s.join(ctx, *item)
}

// List returns all of the user's items joined with their books, loading the
// books with one batch lookup.
func (s *listItemService) List(ctx context.Context, user *models.User) ([]models.ListItemView, error) {
	ctx, span := tracer.Start(ctx, "ListItemService.List", trace.WithAttributes(
		attribute.String("user.id", user.ID),
	))
	defer span.End()

	items, err := s.listItemRepo.Query(ctx, models.ListItemFilter{OwnerID: user.ID})
	if err != nil {
		return nil, err
	}
	views := make([]models.ListItemView, 0, len(items))
	if len(items) == 0 {
		return views, nil
	}

	// Distinct book ids, first-seen order.
	seen := make(map[string]struct{}, len(items))
	bookIDs := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.BookID]; ok {
			continue
		}
		seen[item.BookID] = struct{}{}
		bookIDs = append(bookIDs, item.BookID)
	}

	books, err := s.bookRepo.ReadManyByID(ctx, bookIDs)
	if err != nil {
		return nil, err
	}
	booksByID := make(map[string]*models.Book, len(books))
	for i := range books {
		booksByID[books[i].ID] = &books[i]
	}

	for _, item := range items {
		views = append(views, models.ListItemView{ListItem: item, Book: booksByID[item.BookID]})
	}
	span.SetAttributes(attribute.Int("list_item.count", len(views)))
	return views, nil
}

// Create adds bookID to the user's list.
func (s *listItemService) Create(ctx context.Context, user *models.User, bookID string) (*models.ListItemView, error) {
	ctx, span := tracer.Start(ctx, "ListItemService.Create", trace.WithAttributes(
		attribute.String("user.id", user.ID),
		attribute.String("book.id", bookID),
	))
	defer span.End()

	if bookID == "" {
		return nil, apperr.Validation("No bookId provided")
	}

	existing, err := s.listItemRepo.Query(ctx, models.ListItemFilter{OwnerID: user.ID, BookID: bookID})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, duplicateListItem(user.ID, bookID)
	}

	item := models.ListItem{
		ID:        uuid.New().String(),
		OwnerID:   user.ID,
		BookID:    bookID,
		Rating:    models.UnratedRating,
		Notes:     "",
		StartDate: s.now().UnixMilli(),
	}
	if err := s.listItemRepo.Create(ctx, &item); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, duplicateListItem(user.ID, bookID).WithCause(err)
		}
		return nil, err
	}

	s.publish(ctx, events.ListItemCreated, item)
	slog.InfoContext(ctx, "List item created", "list_item.id", item.ID, "user.id", user.ID, "book.id", bookID)

	return s.join(ctx, item)
}

// Update merges patch onto item and persists the result.
func (s *listItemService) Update(ctx context.Context, user *models.User, item *models.ListItem, patch *models.ListItemPatch) (*models.ListItemView, error) {
	ctx, span := tracer.Start(ctx, "ListItemService.Update", trace.WithAttributes(
		attribute.String("list_item.id", item.ID),
	))
	defer span.End()

	if err := validator.GetValidator().StructCtx(ctx, patch); err != nil {
		if field := validator.FirstInvalidField(err); field != "" {
			return nil, apperr.Validationf("invalid %s", field)
		}
		return nil, fmt.Errorf("failed to validate list item patch: %w", err)
	}

	updated := patch.Apply(*item)
	if err := s.listItemRepo.Update(ctx, &updated); err != nil {
		return nil, err
	}

	s.publish(ctx, events.ListItemUpdated, updated)
	return s.join(ctx, updated)
}

// Delete removes item from its owner's list.
func (s *listItemService) Delete(ctx context.Context, user *models.User, item *models.ListItem) error {
	ctx, span := tracer.Start(ctx, "ListItemService.Delete", trace.WithAttributes(
		attribute.String("list_item.id", item.ID),
	))
	defer span.End()

	if err := s.listItemRepo.Remove(ctx, item.ID); err != nil {
		return err
	}

	s.publish(ctx, events.ListItemDeleted, *item)
	slog.InfoContext(ctx, "List item deleted", "list_item.id", item.ID, "user.id", user.ID)
	return nil
}

func (s *listItemService) join(ctx context.Context, item models.ListItem) (*models.ListItemView, error) {
	book, err := s.bookRepo.ReadByID(ctx, item.BookID)
	if err != nil {
		return nil, err
	}
	return &models.ListItemView{ListItem: item, Book: book}, nil
}

// publish notifies the owner's subscribers. Failures are logged only; the
// change has already been stored.
func (s *listItemService) publish(ctx context.Context, eventType string, item models.ListItem) {
	event, err := events.NewListItemEvent(eventType, events.ListItemPayload{
		ListItemID: item.ID,
		OwnerID:    item.OwnerID,
		BookID:     item.BookID,
	})
	if err == nil {
		err = s.publisher.Publish(ctx, item.OwnerID, event)
	}
	if err != nil {
		slog.WarnContext(ctx, "Failed to publish list item event",
			"event.type", eventType, "list_item.id", item.ID, "error", err)
	}
}
