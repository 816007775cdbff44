package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"ctchen222/bookshelf/internal/api/apperr"
	"ctchen222/bookshelf/internal/api/models"
	"ctchen222/bookshelf/internal/api/repository"
	"ctchen222/bookshelf/internal/api/repository/mocks"
	"ctchen222/bookshelf/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	owners []string
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ownerID string, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.owners = append(p.owners, ownerID)
	p.events = append(p.events, event)
	return p.err
}

type listItemFixture struct {
	listItemRepo *mocks.MockListItemRepository
	bookRepo     *mocks.MockBookRepository
	publisher    *recordingPublisher
	service      *listItemService
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newListItemFixture(t *testing.T) *listItemFixture {
	ctrl := gomock.NewController(t)
	f := &listItemFixture{
		listItemRepo: mocks.NewMockListItemRepository(ctrl),
		bookRepo:     mocks.NewMockBookRepository(ctrl),
		publisher:    &recordingPublisher{},
	}
	f.service = NewListItemService(f.listItemRepo, f.bookRepo, f.publisher).(*listItemService)
	f.service.now = func() time.Time { return fixedNow }
	return f
}

var (
	alice = &models.User{ID: "user-alice", Username: "alice"}
	dune  = &models.Book{ID: "book-dune", Title: "Dune", Author: "Frank Herbert"}
)

func TestListItemService_Create(t *testing.T) {
	ctx := context.Background()
	f := newListItemFixture(t)

	var created *models.ListItem
	f.listItemRepo.EXPECT().Query(gomock.Any(), models.ListItemFilter{OwnerID: alice.ID, BookID: dune.ID}).Return([]models.ListItem{}, nil)
	f.listItemRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, item *models.ListItem) error {
		created = item
		return nil
	})
	f.bookRepo.EXPECT().ReadByID(gomock.Any(), dune.ID).Return(dune, nil)

	view, err := f.service.Create(ctx, alice, dune.ID)
	require.NoError(t, err)

	require.NotNil(t, created)
	assert.NotEmpty(t, view.ID)
	assert.Equal(t, created.ID, view.ID)
	assert.Equal(t, alice.ID, view.OwnerID)
	assert.Equal(t, dune.ID, view.BookID)
	assert.Equal(t, models.UnratedRating, view.Rating)
	assert.Equal(t, "", view.Notes)
	assert.Equal(t, fixedNow.UnixMilli(), view.StartDate)
	assert.Nil(t, view.FinishDate)
	assert.Equal(t, dune, view.Book)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, events.ListItemCreated, f.publisher.events[0].Type)
	assert.Equal(t, []string{alice.ID}, f.publisher.owners)

	var payload events.ListItemPayload
	require.NoError(t, json.Unmarshal(f.publisher.events[0].Payload, &payload))
	assert.Equal(t, events.ListItemPayload{ListItemID: view.ID, OwnerID: alice.ID, BookID: dune.ID}, payload)
}

func TestListItemService_Create_NoBookID(t *testing.T) {
	f := newListItemFixture(t)

	_, err := f.service.Create(context.Background(), alice, "")

	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.EqualError(t, err, "No bookId provided")
}

func TestListItemService_Create_Duplicate(t *testing.T) {
	expected := "User user-alice already has a list item for the book with the ID book-dune"

	t.Run("existing item", func(t *testing.T) {
		f := newListItemFixture(t)
		f.listItemRepo.EXPECT().Query(gomock.Any(), gomock.Any()).Return([]models.ListItem{{ID: "li-1", OwnerID: alice.ID, BookID: dune.ID}}, nil)

		_, err := f.service.Create(context.Background(), alice, dune.ID)

		assert.ErrorIs(t, err, apperr.ErrConflict)
		assert.EqualError(t, err, expected)
		assert.Empty(t, f.publisher.events)
	})

	t.Run("lost race on insert", func(t *testing.T) {
		f := newListItemFixture(t)
		f.listItemRepo.EXPECT().Query(gomock.Any(), gomock.Any()).Return([]models.ListItem{}, nil)
		f.listItemRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(repository.ErrDuplicate)

		_, err := f.service.Create(context.Background(), alice, dune.ID)

		var appErr *apperr.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperr.CodeConflict, appErr.Code)
		assert.Equal(t, expected, appErr.Message)
	})
}

func TestListItemService_Create_PublishFailureIsNotFatal(t *testing.T) {
	f := newListItemFixture(t)
	f.publisher.err = errors.New("redis down")
	f.listItemRepo.EXPECT().Query(gomock.Any(), gomock.Any()).Return(nil, nil)
	f.listItemRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	f.bookRepo.EXPECT().ReadByID(gomock.Any(), dune.ID).Return(dune, nil)

	view, err := f.service.Create(context.Background(), alice, dune.ID)
	require.NoError(t, err)
	assert.Equal(t, dune.ID, view.BookID)
}

func TestListItemService_Get(t *testing.T) {
	f := newListItemFixture(t)
	item := &models.ListItem{ID: "li-1", OwnerID: alice.ID, BookID: dune.ID, Rating: 4}
	f.bookRepo.EXPECT().ReadByID(gomock.Any(), dune.ID).Return(dune, nil)

	view, err := f.service.Get(context.Background(), alice, item)
	require.NoError(t, err)
	assert.Equal(t, &models.ListItemView{ListItem: *item, Book: dune}, view)
}

func TestListItemService_Get_MissingBook(t *testing.T) {
	f := newListItemFixture(t)
	item := &models.ListItem{ID: "li-1", OwnerID: alice.ID, BookID: "gone"}
	f.bookRepo.EXPECT().ReadByID(gomock.Any(), "gone").Return(nil, nil)

	view, err := f.service.Get(context.Background(), alice, item)
	require.NoError(t, err)
	assert.Nil(t, view.Book)
}

func TestListItemService_List(t *testing.T) {
	f := newListItemFixture(t)
	hobbit := &models.Book{ID: "book-hobbit", Title: "The Hobbit", Author: "J.R.R. Tolkien"}
	items := []models.ListItem{
		{ID: "li-1", OwnerID: alice.ID, BookID: hobbit.ID},
		{ID: "li-2", OwnerID: alice.ID, BookID: dune.ID},
		{ID: "li-3", OwnerID: alice.ID, BookID: "gone"},
	}

	f.listItemRepo.EXPECT().Query(gomock.Any(), models.ListItemFilter{OwnerID: alice.ID}).Return(items, nil)
	// One batch lookup, distinct ids in first-seen order.
	f.bookRepo.EXPECT().ReadManyByID(gomock.Any(), []string{hobbit.ID, dune.ID, "gone"}).
		Return([]models.Book{*dune, *hobbit}, nil).Times(1)

	views, err := f.service.List(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, views, 3)

	assert.Equal(t, "li-1", views[0].ID)
	assert.Equal(t, hobbit, views[0].Book)
	assert.Equal(t, "li-2", views[1].ID)
	assert.Equal(t, dune, views[1].Book)
	assert.Nil(t, views[2].Book)
}

func TestListItemService_List_DeduplicatesBooks(t *testing.T) {
	f := newListItemFixture(t)
	items := []models.ListItem{
		{ID: "li-1", OwnerID: alice.ID, BookID: dune.ID},
		{ID: "li-2", OwnerID: alice.ID, BookID: dune.ID},
	}
	f.listItemRepo.EXPECT().Query(gomock.Any(), gomock.Any()).Return(items, nil)
	f.bookRepo.EXPECT().ReadManyByID(gomock.Any(), []string{dune.ID}).Return([]models.Book{*dune}, nil)

	views, err := f.service.List(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, dune, views[0].Book)
	assert.Equal(t, dune, views[1].Book)
}

func TestListItemService_List_Empty(t *testing.T) {
	f := newListItemFixture(t)
	f.listItemRepo.EXPECT().Query(gomock.Any(), gomock.Any()).Return([]models.ListItem{}, nil)

	views, err := f.service.List(context.Background(), alice)
	require.NoError(t, err)
	assert.NotNil(t, views)
	assert.Empty(t, views)

	data, err := json.Marshal(views)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestListItemService_Update(t *testing.T) {
	f := newListItemFixture(t)
	item := &models.ListItem{ID: "li-1", OwnerID: alice.ID, BookID: dune.ID, Rating: -1, Notes: "", StartDate: 1000}
	notes := "x"

	f.listItemRepo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, updated *models.ListItem) error {
		assert.Equal(t, "x", updated.Notes)
		return nil
	})
	f.bookRepo.EXPECT().ReadByID(gomock.Any(), dune.ID).Return(dune, nil)

	view, err := f.service.Update(context.Background(), alice, item, &models.ListItemPatch{Notes: &notes})
	require.NoError(t, err)

	expected := *item
	expected.Notes = "x"
	assert.Equal(t, expected, view.ListItem)
	assert.Equal(t, dune, view.Book)
	assert.Equal(t, "", item.Notes, "the loaded item is not modified in place")

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, events.ListItemUpdated, f.publisher.events[0].Type)
}

func TestListItemService_Update_Invalid(t *testing.T) {
	tooHigh, tooLow := 6, -2
	negative := int64(-5)

	tests := []struct {
		name     string
		patch    models.ListItemPatch
		expected string
	}{
		{"rating above range", models.ListItemPatch{Rating: &tooHigh}, "invalid rating"},
		{"rating below range", models.ListItemPatch{Rating: &tooLow}, "invalid rating"},
		{"negative finish date", models.ListItemPatch{FinishDate: &negative}, "invalid finishDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newListItemFixture(t)
			item := &models.ListItem{ID: "li-1", OwnerID: alice.ID, BookID: dune.ID}

			_, err := f.service.Update(context.Background(), alice, item, &tt.patch)

			assert.ErrorIs(t, err, apperr.ErrValidation)
			assert.EqualError(t, err, tt.expected)
		})
	}
}

func TestListItemService_Delete(t *testing.T) {
	f := newListItemFixture(t)
	item := &models.ListItem{ID: "li-1", OwnerID: alice.ID, BookID: dune.ID}
	f.listItemRepo.EXPECT().Remove(gomock.Any(), "li-1").Return(nil)

	require.NoError(t, f.service.Delete(context.Background(), alice, item))

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, events.ListItemDeleted, f.publisher.events[0].Type)
}

func TestListItemService_Delete_StorageFailure(t *testing.T) {
	f := newListItemFixture(t)
	boom := errors.New("disk on fire")
	f.listItemRepo.EXPECT().Remove(gomock.Any(), "li-1").Return(boom)

	err := f.service.Delete(context.Background(), alice, &models.ListItem{ID: "li-1", OwnerID: alice.ID})

	assert.ErrorIs(t, err, boom)
	assert.Empty(t, f.publisher.events)
}
