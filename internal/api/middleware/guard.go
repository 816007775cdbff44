package middleware

import (
	"context"
	"strings"

	"ctchen222/bookshelf/internal/api/apperr"
	"ctchen222/bookshelf/internal/api/models"
	"ctchen222/bookshelf/internal/api/repository"
	"ctchen222/bookshelf/internal/api/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("api.middleware")

const (
	userKey     = "bookshelf.user"
	listItemKey = "bookshelf.listItem"
)

// Guard resolves the caller's identity and checks ownership of list items.
// Authenticate and AuthorizeListItem are plain steps returning a value or an
// error; RequireUser and LoadListItem adapt them to gin.
type Guard struct {
	auth      service.AuthService
	listItems repository.ListItemRepository
}

// NewGuard creates a new Guard.
func NewGuard(auth service.AuthService, listItems repository.ListItemRepository) *Guard {
	return &Guard{auth: auth, listItems: listItems}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Authenticate resolves the user named by an Authorization header. A missing
// header and a token that resolves to nobody fail the same way.
func (g *Guard) Authenticate(ctx context.Context, header string) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "Guard.Authenticate")
	defer span.End()

	token, ok := bearerToken(header)
	if !ok {
		return nil, apperr.CredentialsRequired()
	}

	user, err := g.auth.ResolveToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.CredentialsRequired()
	}
	span.SetAttributes(attribute.String("user.id", user.ID))
	return user, nil
}

// AuthorizeListItem loads the list item with id and checks that user owns it.
func (g *Guard) AuthorizeListItem(ctx context.Context, user *models.User, id string) (*models.ListItem, error) {
	ctx, span := tracer.Start(ctx, "Guard.AuthorizeListItem", trace.WithAttributes(
		attribute.String("list_item.id", id),
		attribute.String("user.id", user.ID),
	))
	defer span.End()

	item, err := g.listItems.ReadByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperr.NotFoundf("No list item was found with the id of %s", id)
	}
	if item.OwnerID != user.ID {
		return nil, apperr.Forbiddenf("User with id %s is not authorized to access the list item %s", user.ID, id)
	}
	return item, nil
}

// RequireUser rejects requests without a valid bearer token.
func (g *Guard) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := g.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			c.Error(err)
			c.Abort()
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// LoadListItem loads the list item named by the route parameter param and
// rejects the request unless the current user owns it. It must run after
// RequireUser.
func (g *Guard) LoadListItem(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		item, err := g.AuthorizeListItem(c.Request.Context(), CurrentUser(c), c.Param(param))
		if err != nil {
			c.Error(err)
			c.Abort()
			return
		}
		c.Set(listItemKey, item)
		c.Next()
	}
}

// CurrentUser returns the user stored by RequireUser.
func CurrentUser(c *gin.Context) *models.User {
	user, _ := c.MustGet(userKey).(*models.User)
	return user
}

// CurrentListItem returns the list item stored by LoadListItem.
func CurrentListItem(c *gin.Context) *models.ListItem {
	item, _ := c.MustGet(listItemKey).(*models.ListItem)
	return item
}
