package controller

import (
	"ctchen222/bookshelf/internal/api/apperr"
	"ctchen222/bookshelf/internal/api/models"
	"ctchen222/bookshelf/internal/api/repository"
	"ctchen222/bookshelf/internal/api/response"

	"github.com/gin-gonic/gin"
)

// BookController serves the read-only book catalogue.
type BookController struct {
	bookRepo repository.BookRepository
}

// NewBookController creates a new BookController.
func NewBookController(bookRepo repository.BookRepository) *BookController {
	return &BookController{
		bookRepo: bookRepo,
	}
}

// Get returns a single book by id.
func (bc *BookController) Get(c *gin.Context) {
	id := c.Param("id")
	book, err := bc.bookRepo.ReadByID(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	if book == nil {
		c.Error(apperr.NotFoundf("No book was found with the id of %s", id))
		return
	}

	response.SuccessResponse(c, models.BookResponse{Book: book})
}
