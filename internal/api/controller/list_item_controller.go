package controller

import (
	"ctchen222/bookshelf/internal/api/middleware"
	"ctchen222/bookshelf/internal/api/models"
	"ctchen222/bookshelf/internal/api/response"
	"ctchen222/bookshelf/internal/api/service"

	"github.com/gin-gonic/gin"
)

// ListItemController handles the reading list endpoints. Item routes expect
// the guard to have loaded and authorized the item already.
type ListItemController struct {
	listItemService service.ListItemService
}

// NewListItemController creates a new ListItemController.
func NewListItemController(listItemService service.ListItemService) *ListItemController {
	return &ListItemController{
		listItemService: listItemService,
	}
}

func (lc *ListItemController) List(c *gin.Context) {
	items, err := lc.listItemService.List(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		c.Error(err)
		return
	}

	response.SuccessResponse(c, models.ListItemsResponse{ListItems: items})
}

func (lc *ListItemController) Create(c *gin.Context) {
	var req models.CreateListItemRequest
	if err := bindJSON(c, &req); err != nil {
		c.Error(err)
		return
	}

	item, err := lc.listItemService.Create(c.Request.Context(), middleware.CurrentUser(c), req.BookID)
	if err != nil {
		c.Error(err)
		return
	}

	response.SuccessResponse(c, models.ListItemResponse{ListItem: item})
}

func (lc *ListItemController) Get(c *gin.Context) {
	item, err := lc.listItemService.Get(c.Request.Context(), middleware.CurrentUser(c), middleware.CurrentListItem(c))
	if err != nil {
		c.Error(err)
		return
	}

	response.SuccessResponse(c, models.ListItemResponse{ListItem: item})
}

func (lc *ListItemController) Update(c *gin.Context) {
	var patch models.ListItemPatch
	if err := bindJSON(c, &patch); err != nil {
		c.Error(err)
		return
	}

	item, err := lc.listItemService.Update(c.Request.Context(), middleware.CurrentUser(c), middleware.CurrentListItem(c), &patch)
	if err != nil {
		c.Error(err)
		return
	}

	response.SuccessResponse(c, models.ListItemResponse{ListItem: item})
}

func (lc *ListItemController) Delete(c *gin.Context) {
	if err := lc.listItemService.Delete(c.Request.Context(), middleware.CurrentUser(c), middleware.CurrentListItem(c)); err != nil {
		c.Error(err)
		return
	}

	response.SuccessAck(c)
}
