package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"skins-market/internal/domain"
	"skins-market/internal/service/catalog"
)

func (h *handlers) listItems(c *gin.Context) {
	filter := domain.ItemFilter{
		Search: c.Query("search"),
		SortBy: c.Query("sortBy"),
	}
	switch order := strings.ToLower(c.Query("order")); order {
	case "", "asc":
	case "desc":
		filter.Desc = true
	default:
		respondError(c, h.log, domain.Invalid("order", "must be asc or desc"))
		return
	}
	if raw := c.Query("category"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(c, h.log, domain.Invalid("category", "must be an integer"))
			return
		}
		filter.CategoryID = &id
	}
	page, err := queryInt(c, "page")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	size, err := queryInt(c, "size")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	res, err := h.Catalog.ListItems(c.Request.Context(), filter, page, size)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondPage(c, res.Items, res.Total, res.Page, res.Size)
}

func (h *handlers) getItem(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	it, err := h.Catalog.GetItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "item", it)
}

func (h *handlers) listCategories(c *gin.Context) {
	cats, err := h.Catalog.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "categories", cats)
}

func (h *handlers) upsertCategory(c *gin.Context) {
	var req domain.Category
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	cat, err := h.Catalog.UpsertCategory(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "category", cat)
}

func (h *handlers) createItem(c *gin.Context) {
	var req catalog.ItemInput
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	it, err := h.Catalog.CreateItem(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "item", it)
}

func (h *handlers) updateItem(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var patch catalog.ItemPatch
	if err := bindJSON(c, &patch); err != nil {
		respondError(c, h.log, err)
		return
	}
	it, err := h.Catalog.UpdateItem(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "item", it)
}

// uploadItemImage accepts a multipart "file" field; "kind" selects icon or image.
func (h *handlers) uploadItemImage(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		respondError(c, h.log, domain.Invalid("file", "multipart file is required"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	defer f.Close()

	kind := c.DefaultPostForm("kind", "image")
	it, err := h.Catalog.SetItemImage(c.Request.Context(), id, kind, fh.Header.Get("Content-Type"), f, fh.Size)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "item", it)
}
