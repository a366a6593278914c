package controller

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/iyhunko/product-catalog/internal/model"
	"github.com/iyhunko/product-catalog/internal/repository"
	"github.com/iyhunko/product-catalog/internal/service"
	"github.com/iyhunko/product-catalog/internal/validation"
)

// ProductController handles HTTP requests for catalog operations.
type ProductController struct {
	catalog *service.CatalogService
}

// NewProductController creates a new ProductController with the given catalog service.
func NewProductController(catalog *service.CatalogService) *ProductController {
	return &ProductController{
		catalog: catalog,
	}
}

// ListProductsRequest represents the query parameters for listing products.
type ListProductsRequest struct {
	Search string `form:"search"`
	Tag    string `form:"tag"`
	Limit  int32  `form:"limit"`
	Token  string `form:"token"`
}

// ListProductsResponse represents the response body for listing products.
type ListProductsResponse struct {
	Products      []*model.Product `json:"products"`
	NextPageToken string           `json:"next_page_token,omitempty"`
}

// ListProducts handles the HTTP GET request for listing products. The search
// filter wins over the tag filter when both are given.
func (pc *ProductController) ListProducts(c *gin.Context) {
	var req ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query := repository.NewQuery()
	query.Search = req.Search
	query.Tag = req.Tag
	if err := query.ApplyPagination(req.Limit, req.Token); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	products, err := pc.catalog.ListProducts(c.Request.Context(), *query)
	if err != nil {
		slog.Error("failed to list products", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list products"})
		return
	}

	if products == nil {
		products = []*model.Product{}
	}

	response := ListProductsResponse{
		Products: products,
	}

	// Only hand out a continuation token when the page was full.
	if query.Limit > 0 && len(products) == query.Limit {
		lastProduct := products[len(products)-1]
		paginator := repository.Paginator{
			LastID:        lastProduct.ID,
			LastCreatedAt: lastProduct.CreatedAt,
		}
		response.NextPageToken = paginator.Encode()
	}

	c.JSON(http.StatusOK, response)
}

// GetProduct handles the HTTP GET request for a single product by ID.
func (pc *ProductController) GetProduct(c *gin.Context) {
	id, ok := parseProductID(c)
	if !ok {
		return
	}

	product, err := pc.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to get product")
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

// CreateProduct handles the HTTP POST request for creating a new product from
// the admin form shape.
func (pc *ProductController) CreateProduct(c *gin.Context) {
	var form validation.ProductForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	product, err := pc.catalog.CreateProduct(c.Request.Context(), form)
	if err != nil {
		respondError(c, err, "failed to create product")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// UpdateProductRequest represents the request body for a partial product
// update. Absent fields keep their stored values.
type UpdateProductRequest struct {
	Title       *string         `json:"title"`
	BodyHTML    *string         `json:"body_html"`
	Vendor      *string         `json:"vendor"`
	ProductType *string         `json:"product_type"`
	Handle      *string         `json:"handle"`
	Status      *string         `json:"status"`
	Tags        []string        `json:"tags"`
	Variants    []model.Variant `json:"variants"`
	Images      []model.Image   `json:"images"`
	Options     []model.Option  `json:"options"`
}

// UpdateProduct handles the HTTP PUT request for updating a product by ID.
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	id, ok := parseProductID(c)
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	input := service.UpdateProductInput{
		Title:       req.Title,
		BodyHTML:    req.BodyHTML,
		Vendor:      req.Vendor,
		ProductType: req.ProductType,
		Handle:      req.Handle,
		Status:      req.Status,
		Tags:        req.Tags,
		Variants:    req.Variants,
		Images:      req.Images,
		Options:     req.Options,
	}

	product, err := pc.catalog.UpdateProduct(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err, "failed to update product")
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

// DeleteProduct handles the HTTP DELETE request for deleting a product by ID.
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	id, ok := parseProductID(c)
	if !ok {
		return
	}

	if err := pc.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err, "failed to delete product")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

// ListTags handles the HTTP GET request for the distinct tag names in use.
func (pc *ProductController) ListTags(c *gin.Context) {
	tags, err := pc.catalog.ListTags(c.Request.Context())
	if err != nil {
		slog.Error("failed to list tags", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tags"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

func parseProductID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return uuid.Nil, false
	}
	return id, true
}

func respondError(c *gin.Context, err error, fallback string) {
	var verrs validation.Errors
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
	case errors.As(err, &verrs):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": verrs})
	case errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, model.ErrTitleRequired),
		errors.Is(err, model.ErrVariantRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		slog.Error(fallback, slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
