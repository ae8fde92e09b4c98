// internal/handlers/product.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/storefront/internal/i18n"
	"github.com/javajoker/storefront/internal/services"
	"github.com/javajoker/storefront/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
}

func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

// GET /api/products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	products, err := h.productService.ListProducts(c.Request.Context(), c.Query("category"), c.Query("query"))
	if err != nil {
		respondError(c, err, i18n.KeyProductNotFound)
		return
	}

	utils.SuccessResponse(c, products)
}

// GET /api/products/search
func (h *ProductHandler) SearchProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	searchParams := services.ProductSearchParams{
		PaginationParams: params,
		Query:            c.Query("query"),
		Category:         c.Query("category"),
		Brand:            c.Query("brand"),
		Price:            c.Query("price"),
	}

	// "all" is what the storefront filters send for no constraint
	if searchParams.Query == "all" {
		searchParams.Query = ""
	}
	if searchParams.Category == "all" {
		searchParams.Category = ""
	}
	if searchParams.Brand == "all" {
		searchParams.Brand = ""
	}

	if ratingStr := c.Query("rating"); ratingStr != "" && ratingStr != "all" {
		rating, err := strconv.ParseFloat(ratingStr, 64)
		if err != nil {
			utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, "rating"), nil)
			return
		}
		searchParams.MinRating = rating
	}

	products, total, err := h.productService.SearchProducts(c.Request.Context(), searchParams)
	if err != nil {
		respondError(c, err, i18n.KeyProductNotFound)
		return
	}

	result := utils.CreatePaginationResult(products, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /api/products/categories
func (h *ProductHandler) GetCategories(c *gin.Context) {
	categories, err := h.productService.GetCategories(c.Request.Context())
	if err != nil {
		respondError(c, err, i18n.KeyProductNotFound)
		return
	}

	utils.SuccessResponse(c, categories)
}

// GET /api/products/top-rated
func (h *ProductHandler) GetTopRated(c *gin.Context) {
	products, err := h.productService.GetTopRated(c.Request.Context())
	if err != nil {
		respondError(c, err, i18n.KeyProductNotFound)
		return
	}

	utils.SuccessResponse(c, products)
}

// GET /api/products/featured
func (h *ProductHandler) GetFeatured(c *gin.Context) {
	products, err := h.productService.GetFeatured(c.Request.Context())
	if err != nil {
		respondError(c, err, i18n.KeyProductNotFound)
		return
	}

	utils.SuccessResponse(c, products)
}

// GET /api/products/:id and GET /api/admin/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "product")
	if !ok {
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, i18n.KeyProductNotFound)
		return
	}

	utils.SuccessResponse(c, product)
}

// GET /api/products/slug/:slug
func (h *ProductHandler) GetProductBySlug(c *gin.Context) {
	product, err := h.productService.GetProductBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err, i18n.KeyProductNotFound)
		return
	}

	utils.SuccessResponse(c, product)
}

// POST /api/products/:id/reviews
func (h *ProductHandler) SubmitReview(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := parseIDParam(c, "product")
	if !ok {
		return
	}

	claims, ok := utils.GetClaimsFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.ReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	reviewer := services.Reviewer{ID: userID, Name: claims.Name}
	reviews, created, err := h.productService.SubmitReview(c.Request.Context(), id, reviewer, &req)
	if err != nil {
		respondError(c, err, i18n.KeyProductNotFound)
		return
	}

	status, key := http.StatusOK, i18n.KeyReviewUpdated
	if created {
		status, key = http.StatusCreated, i18n.KeyReviewSubmitted
	}
	c.JSON(status, utils.APIResponse{
		Success: true,
		Data: gin.H{
			"message": i18n.T(lang, key),
			"reviews": reviews,
		},
	})
}

// GET /api/admin/products
func (h *ProductHandler) AdminListProducts(c *gin.Context) {
	products, err := h.productService.ListProducts(c.Request.Context(), "", "")
	if err != nil {
		respondError(c, err, i18n.KeyProductNotFound)
		return
	}

	utils.SuccessResponse(c, products)
}

// POST /api/admin/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	product, err := h.productService.CreateSampleProduct(c.Request.Context())
	if err != nil {
		respondError(c, err, i18n.KeyProductNotFound)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductCreated),
		"product": product,
	})
}

// PUT /api/admin/products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := parseIDParam(c, "product")
	if !ok {
		return
	}

	var req services.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err, i18n.KeyProductNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductUpdated),
		"product": product,
	})
}

// DELETE /api/admin/products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := parseIDParam(c, "product")
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err, i18n.KeyProductNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductDeleted),
	})
}
