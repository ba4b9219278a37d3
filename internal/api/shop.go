package api

import (
	"net/http"

	"github.com/alextanhongpin/errors/cause"
	"github.com/alextanhongpin/errors/codes"
	"github.com/alextanhongpin/shopobs/http/handler"
	"github.com/alextanhongpin/shopobs/internal/shop"
	"github.com/alextanhongpin/shopobs/validator"
)

var ErrMissingProductIDs = cause.New(codes.BadRequest, "request/invalid_body", "Request body must be a list of product ids")

type ShopController struct {
	handler.BaseHandler
	svc *shop.Service
}

// CreateProductRequest requires every field to be present. Values are not
// range checked, so empty names and negative prices or stock are stored as
// given.
type CreateProductRequest struct {
	ID    *string  `json:"id" validate:"required"`
	Name  *string  `json:"name" validate:"required"`
	Price *float64 `json:"price" validate:"required"`
	Stock *int     `json:"stock" validate:"required"`
}

func (r *CreateProductRequest) Validate() error {
	return validator.Struct(r)
}

func (r *CreateProductRequest) Product() shop.Product {
	return shop.Product{
		ID:    *r.ID,
		Name:  *r.Name,
		Price: *r.Price,
		Stock: *r.Stock,
	}
}

func (c *ShopController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := c.ReadJSON(r, &req); err != nil {
		c.Next(w, r, err)
		return
	}

	p, err := c.svc.CreateProduct(r.Context(), req.Product())
	if err != nil {
		c.Next(w, r, err)
		return
	}

	c.JSON(w, p, http.StatusOK)
}

// CreateOrder accepts a JSON array of product ids. An id listed n times
// orders n units.
func (c *ShopController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var ids []string
	if err := c.ReadJSON(r, &ids); err != nil {
		c.Next(w, r, err)
		return
	}
	// null decodes to a nil slice; an empty list is a valid order.
	if ids == nil {
		c.Next(w, r, ErrMissingProductIDs)
		return
	}

	order, err := c.svc.CreateOrder(r.Context(), ids)
	if err != nil {
		c.Next(w, r, err)
		return
	}

	c.JSON(w, order, http.StatusOK)
}

func (c *ShopController) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := c.svc.Order(r.Context(), r.PathValue("id"))
	if err != nil {
		c.Next(w, r, err)
		return
	}

	c.JSON(w, order, http.StatusOK)
}

func (c *ShopController) StressTest(w http.ResponseWriter, r *http.Request) {
	c.JSON(w, c.svc.Stress(r.Context()), http.StatusOK)
}
