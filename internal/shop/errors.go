package shop

import (
	"errors"
	"fmt"

	"github.com/alextanhongpin/errors/cause"
	"github.com/alextanhongpin/errors/codes"
)

var (
	// ErrProductExists is a conflict, but the API contract reports it as a bad
	// request.
	ErrProductExists   = cause.New(codes.BadRequest, "product/exists", "Product ID already exists")
	ErrProductNotFound = cause.New(codes.NotFound, "product/not_found", "Product not found")
	ErrOutOfStock      = cause.New(codes.BadRequest, "product/out_of_stock", "Product out of stock")
	ErrPaymentFailed   = cause.New(codes.BadRequest, "payment/failed", "Payment failed")
	ErrOrderNotFound   = cause.New(codes.NotFound, "order/not_found", "Order not found")
)

func productNotFound(id string) error {
	return cause.New(codes.NotFound, ErrProductNotFound.Name, fmt.Sprintf("Product %s not found", id))
}

func outOfStock(id string) error {
	return cause.New(codes.BadRequest, ErrOutOfStock.Name, fmt.Sprintf("Product %s out of stock", id))
}

// Is reports whether err is a cause error sharing the name of target.
func Is(err error, target *cause.Error) bool {
	var c *cause.Error
	if !errors.As(err, &c) {
		return false
	}

	return c.Name == target.Name
}
