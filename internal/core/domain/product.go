package domain

import (
	"strconv"
	"time"
)

// Product is the backend-owned inventory record. Price is kept as the decimal
// string the backend sends.
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Stock     int64     `json:"stock"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// DisplayPrice formats the price with two decimals, falling back to the raw
// value when it does not parse.
func (p Product) DisplayPrice() string {
	f, err := strconv.ParseFloat(p.Price, 64)
	if err != nil {
		return p.Price
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// ProductInput is the body of a create or update request.
type ProductInput struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Stock string `json:"stock"`
}

// InputFrom pre-fills a form from an existing product.
func InputFrom(p Product) ProductInput {
	return ProductInput{
		Name:  p.Name,
		Price: p.Price,
		Stock: strconv.FormatInt(p.Stock, 10),
	}
}
