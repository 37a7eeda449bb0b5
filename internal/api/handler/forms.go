package handler

import (
	"strconv"
	"strings"

	"github.com/gosimple/slug"

	"github.com/inventory-system/inventory-web/internal/core/domain"
)

// --- Request types ---

type loginForm struct {
	Email    string `form:"email"    validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// productForm binds the create/edit form. Only presence and format are
// checked here; value ranges are the backend's to enforce.
type productForm struct {
	Name  string `form:"name"  validate:"required,max=200"`
	Price string `form:"price" validate:"required,numeric"`
	Stock string `form:"stock" validate:"required,number"`
	Nonce string `form:"nonce" validate:"required,uuid"`
}

func (f productForm) input() domain.ProductInput {
	return domain.ProductInput{
		Name:  strings.TrimSpace(f.Name),
		Price: strings.TrimSpace(f.Price),
		Stock: strings.TrimSpace(f.Stock),
	}
}

// --- View types ---

type loginView struct {
	Email string
}

type productCard struct {
	ID     int64
	Name   string
	Price  string
	Stock  int64
	Anchor string
}

type productsView struct {
	Products  []productCard
	CanCreate bool
	CanUpdate bool
	CanDelete bool
}

type productFormView struct {
	Action string
	Nonce  string
	Input  domain.ProductInput
}

func toCards(products []domain.Product) []productCard {
	cards := make([]productCard, 0, len(products))
	for _, p := range products {
		cards = append(cards, productCard{
			ID:     p.ID,
			Name:   p.Name,
			Price:  p.DisplayPrice(),
			Stock:  p.Stock,
			Anchor: productAnchor(p),
		})
	}
	return cards
}

// productAnchor is the fragment id of a product card, e.g. "blue-widget-12".
func productAnchor(p domain.Product) string {
	s := slug.Make(p.Name)
	if s == "" {
		s = "product"
	}
	return s + "-" + strconv.FormatInt(p.ID, 10)
}
