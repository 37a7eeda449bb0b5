package view

import (
	"context"
	"errors"

	"github.com/inventory-system/inventory-web/internal/core/domain"
	"github.com/inventory-system/inventory-web/internal/core/ports"
)

const (
	msgSaveFailed  = "Failed to save product"
	msgUnavailable = "Service unavailable, please try again."
)

// ProductForm is the create/edit form state. Editing is nil when creating.
type ProductForm struct {
	Editing *domain.Product
	Input   domain.ProductInput
	Error   string

	gw ports.ProductGateway
}

// NewProductForm returns a form, pre-filled from editing when it is set.
func NewProductForm(gw ports.ProductGateway, editing *domain.Product) *ProductForm {
	f := &ProductForm{gw: gw, Editing: editing}
	if editing != nil {
		f.Input = domain.InputFrom(*editing)
	}
	return f
}

// Submit sends the input as a create or an update. On failure Error holds
// the message to show and the saved product is nil.
func (f *ProductForm) Submit(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	f.Input = in
	f.Error = ""

	var (
		saved *domain.Product
		err   error
	)
	if f.Editing != nil {
		saved, err = f.gw.Update(ctx, f.Editing.ID, in)
	} else {
		saved, err = f.gw.Create(ctx, in)
	}
	if err != nil {
		f.Error = SaveErrorMessage(err)
		return nil, err
	}
	return saved, nil
}

// SaveErrorMessage converts a write failure into the text shown on the form.
// Validation messages are reproduced verbatim.
func SaveErrorMessage(err error) string {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Fields.String()
	case errors.Is(err, domain.ErrUnavailable):
		return msgUnavailable
	default:
		return msgSaveFailed
	}
}
