package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/inventory-system/inventory-web/internal/core/domain"
	"github.com/inventory-system/inventory-web/internal/core/ports"
	"github.com/inventory-system/inventory-web/internal/core/service"
	"github.com/inventory-system/inventory-web/internal/core/view"
)

const (
	msgLoadFailed       = "Failed to load products"
	msgDeleteFailed     = "Failed to delete product"
	msgAlreadySubmitted = "This form was already submitted."
	msgSaved            = "Product saved."
	msgDeleted          = "Product deleted."
)

// GatewayFactory binds the product gateway to a session's token.
type GatewayFactory func(ts ports.TokenSource) ports.ProductGateway

// ProductHandler serves the product list and the create/edit forms.
type ProductHandler struct {
	products GatewayFactory
	guard    ports.SubmissionGuard
	log      zerolog.Logger
}

func NewProductHandler(products GatewayFactory, guard ports.SubmissionGuard, log zerolog.Logger) *ProductHandler {
	return &ProductHandler{products: products, guard: guard, log: log}
}

// List fetches the products and renders them. Admin controls are shown only
// for actions the role grants.
func (h *ProductHandler) List(c echo.Context) error {
	entry, err := sessionEntry(c)
	if err != nil {
		return err
	}

	list := entry.ProductList(h.products(entry.Session))
	var loadErr string
	if err := list.Load(c.Request().Context()); err != nil {
		switch {
		case errors.Is(err, domain.ErrRejected):
			return h.expire(c, entry)
		case errors.Is(err, view.ErrInactive):
			// A newer load or a logout took over; show what the list holds now.
		default:
			h.log.Warn().Err(err).Msg("product list load failed")
			loadErr = msgLoadFailed
		}
	}
	return h.renderList(c, entry, http.StatusOK, list, loadErr)
}

// New renders an empty product form.
func (h *ProductHandler) New(c echo.Context) error {
	entry, err := sessionEntry(c)
	if err != nil {
		return err
	}
	form := view.NewProductForm(h.products(entry.Session), nil)
	return h.renderForm(c, entry, http.StatusOK, form, "")
}

// Create submits a new product.
func (h *ProductHandler) Create(c echo.Context) error {
	entry, err := sessionEntry(c)
	if err != nil {
		return err
	}
	return h.submit(c, entry, view.NewProductForm(h.products(entry.Session), nil))
}

// Edit renders the form pre-filled with an existing product. The locally
// held list is used when it has the product.
func (h *ProductHandler) Edit(c echo.Context) error {
	entry, err := sessionEntry(c)
	if err != nil {
		return err
	}
	id, err := productID(c)
	if err != nil {
		return err
	}

	gw := h.products(entry.Session)
	p, ok := entry.ProductList(gw).Find(id)
	if !ok {
		got, err := gw.Get(c.Request().Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrRejected) {
				return h.expire(c, entry)
			}
			return err
		}
		p = *got
	}
	return h.renderForm(c, entry, http.StatusOK, view.NewProductForm(gw, &p), "")
}

// Update submits changes to an existing product.
func (h *ProductHandler) Update(c echo.Context) error {
	entry, err := sessionEntry(c)
	if err != nil {
		return err
	}
	id, err := productID(c)
	if err != nil {
		return err
	}
	return h.submit(c, entry, view.NewProductForm(h.products(entry.Session), &domain.Product{ID: id}))
}

// Delete removes a product and renders the list from local state without
// refetching it. A failed delete leaves the list unchanged.
func (h *ProductHandler) Delete(c echo.Context) error {
	entry, err := sessionEntry(c)
	if err != nil {
		return err
	}
	id, err := productID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	list := entry.ProductList(h.products(entry.Session))
	if !list.Loaded() {
		if err := list.Load(ctx); err != nil && !errors.Is(err, view.ErrInactive) {
			if errors.Is(err, domain.ErrRejected) {
				return h.expire(c, entry)
			}
			h.log.Warn().Err(err).Msg("product list load before delete failed")
		}
	}

	if err := list.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, domain.ErrRejected):
			return h.expire(c, entry)
		case errors.Is(err, view.ErrInactive):
			return seeOther(c, "/products")
		}
		h.log.Warn().Err(err).Int64("product_id", id).Msg("product delete failed")
		return h.renderList(c, entry, errorStatus(err), list, msgDeleteFailed)
	}

	entry.SetFlash(msgDeleted)
	return h.renderList(c, entry, http.StatusOK, list, "")
}

// submit runs the shared create/update flow: validate, claim the form nonce
// once, then send. On success the list is reset so the next view refetches.
func (h *ProductHandler) submit(c echo.Context, entry *service.Entry, form *view.ProductForm) error {
	var req productForm
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	form.Input = req.input()

	if err := c.Validate(&req); err != nil {
		return h.renderFormWithNonce(c, entry, http.StatusUnprocessableEntity, form, validationMessage(err), req.Nonce)
	}

	ctx := c.Request().Context()
	first, err := h.guard.Claim(ctx, req.Nonce)
	if err != nil {
		h.log.Warn().Err(err).Msg("submission guard unavailable, accepting form")
		first = true
	}
	if !first {
		h.log.Info().Err(domain.ErrAlreadySubmitted).Str("session", entry.Session.ID()).Msg("duplicate form submission dropped")
		entry.SetFlash(msgAlreadySubmitted)
		return seeOther(c, "/products")
	}

	saved, err := form.Submit(ctx, req.input())
	if err != nil {
		if errors.Is(err, domain.ErrRejected) {
			return h.expire(c, entry)
		}
		return h.renderForm(c, entry, errorStatus(err), form, form.Error)
	}

	entry.ResetViews()
	entry.SetFlash(msgSaved)
	return seeOther(c, "/products#"+productAnchor(*saved))
}

// expire ends a session whose token the backend refused.
func (h *ProductHandler) expire(c echo.Context, entry *service.Entry) error {
	entry.ResetViews()
	entry.Session.Expire(c.Request().Context())
	entry.SetFlash(msgSessionExpiry)
	return seeOther(c, "/login")
}

func (h *ProductHandler) renderList(c echo.Context, entry *service.Entry, status int, list *view.ProductList, errMsg string) error {
	data := productsView{
		Products:  toCards(list.Products()),
		CanCreate: entry.Session.Can(domain.ActionCreateProduct),
		CanUpdate: entry.Session.Can(domain.ActionUpdateProduct),
		CanDelete: entry.Session.Can(domain.ActionDeleteProduct),
	}
	p := page(c, entry, "Products", data)
	p.Error = errMsg
	return c.Render(status, "products.html", p)
}

func (h *ProductHandler) renderForm(c echo.Context, entry *service.Entry, status int, form *view.ProductForm, errMsg string) error {
	return h.renderFormWithNonce(c, entry, status, form, errMsg, uuid.NewString())
}

func (h *ProductHandler) renderFormWithNonce(c echo.Context, entry *service.Entry, status int, form *view.ProductForm, errMsg, nonce string) error {
	title, action := "Add New Product", "/products"
	if form.Editing != nil {
		title, action = "Edit Product", "/products/"+strconv.FormatInt(form.Editing.ID, 10)
	}
	if _, err := uuid.Parse(nonce); err != nil {
		nonce = uuid.NewString()
	}
	p := page(c, entry, title, productFormView{Action: action, Nonce: nonce, Input: form.Input})
	p.Error = errMsg
	return c.Render(status, "product_form.html", p)
}

func productID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	return id, nil
}

// errorStatus is the status a page is re-rendered with after a failed call.
func errorStatus(err error) int {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusBadRequest
	}
}
