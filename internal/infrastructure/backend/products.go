package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/inventory-system/inventory-web/internal/core/domain"
	"github.com/inventory-system/inventory-web/internal/core/ports"
	"github.com/inventory-system/inventory-web/internal/pkg/metrics"
)

// Products returns the product gateway that authenticates with the token ts
// yields at call time.
func (c *Client) Products(ts ports.TokenSource) ports.ProductGateway {
	return &productGateway{c: c, ts: ts}
}

type productGateway struct {
	c  *Client
	ts ports.TokenSource
}

// productList decodes both the bare array and the {"results": [...]} shape.
type productList []domain.Product

func (l *productList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var items []domain.Product
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	var env struct {
		Results *[]domain.Product `json:"results"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	if env.Results == nil {
		return errors.New("product list: neither an array nor a results envelope")
	}
	*l = *env.Results
	return nil
}

// productBody is the write payload. Stock is sent as a number when it parses
// so the backend applies its own range checks.
type productBody struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Stock any    `json:"stock"`
}

func bodyFrom(in domain.ProductInput) productBody {
	b := productBody{Name: strings.TrimSpace(in.Name), Price: strings.TrimSpace(in.Price)}
	stock := strings.TrimSpace(in.Stock)
	if n, err := strconv.ParseInt(stock, 10, 64); err == nil {
		b.Stock = n
	} else {
		b.Stock = stock
	}
	return b
}

func (g *productGateway) List(ctx context.Context) ([]domain.Product, error) {
	var list productList
	if err := g.c.request(ctx, "products.list", http.MethodGet, "products", g.ts.Token(), nil, &list); err != nil {
		return nil, err
	}
	if list == nil {
		return []domain.Product{}, nil
	}
	return list, nil
}

func (g *productGateway) Get(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	if err := g.c.request(ctx, "products.get", http.MethodGet, productPath(id), g.ts.Token(), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (g *productGateway) Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	var p domain.Product
	err := g.c.request(ctx, "products.create", http.MethodPost, "products", g.ts.Token(), bodyFrom(in), &p)
	if err != nil {
		err = asValidation(err)
		metrics.ProductMutationsTotal.WithLabelValues("create", mutationResult(err)).Inc()
		return nil, err
	}
	metrics.ProductMutationsTotal.WithLabelValues("create", "ok").Inc()
	return &p, nil
}

func (g *productGateway) Update(ctx context.Context, id int64, in domain.ProductInput) (*domain.Product, error) {
	var p domain.Product
	err := g.c.request(ctx, "products.update", http.MethodPut, productPath(id), g.ts.Token(), bodyFrom(in), &p)
	if err != nil {
		err = asValidation(err)
		metrics.ProductMutationsTotal.WithLabelValues("update", mutationResult(err)).Inc()
		return nil, err
	}
	metrics.ProductMutationsTotal.WithLabelValues("update", "ok").Inc()
	return &p, nil
}

func (g *productGateway) Delete(ctx context.Context, id int64) error {
	err := g.c.request(ctx, "products.delete", http.MethodDelete, productPath(id), g.ts.Token(), nil, nil)
	metrics.ProductMutationsTotal.WithLabelValues("delete", mutationResult(err)).Inc()
	return err
}

func productPath(id int64) string {
	return fmt.Sprintf("products/%d", id)
}

// asValidation converts a 400 on a write into a *domain.ValidationError.
func asValidation(err error) error {
	var se *StatusError
	if errors.As(err, &se) && se.Status == http.StatusBadRequest {
		return &domain.ValidationError{Fields: validationErrors(se.Body)}
	}
	return err
}

func mutationResult(err error) string {
	var ve *domain.ValidationError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &ve):
		return "invalid"
	default:
		return "failed"
	}
}
