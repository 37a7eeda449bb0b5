package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventory-system/inventory-web/internal/core/domain"
)

func TestProductsList_NormalizesEnvelopes(t *testing.T) {
	items := []map[string]any{
		{"id": 1, "name": "Widget", "price": "9.99", "stock": 5},
		{"id": 2, "name": "Gadget", "price": "1.50", "stock": 0},
	}
	shapes := map[string]any{
		"bare":     items,
		"envelope": map[string]any{"count": 2, "next": nil, "results": items},
	}
	for name, body := range shapes {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/products/", r.URL.Path)
				assert.Equal(t, "Bearer acc", r.Header.Get("Authorization"))
				writeJSON(w, http.StatusOK, body)
			})

			got, err := c.Products(staticToken("acc")).List(context.Background())
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "Widget", got[0].Name)
			assert.Equal(t, "9.99", got[0].Price)
			assert.Equal(t, int64(0), got[1].Stock)
		})
	}
}

func TestProductsList_EmptyAndMalformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"results": []any{}})
	})
	got, err := c.Products(staticToken("acc")).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	bad := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"items": []any{}})
	})
	_, err = bad.Products(staticToken("acc")).List(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestProductsList_Unauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Given token not valid for any token type"})
	})
	_, err := c.Products(staticToken("expired")).List(context.Background())
	assert.ErrorIs(t, err, domain.ErrRejected)
}

func TestProductsCreate_Validation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(3), body["stock"])
		writeJSON(w, http.StatusBadRequest, map[string]any{"price": []string{"must be non-negative"}})
	})

	_, err := c.Products(staticToken("acc")).Create(context.Background(), domain.ProductInput{Name: "X", Price: "-1", Stock: "3"})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "price: must be non-negative", ve.Fields.String())
}

func TestProductsUpdate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/products/4/", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"id": 4, "name": "Renamed", "price": "2.00", "stock": 1})
	})

	p, err := c.Products(staticToken("acc")).Update(context.Background(), 4, domain.ProductInput{Name: " Renamed ", Price: "2.00", Stock: "1"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", p.Name)
}

func TestProductsDelete_Errors(t *testing.T) {
	cases := map[int]error{
		http.StatusBadRequest:          domain.ErrBadRequest,
		http.StatusForbidden:           domain.ErrForbidden,
		http.StatusNotFound:            domain.ErrNotFound,
		http.StatusInternalServerError: domain.ErrUnavailable,
	}
	for status, want := range cases {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			w.WriteHeader(status)
		})
		err := c.Products(staticToken("acc")).Delete(context.Background(), 9)
		assert.ErrorIs(t, err, want, "status %d", status)
		assert.NotErrorIs(t, err, domain.ErrRejected, "status %d", status)
	}

	ok := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	assert.NoError(t, ok.Products(staticToken("acc")).Delete(context.Background(), 9))
}

func TestValidationErrors(t *testing.T) {
	got := validationErrors([]byte(`{"name":"This field is required.","stock":["A valid integer is required."],"detail":"Invalid data"}`))
	assert.Equal(t, domain.ValidationErrors{
		"name":             {"This field is required."},
		"stock":            {"A valid integer is required."},
		"non_field_errors": {"Invalid data"},
	}, got)

	assert.Equal(t, domain.ValidationErrors{"non_field_errors": {"Invalid input."}}, validationErrors([]byte(`oops`)))
}
