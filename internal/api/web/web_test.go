package web

import (
	"bytes"
	"strings"
	"testing"

	"github.com/inventory-system/inventory-web/internal/core/domain"
)

func render(t *testing.T, name string, p Page) string {
	t.Helper()
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("parse templates: %v", err)
	}
	var buf bytes.Buffer
	if err := r.Render(&buf, name, p, nil); err != nil {
		t.Fatalf("render %s: %v", name, err)
	}
	return buf.String()
}

func TestRenderer_LayoutShowsUser(t *testing.T) {
	out := render(t, "pending.html", Page{
		Title: "Loading",
		User:  &domain.User{Email: "a@x.com", Role: domain.RoleAdmin},
		CSRF:  "tok",
	})
	for _, want := range []string{"a@x.com", "user-role admin", `value="tok"`, "Loading..."} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output", want)
		}
	}
}

func TestRenderer_EscapesInput(t *testing.T) {
	out := render(t, "error.html", Page{Title: "<script>x</script>"})
	if strings.Contains(out, "<script>x") {
		t.Fatalf("title must be escaped: %s", out)
	}
}

func TestRenderer_UnknownTemplate(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("parse templates: %v", err)
	}
	if err := r.Render(&bytes.Buffer{}, "missing.html", Page{}, nil); err == nil {
		t.Fatalf("expected error for unknown template")
	}
}
