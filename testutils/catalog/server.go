// Package catalog serves a fake storefront for crawler and job tests. Pages
// use the same markup and class names as the live catalog.
package catalog

import (
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
)

// Product is one product page of the fake storefront.
type Product struct {
	Slug   string
	Name   string
	ID     string
	Price  string
	Status string
}

// Path is the page path of the product.
func (p Product) Path() string {
	return "/de-de/product/" + p.Slug
}

// Server is a mutable fake storefront. Status changes are visible to the
// next request.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	products map[string]*Product
	extra    map[string]string
	hits     map[string]int
}

// NewServer starts a storefront with the given products. The seed page
// /de-de/themes links to every product plus a few links the crawler must not
// follow. Close is registered with t.Cleanup by the caller.
func NewServer(products ...Product) *Server {
	s := &Server{
		products: make(map[string]*Product),
		extra:    make(map[string]string),
		hits:     make(map[string]int),
	}
	for i := range products {
		p := products[i]
		s.products[p.Path()] = &p
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.serve)
	s.Server = httptest.NewServer(mux)
	return s
}

// SeedURL is the theme overview page.
func (s *Server) SeedURL() string {
	return s.URL + "/de-de/themes"
}

// ProductURL is the absolute URL of the product with slug.
func (s *Server) ProductURL(slug string) string {
	return s.URL + "/de-de/product/" + slug
}

// SetStatus changes the availability text of a product.
func (s *Server) SetStatus(slug, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products["/de-de/product/"+slug]; ok {
		p.Status = status
	}
}

// SetPrice changes the price text of a product.
func (s *Server) SetPrice(slug, price string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products["/de-de/product/"+slug]; ok {
		p.Price = price
	}
}

// AddPage serves body at path.
func (s *Server) AddPage(path, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extra[path] = body
}

// Hits returns how often path was requested.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hits[r.URL.Path]++

	if strings.HasSuffix(r.URL.Path, ".pdf") {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
		return
	}

	var body string
	switch {
	case r.URL.Path == "/de-de/themes":
		body = s.themesPage()
	case s.products[r.URL.Path] != nil:
		body = ProductPage(*s.products[r.URL.Path])
	case s.extra[r.URL.Path] != "":
		body = s.extra[r.URL.Path]
	default:
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = fmt.Fprint(w, body)
}

func (s *Server) themesPage() string {
	paths := make([]string, 0, len(s.products))
	for path := range s.products {
		paths = append(paths, path)
	}
	slices.Sort(paths)

	var b strings.Builder
	b.WriteString("<html><body><nav>")
	b.WriteString(`<a href="#main">Zum Inhalt</a>`)
	b.WriteString(`<a href="mailto:service@example.com">Service</a>`)
	b.WriteString(`<a href="/de-de/bauanleitung.pdf">Bauanleitung</a>`)
	b.WriteString(`<a href="/en-us/themes">English</a>`)
	b.WriteString("</nav><main>")
	for _, path := range paths {
		fmt.Fprintf(&b, `<a href="%s">%s</a>`, path, html.EscapeString(s.products[path].Name))
		fmt.Fprintf(&b, `<a href="%s?utm_source=themes#reviews">Bewertungen</a>`, path)
	}
	b.WriteString("</main></body></html>")
	return b.String()
}

// ProductPage renders a product detail page.
func ProductPage(p Product) string {
	return fmt.Sprintf(`<html><body>
<div class="eqJexe"><h1 class="hlipzx">%s</h1></div>
<div class="price"><span class="eGdbAY">%s</span></div>
<span class="ProductDetailsstyles__ProductID-sc-16lgx7x-10 bIKuiP">%s</span>
<div class="ejRirH"><span class="hlipzx">%s</span></div>
<a href="/de-de/themes">Zurück</a>
</body></html>`,
		html.EscapeString(p.Name), html.EscapeString(p.Price), html.EscapeString(p.ID), html.EscapeString(p.Status))
}
