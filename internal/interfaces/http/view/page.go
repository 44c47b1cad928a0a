package view

import (
	identityapp "github.com/EthanMadison/hack-yourself.shop/internal/application/identity"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/i18n"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/session"
)

// Page is what every template receives. Data holds the page specific
// values.
type Page struct {
	Lang            string
	Languages       []string
	Title           string
	User            *identityapp.UserResponse
	CartSize        int
	Flashes         []session.Flash
	CSRF            string
	Query           string
	Path            string
	PaymentsEnabled bool
	Data            any

	bundle *i18n.Bundle
}

// NewPage creates a page translated into lang
func NewPage(bundle *i18n.Bundle, lang string) *Page {
	return &Page{Lang: lang, Languages: bundle.Languages(), bundle: bundle}
}

// T translates key. args are name/value pairs for placeholders.
func (p *Page) T(key string, args ...string) string {
	if p.bundle == nil {
		return key
	}
	return p.bundle.T(p.Lang, key, args...)
}

// Status returns the label of an order status code
func (p *Page) Status(code string) string {
	return p.T("status." + code)
}

// IsAdmin reports whether the visitor may use the admin panel
func (p *Page) IsAdmin() bool {
	return p.User != nil && p.User.IsAdmin
}
