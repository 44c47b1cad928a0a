// Package session keeps per-visitor state (login, cart, flash messages,
// CSRF token) in a server-side store addressed by a signed cookie.
package session

import (
	"encoding/base64"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/cart"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

// Flash kinds
const (
	FlashInfo    = "info"
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash is a one-shot message shown on the next rendered page
type Flash struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// Data is what gets persisted for a session
type Data struct {
	UserID  string    `json:"uid,omitempty"`
	Cart    cart.Cart `json:"cart"`
	Flashes []Flash   `json:"flashes,omitempty"`
	CSRF    string    `json:"csrf,omitempty"`
	Lang    string    `json:"lang,omitempty"`
}

// Session is the state of one visitor during a request
type Session struct {
	id        string
	previous  string // id dropped by Renew, deleted on save
	data      Data
	isNew     bool
	dirty     bool
	destroyed bool
}

func newSession() *Session {
	return &Session{id: newID(), isNew: true}
}

func newID() string {
	b := securecookie.GenerateRandomKey(32)
	if b == nil {
		return uuid.NewString()
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// ID returns the session id
func (s *Session) ID() string { return s.id }

// IsNew reports whether the visitor had no valid session cookie
func (s *Session) IsNew() bool { return s.isNew }

// UserID returns the logged-in user's id
func (s *Session) UserID() (uuid.UUID, bool) {
	if s.data.UserID == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s.data.UserID)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Login binds the session to a user. The session id is renewed so an id
// planted before login cannot be reused afterwards.
func (s *Session) Login(userID uuid.UUID) {
	s.Renew()
	s.data.UserID = userID.String()
	s.data.CSRF = ""
	s.dirty = true
}

// Logout forgets the user but keeps the cart
func (s *Session) Logout() {
	s.Renew()
	s.data.UserID = ""
	s.data.CSRF = ""
	s.dirty = true
}

// Renew moves the data to a fresh id
func (s *Session) Renew() {
	if !s.isNew && s.previous == "" {
		s.previous = s.id
	}
	s.id = newID()
	s.dirty = true
}

// Destroy drops the session entirely
func (s *Session) Destroy() {
	s.destroyed = true
	s.data = Data{}
}

// Cart returns the cart for modification. Call MarkDirty after changing it.
func (s *Session) Cart() *cart.Cart {
	return &s.data.Cart
}

// MarkDirty schedules the session to be saved
func (s *Session) MarkDirty() { s.dirty = true }

// AddFlash queues a message for the next page
func (s *Session) AddFlash(kind, text string) {
	s.data.Flashes = append(s.data.Flashes, Flash{Kind: kind, Text: text})
	s.dirty = true
}

// PopFlashes returns and clears the queued messages
func (s *Session) PopFlashes() []Flash {
	if len(s.data.Flashes) == 0 {
		return nil
	}
	out := s.data.Flashes
	s.data.Flashes = nil
	s.dirty = true
	return out
}

// CSRFToken returns the session's anti-forgery token, creating it on
// first use.
func (s *Session) CSRFToken() string {
	if s.data.CSRF == "" {
		s.data.CSRF = newID()
		s.dirty = true
	}
	return s.data.CSRF
}

// Lang returns the language the visitor picked, if any
func (s *Session) Lang() string { return s.data.Lang }

// SetLang stores the visitor's language choice
func (s *Session) SetLang(lang string) {
	if s.data.Lang != lang {
		s.data.Lang = lang
		s.dirty = true
	}
}

func (s *Session) empty() bool {
	d := s.data
	return d.UserID == "" && d.Cart.IsEmpty() && len(d.Flashes) == 0 && d.CSRF == "" && d.Lang == ""
}
