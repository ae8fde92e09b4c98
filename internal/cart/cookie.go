// internal/cart/cookie.go
package cart

import (
	"errors"
	"net/http"

	"github.com/gorilla/securecookie"

	"github.com/javajoker/storefront/internal/config"
)

// Codec signs (and optionally encrypts) session cookies.
type Codec struct {
	sc     *securecookie.SecureCookie
	maxAge int
	secure bool
}

func NewCodec(cfg config.SessionConfig) *Codec {
	var blockKey []byte
	if cfg.BlockKey != "" {
		blockKey = []byte(cfg.BlockKey)
	}

	sc := securecookie.New([]byte(cfg.HashKey), blockKey)
	sc.SetSerializer(securecookie.JSONEncoder{})
	sc.MaxAge(cfg.MaxAge)

	return &Codec{sc: sc, maxAge: cfg.MaxAge, secure: cfg.Secure}
}

// Store binds the codec to one request/response pair.
func (c *Codec) Store(w http.ResponseWriter, r *http.Request) *CookieStore {
	return &CookieStore{codec: c, w: w, r: r}
}

// CookieStore reads slices from the incoming request and writes updates to
// the response. Writes are not visible to Get within the same request.
type CookieStore struct {
	codec *Codec
	w     http.ResponseWriter
	r     *http.Request
}

var _ Store = (*CookieStore)(nil)

func (s *CookieStore) Set(key string, value interface{}) error {
	encoded, err := s.codec.sc.Encode(key, value)
	if err != nil {
		return err
	}
	http.SetCookie(s.w, s.cookie(key, encoded, s.codec.maxAge))
	return nil
}

func (s *CookieStore) Remove(key string) {
	http.SetCookie(s.w, s.cookie(key, "", -1))
}

func (s *CookieStore) Get(key string, dst interface{}) (bool, error) {
	c, err := s.r.Cookie(key)
	if errors.Is(err, http.ErrNoCookie) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := s.codec.sc.Decode(key, c.Value, dst); err != nil {
		return true, err
	}
	return true, nil
}

func (s *CookieStore) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.codec.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
