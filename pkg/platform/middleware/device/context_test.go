package device

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

type DeviceSuite struct {
	suite.Suite
}

func TestDeviceSuite(t *testing.T) {
	suite.Run(t, new(DeviceSuite))
}

func (s *DeviceSuite) TestParse() {
	s.Run("empty user agent returns unknown device", func() {
		s.Equal(unknownDevice, Parse("").Name)
	})

	s.Run("chrome on desktop includes browser and OS", func() {
		info := Parse("Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		s.Contains(info.Name, "Chrome")
		s.Contains(info.Name, " on ")
		s.False(info.Mobile)
	})

	s.Run("safari on iphone is mobile", func() {
		info := Parse("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1")
		s.True(info.Mobile)
		s.Contains(info.Name, "iPhone")
	})

	s.Run("crawler is a bot", func() {
		s.True(Parse("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)").Bot)
	})

	s.Run("cli client keeps a readable name", func() {
		info := Parse("coursehub-cli")
		s.NotEmpty(info.Name)
		s.Equal(info.Name, strings.TrimSpace(info.Name))
	})
}

func (s *DeviceSuite) TestMiddleware() {
	var got Info
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0")
	h.ServeHTTP(httptest.NewRecorder(), req)

	s.Contains(got.Name, "Firefox")
	s.Equal(unknownDevice, FromContext(context.Background()).Name)
}
