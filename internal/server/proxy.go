package server

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/llmadmin-dev/llmadmin/internal/cli/client"
)

// newAPIProxy relays /api to the backend. Session cookies become the
// Authorization and X-API-Key headers unless the caller set them already.
// A 401 from the backend ends the browser session.
func (s *Server) newAPIProxy() *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(s.apiURL)
			r.SetXForwarded()

			if r.Out.Header.Get(client.HeaderAuthorization) == "" {
				if token := cookieValue(r.In, cookieToken); token != "" {
					r.Out.Header.Set(client.HeaderAuthorization, "Bearer "+token)
				}
			}
			if r.Out.Header.Get(client.HeaderAPIKey) == "" {
				if apiKey := cookieValue(r.In, cookieAPIKey); apiKey != "" {
					r.Out.Header.Set(client.HeaderAPIKey, apiKey)
				}
			}
			// the backend has no use for gateway cookies
			r.Out.Header.Del("Cookie")
		},
		ModifyResponse: func(resp *http.Response) error {
			s.metrics.proxiedResponse(resp.StatusCode)
			if resp.StatusCode == http.StatusUnauthorized {
				s.logger.Warn().
					Str("method", resp.Request.Method).
					Str("path", resp.Request.URL.Path).
					Msg("Backend answered 401, ending browser session")
				for _, cookie := range s.expiredCookies() {
					resp.Header.Add("Set-Cookie", cookie.String())
				}
			}
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Backend request failed")
			s.metrics.proxiedResponse(0)
			w.WriteHeader(http.StatusBadGateway)
		},
	}
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	value, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return cookie.Value
	}
	return value
}
