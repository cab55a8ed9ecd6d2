package httpc

import (
	"crypto/tls"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/loykin/varstore/internal/constants"
)

type Httpc struct {
	BaseURL   string
	Timeout   time.Duration
	TlsConfig *tls.Config
}

// New returns a resty.Client configured according to the receiver's settings.
// Defaults: DefaultClientTimeout when Timeout is zero, MinVersion TLS1.3 when
// a TLS config is given with zero MinVersion.
func (h *Httpc) New() *resty.Client {
	c := resty.New()
	if h.BaseURL != "" {
		c.SetBaseURL(h.BaseURL)
	}
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultClientTimeout
	}
	c.SetTimeout(timeout)

	cfg := h.TlsConfig
	if cfg == nil {
		return c
	}
	if cfg.MinVersion == 0 {
		cfg.MinVersion = tls.VersionTLS13
	}
	c.SetTLSClientConfig(cfg)
	return c
}
