package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/loykin/varstore/internal/variables"
)

// Sentinel bodies of the text protocol. Every response is HTTP 200.
const (
	BodyFailed            = "failed"
	BodyMissingParameters = "missing_parameters"
	BodyNoAccess          = "no_access"
	BodyEmpty             = "empty"
	BodySuccess           = "success"
	BodyTrue              = "true"
	BodyFalse             = "false"
)

const authTokenParam = "auth_token"

var (
	ErrNoAccess          = errors.New("no access")
	ErrMissingParameters = errors.New("missing parameters")
	errFailed            = errors.New("failed")
)

// handlerFunc produces a body or an error that reply turns into a sentinel.
type handlerFunc func(c *gin.Context) (string, error)

func (s *Server) registerRoutes() {
	api := s.engine.Group("/", s.authRequired())
	api.GET("/get_object", s.handle(s.getObject))
	api.GET("/get", s.handle(s.getData))
	api.GET("/get_type", s.handle(s.getType))
	api.GET("/exists", s.handle(s.exists))
	api.GET("/set", s.handle(s.set))
	api.GET("/remove", s.handle(s.remove))
	api.GET("/list", s.handle(s.list))
}

func (s *Server) handle(h handlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := h(c)
		s.reply(c, body, err)
	}
}

func (s *Server) reply(c *gin.Context, body string, err error) {
	if err != nil {
		body = bodyFor(err)
		c.Set(ctxOutcome, body)
	} else {
		c.Set(ctxOutcome, "ok")
	}
	c.String(http.StatusOK, body)
}

func bodyFor(err error) string {
	switch {
	case errors.Is(err, ErrNoAccess):
		return BodyNoAccess
	case errors.Is(err, ErrMissingParameters):
		return BodyMissingParameters
	default:
		return BodyFailed
	}
}

// params returns the named query parameters in order. A parameter present
// with an empty value counts as present.
func params(c *gin.Context, names ...string) ([]string, error) {
	out := make([]string, len(names))
	for i, n := range names {
		v, ok := c.GetQuery(n)
		if !ok {
			return nil, ErrMissingParameters
		}
		out[i] = v
	}
	return out, nil
}

func (s *Server) getObject(c *gin.Context) (string, error) {
	p, err := params(c, "name")
	if err != nil {
		return "", err
	}
	return s.store.SendValue(p[0])
}

func (s *Server) getData(c *gin.Context) (string, error) {
	p, err := params(c, "name")
	if err != nil {
		return "", err
	}
	return s.store.Data(p[0])
}

func (s *Server) getType(c *gin.Context) (string, error) {
	p, err := params(c, "name")
	if err != nil {
		return "", err
	}
	return s.store.Type(p[0])
}

func (s *Server) exists(c *gin.Context) (string, error) {
	p, err := params(c, "name")
	if err != nil {
		return "", err
	}
	if s.store.Exists(p[0]) {
		return BodyTrue, nil
	}
	return BodyFalse, nil
}

func (s *Server) set(c *gin.Context) (string, error) {
	p, err := params(c, "name", "type", "data")
	if err != nil {
		return "", err
	}
	name, typ, data := p[0], p[1], p[2]
	if err := s.store.Set(name, data, typ); err != nil {
		if errors.Is(err, variables.ErrTypeUnchanged) {
			s.logger.WithVariable(name).Debug("set rejected, type unchanged", "type", typ)
		} else if errors.Is(err, variables.ErrInvalidEncoding) {
			s.logger.Debug("set rejected, parameters are not valid UTF-8")
		}
		return "", err
	}
	s.observeVariables()
	return BodySuccess, nil
}

func (s *Server) remove(c *gin.Context) (string, error) {
	p, err := params(c, "name")
	if err != nil {
		return "", err
	}
	if !s.store.Remove(p[0]) {
		return "", errFailed
	}
	s.observeVariables()
	return BodySuccess, nil
}

// list terminates every name with a newline.
func (s *Server) list(_ *gin.Context) (string, error) {
	names := s.store.Names()
	if len(names) == 0 {
		return BodyEmpty, nil
	}
	var b strings.Builder
	for _, n := range names {
		b.WriteString(n)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func (s *Server) observeVariables() {
	if s.metrics != nil {
		s.metrics.SetVariables(s.store.Len())
	}
}
