// Package config holds the server settings persisted in config.json:
// the listen port and the optional static auth token.
package config

import (
	"bufio"
	"crypto/subtle"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/loykin/varstore/internal/common"
	"github.com/loykin/varstore/internal/constants"
	"github.com/loykin/varstore/internal/filestore"
	"github.com/loykin/varstore/internal/util"
	"github.com/tidwall/gjson"
)

const anonymousWarning = "!!! ANONYMOUS ACCESS ENABLED: to disable it you should set auth token in config file or run with \"--configure-auth\" argument !!!"

// Config is created once per process. An empty token means anonymous access.
type Config struct {
	mu        sync.RWMutex
	port      int
	authToken string

	store  filestore.Store
	path   string
	logger *common.Logger
}

// New returns a Config with default settings backed by path.
func New(store filestore.Store, path string) *Config {
	return &Config{
		port:   constants.DefaultPort,
		store:  store,
		path:   path,
		logger: common.GetLogger().WithComponent("config"),
	}
}

func (c *Config) setDefaults() {
	c.port = constants.DefaultPort
	c.authToken = ""
}

// Load reads the config document. A missing or malformed document keeps the
// current settings.
func (c *Config) Load() {
	defer c.warnIfAnonymous()

	content, ok := c.store.Read(c.path)
	if !ok {
		c.logger.Error("failed to load config, using default settings", "path", c.path)
		return
	}
	if !gjson.Valid(content) {
		c.logger.Error("config is not valid JSON, using default settings", "path", c.path)
		return
	}

	doc := gjson.Parse(content)

	c.mu.Lock()
	defer c.mu.Unlock()

	if isEmptyDocument(doc) {
		c.setDefaults()
	}
	if port := doc.Get("port"); port.Exists() {
		if n, ok := integerValue(port); ok {
			c.port = n
		} else {
			c.logger.Warn("ignoring non-integer port", "port", port.Raw)
		}
	}
	if token := doc.Get("auth_token"); token.Exists() {
		c.authToken = token.String()
	}

	c.logger.Info("successfully loaded config", "path", c.path, "port", c.port)
}

// isEmptyDocument is true for null, {} and [].
func isEmptyDocument(doc gjson.Result) bool {
	switch {
	case doc.Type == gjson.Null:
		return true
	case doc.IsObject(), doc.IsArray():
		empty := true
		doc.ForEach(func(_, _ gjson.Result) bool {
			empty = false
			return false
		})
		return empty
	default:
		return false
	}
}

// integerValue accepts JSON numbers written without fraction or exponent.
func integerValue(r gjson.Result) (int, bool) {
	if r.Type != gjson.Number {
		return 0, false
	}
	n, err := strconv.Atoi(r.Raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (c *Config) warnIfAnonymous() {
	if c.AnonymousAccess() {
		c.logger.Warn(anonymousWarning)
	}
}

// Save writes {"auth_token", "port"} and reports success.
func (c *Config) Save() bool {
	c.mu.RLock()
	doc := map[string]any{
		"port":       c.port,
		"auth_token": c.authToken,
	}
	c.mu.RUnlock()

	content, err := util.MarshalJSON(doc, constants.JSONIndent)
	if err != nil {
		c.logger.Error("failed to encode config", "error", err)
		return false
	}
	if !c.store.Write(c.path, content) {
		c.logger.Error("failed to save config", "path", c.path)
		return false
	}
	c.logger.Info("successfully saved config", "path", c.path)
	return true
}

// ConfigureAuth prompts on out for a new token read from in as a single
// whitespace-delimited word. Empty input keeps the current token. The
// resulting token is echoed and the config is saved.
func (c *Config) ConfigureAuth(in io.Reader, out io.Writer) string {
	_, _ = fmt.Fprint(out, "Enter new auth token: ")

	scanner := bufio.NewScanner(in)
	scanner.Split(bufio.ScanWords)
	var newToken string
	if scanner.Scan() {
		newToken = scanner.Text()
	}

	c.mu.Lock()
	if newToken != "" {
		c.authToken = newToken
	}
	token := c.authToken
	c.mu.Unlock()

	_, _ = fmt.Fprintf(out, "New auth token: %s\n", token)
	c.Save()
	return token
}

// Port returns the configured listen port.
func (c *Config) Port() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.port
}

// AnonymousAccess is true when no token is configured.
func (c *Config) AnonymousAccess() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authToken == ""
}

// CheckAuthToken compares candidate with the stored token.
func (c *Config) CheckAuthToken(candidate string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return subtle.ConstantTimeCompare([]byte(c.authToken), []byte(candidate)) == 1
}
