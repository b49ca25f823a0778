package server

import (
	"os"

	"github.com/golang/groupcache/lru"
	"github.com/sirupsen/logrus"

	"github.com/robert-malhotra/go-dap/handler"
)

// openFunc opens a file into a handler.
type openFunc func(path string, opts ...handler.Option) (*handler.Handler, error)

// handlerCache keeps recently used handlers open. Evicted handlers are
// closed. It is not safe for concurrent use; the server serializes access.
type handlerCache struct {
	lru  *lru.Cache
	open openFunc
	opts []handler.Option
	log  logrus.FieldLogger
}

func newHandlerCache(size int, open openFunc, log logrus.FieldLogger, opts ...handler.Option) *handlerCache {
	c := &handlerCache{
		lru:  lru.New(size),
		open: open,
		opts: opts,
		log:  log,
	}
	c.lru.OnEvicted = func(key lru.Key, value interface{}) {
		h := value.(*handler.Handler)
		if err := h.Close(); err != nil {
			c.log.WithError(err).WithField("path", key).Warn("closing evicted handler")
		}
	}
	return c
}

// get returns the handler for path, opening it if it is not cached or the
// file changed since it was opened.
func (c *handlerCache) get(path string) (*handler.Handler, error) {
	if v, ok := c.lru.Get(path); ok {
		h := v.(*handler.Handler)
		fi, err := os.Stat(path)
		if err == nil && fi.ModTime().Equal(h.LastModified()) {
			return h, nil
		}
		c.log.WithField("path", path).Debug("file changed, reopening")
		c.lru.Remove(path)
	}

	h, err := c.open(path, c.opts...)
	if err != nil {
		return nil, err
	}
	c.lru.Add(path, h)
	return h, nil
}

// len returns the number of open handlers.
func (c *handlerCache) len() int { return c.lru.Len() }

// close evicts and closes every handler.
func (c *handlerCache) close() {
	for c.lru.Len() > 0 {
		c.lru.RemoveOldest()
	}
}
