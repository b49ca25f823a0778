package handler

import (
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/robert-malhotra/go-dap/model"
)

// Extensions matches the file names handlers serve.
var Extensions = regexp.MustCompile(`(?i)\.(nc4?|h5|hdf[45]?)$`)

// Match reports whether path has a served extension.
func Match(path string) bool {
	return Extensions.MatchString(path)
}

// OpenFunc opens path with a specific backend. Backends log through log.
type OpenFunc func(path string, log logrus.FieldLogger) (File, error)

// Handler is an open file together with its dataset tree.
type Handler struct {
	path    string
	file    File
	dataset *model.DatasetType
	modTime time.Time
	log     logrus.FieldLogger
	closed  bool
}

// New opens path with open and builds its dataset. Failures to open the file
// are returned as *OpenError.
func New(path string, open OpenFunc, opts ...Option) (*Handler, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	fi, err := os.Stat(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	f, err := open(path, o.log)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}

	name := o.name
	if name == "" {
		name = url.PathEscape(filepath.Base(path))
	}
	ds, err := buildWith(name, f.Root(), o)
	if err != nil {
		f.Close()
		return nil, err
	}

	o.log.WithFields(logrus.Fields{"path": path, "variables": len(ds.Keys())}).Debug("opened dataset")
	return &Handler{
		path:    path,
		file:    f,
		dataset: ds,
		modTime: fi.ModTime(),
		log:     o.log,
	}, nil
}

// Dataset returns the dataset tree. Its views stay valid until Close.
func (h *Handler) Dataset() *model.DatasetType { return h.dataset }

// Path returns the path the handler was opened with.
func (h *Handler) Path() string { return h.path }

// LastModified returns the file modification time at open.
func (h *Handler) LastModified() time.Time { return h.modTime }

// Close closes the underlying file. Reads through the dataset fail with
// ErrClosed afterwards.
func (h *Handler) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	h.log.WithField("path", h.path).Debug("closing dataset")
	return h.file.Close()
}
