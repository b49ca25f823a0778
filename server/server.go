package server

import (
	"bytes"
	"errors"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/robert-malhotra/go-dap/data"
	"github.com/robert-malhotra/go-dap/handler"
	"github.com/robert-malhotra/go-dap/handler/hdf5"
	"github.com/robert-malhotra/go-dap/handler/netcdf4"
	"github.com/robert-malhotra/go-dap/hyperslab"
	"github.com/robert-malhotra/go-dap/model"
)

// Response suffixes appended to a file path.
const (
	DDS   = ".dds"
	DAS   = ".das"
	ASCII = ".ascii"
	JSON  = ".json"
)

var responses = []string{DDS, DAS, ASCII, JSON}

// Server serves the array files below a root directory over DAP2.
type Server struct {
	root  string
	log   logrus.FieldLogger
	mu    sync.Mutex
	cache *handlerCache
}

// New returns a server for the files below root.
func New(root string, opts ...Option) *Server {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	hopts := []handler.Option{
		handler.WithLogger(o.log),
		handler.WithStrictSlicing(o.strict),
	}
	return &Server{
		root:  root,
		log:   o.log,
		cache: newHandlerCache(o.cacheSize, o.open, o.log, hopts...),
	}
}

// Open picks a backend from the file extension: .h5 and .hdf* files are
// read as HDF5, everything else as netCDF.
func Open(path string, opts ...handler.Option) (*handler.Handler, error) {
	if strings.HasPrefix(strings.ToLower(filepath.Ext(path)), ".h") {
		return hdf5.Open(path, opts...)
	}
	return netcdf4.Open(path, opts...)
}

// Close closes every cached handler.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.close()
	return nil
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	s.serve(sw, r)
	s.log.WithFields(logrus.Fields{
		"path":     r.URL.Path,
		"status":   sw.status,
		"duration": time.Since(start),
	}).Info("request")
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	file, resp := splitResponse(path.Clean("/" + r.URL.Path))
	if resp == "" || !handler.Match(file) {
		http.NotFound(w, r)
		return
	}
	projs, err := parseConstraint(r.URL.RawQuery)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Handlers and their views share one file handle each and the
	// backends are not safe for concurrent reads.
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.cache.get(filepath.Join(s.root, filepath.FromSlash(file)))
	if err != nil {
		var oe *handler.OpenError
		if errors.As(err, &oe) && errors.Is(oe.Err, os.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		s.log.WithError(err).WithField("path", file).Error("opening dataset")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	ds := h.Dataset()

	var buf bytes.Buffer
	switch resp {
	case DDS:
		err = writeDDS(&buf, ds, s.log)
	case DAS:
		err = writeDAS(&buf, ds)
	case ASCII, JSON:
		var ls []leaf
		ls, err = resolve(ds, projs)
		if err == nil && resp == ASCII {
			err = writeASCII(&buf, ls)
		} else if err == nil {
			err = writeJSON(&buf, ds, ls)
		}
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Last-Modified", h.LastModified().UTC().Format(http.TimeFormat))
	w.Header().Set("Content-Description", "dods_"+strings.TrimPrefix(resp, "."))
	if resp == JSON {
		w.Header().Set("Content-Type", "application/json")
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		w.Write(buf.Bytes())
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrBadConstraint), isSliceError(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.log.WithError(err).Error("writing response")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// isSliceError reports whether err comes from applying a constraint to a
// view.
func isSliceError(err error) bool {
	return errors.Is(err, data.ErrDimensionMismatch) ||
		errors.Is(err, data.ErrUnsupportedComposition) ||
		errors.Is(err, hyperslab.ErrIndexRange) ||
		errors.Is(err, hyperslab.ErrZeroStep)
}

// splitResponse splits "/a/b.nc.dds" into "a/b.nc" and ".dds".
func splitResponse(p string) (string, string) {
	p = strings.TrimPrefix(p, "/")
	for _, suffix := range responses {
		if strings.HasSuffix(p, suffix) {
			return strings.TrimSuffix(p, suffix), suffix
		}
	}
	return p, ""
}
