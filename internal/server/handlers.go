package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/caffeineduck/gorc/clvalue"
	"github.com/caffeineduck/gorc/errors"
	"github.com/caffeineduck/gorc/executor"
	"github.com/caffeineduck/gorc/internal/config"
	"github.com/caffeineduck/gorc/invocation"
	"github.com/caffeineduck/gorc/registry"
	"github.com/go-chi/chi/v5"
	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server exposes an Executor over HTTP.
type Server struct {
	exec       *executor.Executor
	instances  *Manager
	cfg        config.ServerConfig
	invokeOpts []executor.Option
	logger     *zap.Logger
}

func New(exec *executor.Executor, instances *Manager, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		exec:       exec,
		instances:  instances,
		cfg:        cfg.Server,
		invokeOpts: cfg.Executor.InvokeOptions(),
		logger:     logger,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimd.RequestID)
	r.Use(chimd.Recoverer)
	r.Use(accessLog(s.logger))
	r.Use(collect)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/keys", s.handleKey)

	r.Route("/contracts", func(r chi.Router) {
		r.Post("/", s.handleLoad)
		r.Get("/", s.handleList)
		r.Route("/{id}", func(r chi.Router) {
			r.Delete("/", s.handleClose)
			r.Get("/functions", s.handleFunctions)
			r.Post("/invoke", s.handleInvoke)
		})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, badRequest("name required"))
		return
	}
	shape, err := registry.ParseShapeText(r.URL.Query().Get("shape"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, keyResponse{
		Key:       registry.DeriveKey(name, shape).String(),
		Signature: name + shape.String(),
	})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "contract"
	}
	bin, err := io.ReadAll(s.limitBody(w, r))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, badRequest("module exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, badRequest("read body: %v", err))
		return
	}
	if len(bin) == 0 {
		writeError(w, http.StatusBadRequest, badRequest("empty module"))
		return
	}

	inst, err := s.exec.Load(r.Context(), executor.WASM(name, bin))
	if err != nil {
		writeError(w, loadStatus(err), err)
		return
	}
	id, err := s.instances.Add(inst)
	if err != nil {
		inst.Close()
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	s.logger.Info("contract loaded", zap.String("instance_id", id), zap.String("contract", name),
		zap.Int("functions", len(inst.Entries())))

	writeJSON(w, http.StatusCreated, loadResponse{
		InstanceID: id,
		Name:       name,
		Functions:  functionInfos(inst.Entries()),
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.instances.List())
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.instances.Remove(id) {
		writeError(w, http.StatusNotFound, instanceNotFound(id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFunctions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	inst, ok := s.instances.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, instanceNotFound(id))
		return
	}
	writeJSON(w, http.StatusOK, functionInfos(inst.Entries()))
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	inst, ok := s.instances.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, instanceNotFound(id))
		return
	}

	var req invokeRequest
	if err := json.NewDecoder(s.limitBody(w, r)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, badRequest("request exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, badRequest("invalid json: %v", err))
		return
	}
	key, args, opts, err := s.parseInvoke(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	start := time.Now()
	res, err := inst.Invoke(r.Context(), key, args, opts...)
	resp := invokeResponse{DurationMs: time.Since(start).Milliseconds()}
	if err != nil {
		if errors.IsFatal(err) || stderrors.Is(err, errors.ErrClosed) {
			s.instances.Remove(id)
			s.logger.Warn("instance faulted", zap.String("instance_id", id), zap.Error(err))
		}
		resp.setError(err)
		writeJSON(w, statusFor(err), resp)
		return
	}
	resp.Present = res.Present
	if res.Present {
		resp.Result = formatValue(res.Value)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) parseInvoke(req invokeRequest) (registry.Key, *invocation.Args, []executor.Option, error) {
	args := invocation.NewArgs()
	for _, tv := range req.Args {
		v, err := tv.parse()
		if err != nil {
			return registry.Key{}, nil, nil, err
		}
		args.Append(v)
	}

	var key registry.Key
	switch {
	case req.Key != "":
		k, err := registry.ParseKey(req.Key)
		if err != nil {
			return registry.Key{}, nil, nil, err
		}
		key = k
	case req.Name != "":
		key = registry.DeriveKey(req.Name, args.Shape())
	default:
		return registry.Key{}, nil, nil, badRequest("key or name required")
	}

	opts := append([]executor.Option(nil), s.invokeOpts...)
	if req.Expect != "" {
		tag, err := clvalue.ParseTag(req.Expect)
		if err != nil {
			return registry.Key{}, nil, nil, err
		}
		opts = append(opts, executor.ExpectResult(tag))
	}
	if req.Timeout != "" {
		d, err := time.ParseDuration(req.Timeout)
		if err != nil {
			return registry.Key{}, nil, nil, badRequest("invalid timeout %q", req.Timeout)
		}
		opts = append(opts, executor.WithTimeout(d))
	}
	return key, args, opts, nil
}

// limitBody caps the request body at MaxBodyBytes.
func (s *Server) limitBody(w http.ResponseWriter, r *http.Request) io.Reader {
	if s.cfg.MaxBodyBytes <= 0 {
		return r.Body
	}
	return http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
}

// statusFor maps an error to the HTTP status reported for it.
func statusFor(err error) int {
	phase, kind, ok := errors.Classify(err)
	if !ok {
		if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
			return http.StatusServiceUnavailable
		}
		return http.StatusInternalServerError
	}
	switch {
	case kind == errors.KindNotFound:
		return http.StatusNotFound
	case kind == errors.KindFaulted || kind == errors.KindClosed:
		return http.StatusGone
	case phase == errors.PhaseHost || kind == errors.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}

// loadStatus maps a load failure. Everything the module itself got wrong is
// unprocessable; a closed executor means the server is going away.
func loadStatus(err error) int {
	_, kind, ok := errors.Classify(err)
	switch {
	case !ok:
		return http.StatusInternalServerError
	case kind == errors.KindInvalidInput:
		return http.StatusBadRequest
	case kind == errors.KindClosed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnprocessableEntity
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, newErrorResponse(err))
}
