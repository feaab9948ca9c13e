// Package gateway exposes the datalink query/command operations as a JSON
// HTTP API. Every route calls the same service the gRPC server registers and
// renders its reply in the proto3 JSON mapping.
package gateway

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/datalink-fusion/api/datalinkv1"
	"github.com/signalsfoundry/datalink-fusion/internal/logging"
)

const requestIDHeader = "X-Request-ID"

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// IdentificationRequest is the body of PUT /api/v1/tracks/:id/identification.
type IdentificationRequest struct {
	Identification string `json:"identification" binding:"required"`
}

// Options wires optional collaborators into the router.
type Options struct {
	Logger  logging.Logger
	Metrics http.Handler // served at /metrics when set
	Timeout time.Duration
}

type handlers struct {
	svc datalinkv1.DatalinkServiceServer
	log logging.Logger
}

// NewRouter builds the gin engine.
//
//	GET    /api/v1/tracks
//	GET    /api/v1/tracks/:id
//	PUT    /api/v1/tracks/:id/identification
//	DELETE /api/v1/tracks/:id/identification
//	GET    /healthz
//	GET    /metrics
func NewRouter(svc datalinkv1.DatalinkServiceServer, opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = logging.Noop()
	}
	h := &handlers{svc: svc, log: log}

	r := gin.New()
	r.Use(gin.Recovery(), requestContext(log), requestTimeout(opts.Timeout))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	v1 := r.Group("/api/v1")
	v1.GET("/tracks", h.listTracks)
	v1.GET("/tracks/:id", h.getTrack)
	v1.PUT("/tracks/:id/identification", h.setIdentification)
	v1.DELETE("/tracks/:id/identification", h.clearIdentification)
	return r
}

func (h *handlers) listTracks(c *gin.Context) {
	resp, err := h.svc.ListTracks(c.Request.Context(), &datalinkv1.ListTracksRequest{})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, resp)
}

func (h *handlers) getTrack(c *gin.Context) {
	resp, err := h.svc.GetTrack(c.Request.Context(), &datalinkv1.GetTrackRequest{TrackID: c.Param("id")})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, resp.GetTrack())
}

func (h *handlers) setIdentification(c *gin.Context) {
	var req IdentificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, status.Error(codes.InvalidArgument, "body must be {\"identification\": \"FRIEND|FOE|NEUTRAL|UNKNOWN\"}"))
		return
	}
	ident, ok := datalinkv1.ParseIdentification(req.Identification)
	if !ok {
		h.fail(c, status.Errorf(codes.InvalidArgument, "unknown identification %q", req.Identification))
		return
	}
	resp, err := h.svc.SetManualIdentification(c.Request.Context(), &datalinkv1.SetManualIdentificationRequest{
		TrackID:        c.Param("id"),
		Identification: ident,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, resp.GetTrack())
}

func (h *handlers) clearIdentification(c *gin.Context) {
	resp, err := h.svc.ClearManualIdentification(c.Request.Context(), &datalinkv1.ClearManualIdentificationRequest{
		TrackID: c.Param("id"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, resp.GetTrack())
}

func (h *handlers) render(c *gin.Context, m datalinkv1.Message) {
	b, err := datalinkv1.ToJSON(m)
	if err != nil {
		h.fail(c, status.Errorf(codes.Internal, "render reply: %v", err))
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", b)
}

func (h *handlers) fail(c *gin.Context, err error) {
	st := status.Convert(err)
	code := HTTPStatus(st.Code())
	ctx := c.Request.Context()
	if code >= http.StatusInternalServerError {
		logging.FromContext(ctx, h.log).Error(ctx, "gateway request failed",
			logging.String("path", c.FullPath()),
			logging.Err(err),
		)
	}
	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:     st.Message(),
		Code:      st.Code().String(),
		RequestID: logging.RequestIDFromContext(ctx),
	})
}

// HTTPStatus maps a gRPC code onto the HTTP status the gateway returns.
func HTTPStatus(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.Aborted:
		return http.StatusConflict
	case codes.FailedPrecondition:
		return http.StatusPreconditionFailed
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Canceled:
		return 499
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Unimplemented:
		return http.StatusNotImplemented
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
