package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/agencykit"
	"github.com/dmitrymomot/agencykit/pkg/logger"
	"github.com/dmitrymomot/agencykit/pkg/requestid"
	"github.com/dmitrymomot/agencykit/pkg/validator"
)

// ErrorInfo is the classified form of an error.
type ErrorInfo struct {
	Status   int
	Detail   ErrorDetail
	LogLevel slog.Level
}

var kindStatus = map[agencykit.Kind]int{
	agencykit.KindUnauthenticated:   http.StatusUnauthorized,
	agencykit.KindPermissionDenied:  http.StatusForbidden,
	agencykit.KindInvalidArgument:   http.StatusBadRequest,
	agencykit.KindNotFound:          http.StatusNotFound,
	agencykit.KindResourceExhausted: http.StatusTooManyRequests,
	agencykit.KindInternal:          http.StatusInternalServerError,
}

var kindMessage = map[agencykit.Kind]string{
	agencykit.KindUnauthenticated:   "authentication required",
	agencykit.KindPermissionDenied:  "permission denied",
	agencykit.KindInvalidArgument:   "invalid argument",
	agencykit.KindNotFound:          "not found",
	agencykit.KindResourceExhausted: "quota exceeded",
	agencykit.KindInternal:          "internal error",
}

// Classify maps err onto a status code and a client-safe body. Internal
// errors expose nothing beyond a short description.
func Classify(err error) ErrorInfo {
	kind := agencykit.KindOf(err)
	if errors.Is(err, ErrBind) {
		kind = agencykit.KindInvalidArgument
	}

	info := ErrorInfo{
		Status:   kindStatus[kind],
		Detail:   ErrorDetail{Code: string(kind), Message: kindMessage[kind]},
		LogLevel: slog.LevelWarn,
	}
	if kind == agencykit.KindInternal {
		info.LogLevel = slog.LevelError
		return info
	}

	details := map[string]any{}
	var qe *agencykit.QuotaError
	if errors.As(err, &qe) {
		info.Detail.Message = qe.Error()
		details["resource"] = qe.Resource
		details["current"] = qe.Current
		details["limit"] = qe.Limit
	}
	if verrs := validator.ExtractValidationErrors(err); len(verrs) > 0 {
		info.Detail.Message = "validation failed"
		details["fields"] = verrs.Map()
	} else if rs := reasons(err); len(rs) > 0 {
		details["reasons"] = rs
	}
	if len(details) > 0 {
		info.Detail.Details = details
	}
	return info
}

// reasons lists the lines of a joined error other than the kind sentinels.
func reasons(err error) []string {
	var out []string
	for line := range strings.Lines(err.Error()) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "agencykit.") {
			continue
		}
		out = append(out, line)
	}
	return out
}

// NewErrorHandler writes classified JSON errors and logs them. A nil log
// uses slog.Default.
func NewErrorHandler(log *slog.Logger) ErrorHandler {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(logger.Component("http"))

	return func(ctx Context, err error) {
		info := Classify(err)
		r := ctx.Request()
		log.LogAttrs(r.Context(), info.LogLevel, "request failed",
			logger.RequestID(requestid.FromContext(r.Context())),
			logger.Error(err),
			slog.Int("status", info.Status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
		resp := jsonResponse{status: info.Status, body: Envelope{Error: &info.Detail}}
		if rerr := resp.Render(ctx.ResponseWriter(), r); rerr != nil {
			log.ErrorContext(r.Context(), "write error response", logger.Error(rerr))
		}
	}
}
