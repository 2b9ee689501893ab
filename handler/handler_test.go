package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/agencykit"
	"github.com/dmitrymomot/agencykit/handler"
	"github.com/dmitrymomot/agencykit/pkg/binder"
	"github.com/dmitrymomot/agencykit/pkg/logger"
	"github.com/dmitrymomot/agencykit/pkg/validator"
)

type greetRequest struct {
	Name string `json:"name"`
}

type envelope struct {
	Data  map[string]any `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func serve(t *testing.T, h http.HandlerFunc, r *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h(rec, r)
	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func wrap(fn handler.HandlerFunc[greetRequest]) http.HandlerFunc {
	return handler.Wrap(fn,
		handler.WithBinders(binder.JSON()),
		handler.WithErrorHandler(handler.NewErrorHandler(logger.Nop())))
}

func post(body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func TestWrap(t *testing.T) {
	t.Parallel()

	t.Run("binds and renders data", func(t *testing.T) {
		t.Parallel()
		h := wrap(func(_ handler.Context, req greetRequest) handler.Response {
			return handler.Created(map[string]string{"hello": req.Name})
		})
		rec, body := serve(t, h, post(`{"name":"ana"}`))
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, "ana", body.Data["hello"])
		assert.Nil(t, body.Error)
	})

	t.Run("bind failure is a bad request", func(t *testing.T) {
		t.Parallel()
		h := wrap(func(handler.Context, greetRequest) handler.Response {
			t.Fatal("handler must not run")
			return nil
		})
		rec, body := serve(t, h, post(`{"unknown":true}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotNil(t, body.Error)
		assert.Equal(t, "invalid_argument", body.Error.Code)
	})

	t.Run("nil response is internal", func(t *testing.T) {
		t.Parallel()
		h := wrap(func(handler.Context, greetRequest) handler.Response { return nil })
		rec, body := serve(t, h, post(`{}`))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "internal error", body.Error.Message)
	})

	t.Run("error kinds map to status codes", func(t *testing.T) {
		t.Parallel()
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{agencykit.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
			{agencykit.ErrPermissionDenied, http.StatusForbidden, "permission_denied"},
			{agencykit.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument"},
			{agencykit.ErrNotFound, http.StatusNotFound, "not_found"},
			{agencykit.ErrResourceExhausted, http.StatusTooManyRequests, "resource_exhausted"},
			{errors.New("boom"), http.StatusInternalServerError, "internal"},
		}
		for _, tc := range cases {
			t.Run(tc.code, func(t *testing.T) {
				t.Parallel()
				h := wrap(func(handler.Context, greetRequest) handler.Response { return handler.Error(tc.err) })
				rec, body := serve(t, h, post(`{}`))
				assert.Equal(t, tc.status, rec.Code)
				require.NotNil(t, body.Error)
				assert.Equal(t, tc.code, body.Error.Code)
			})
		}
	})
}

func TestClassify(t *testing.T) {
	t.Parallel()

	t.Run("quota details", func(t *testing.T) {
		t.Parallel()
		info := handler.Classify(&agencykit.QuotaError{Resource: "sub_tenants", Current: 12, Limit: 12})
		assert.Equal(t, http.StatusTooManyRequests, info.Status)
		assert.Equal(t, "sub_tenants", info.Detail.Details["resource"])
		assert.EqualValues(t, 12, info.Detail.Details["current"])
		assert.EqualValues(t, 12, info.Detail.Details["limit"])
	})

	t.Run("validation details", func(t *testing.T) {
		t.Parallel()
		verr := validator.Apply(validator.RequiredString("industry", ""))
		info := handler.Classify(errors.Join(agencykit.ErrInvalidArgument, verr))
		assert.Equal(t, http.StatusBadRequest, info.Status)
		assert.Equal(t, "validation failed", info.Detail.Message)
		fields, ok := info.Detail.Details["fields"].(map[string][]string)
		require.True(t, ok)
		assert.Contains(t, fields, "industry")
	})

	t.Run("reasons skip kind sentinels", func(t *testing.T) {
		t.Parallel()
		err := errors.Join(agencykit.ErrPermissionDenied, errors.New("billing.not_eligible"), errors.New("plan is pro"))
		info := handler.Classify(err)
		assert.Equal(t, []string{"billing.not_eligible", "plan is pro"}, info.Detail.Details["reasons"])
	})

	t.Run("internal errors stay opaque", func(t *testing.T) {
		t.Parallel()
		info := handler.Classify(errors.New("pq: password authentication failed"))
		assert.Equal(t, "internal error", info.Detail.Message)
		assert.Nil(t, info.Detail.Details)
	})
}
