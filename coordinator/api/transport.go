package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/absmach/fusion/coordinator"
	"github.com/absmach/fusion/pkg/api"
	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxUpdateSize = 1024 * 1024 * 100

func MakeHandler(svc coordinator.Service, logger *slog.Logger, instanceID string) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(apiutil.LoggingErrorEncoder(logger, api.EncodeError)),
	}

	mux.Route("/sessions", func(r chi.Router) {
		r.Post("/", otelhttp.NewHandler(kithttp.NewServer(
			createSessionEndpoint(svc),
			decodeCreateSessionReq,
			api.EncodeResponse,
			opts...,
		), "create-session").ServeHTTP)
		r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
			listSessionsEndpoint(svc),
			decodeListEntityReq,
			api.EncodeResponse,
			opts...,
		), "list-sessions").ServeHTTP)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
				getSessionEndpoint(svc),
				decodeEntityReq("sessionID"),
				api.EncodeResponse,
				opts...,
			), "get-session").ServeHTTP)
			r.Post("/participants", otelhttp.NewHandler(kithttp.NewServer(
				addParticipantEndpoint(svc),
				decodeParticipantReq,
				api.EncodeResponse,
				opts...,
			), "add-participant").ServeHTTP)
			r.Post("/advance", otelhttp.NewHandler(kithttp.NewServer(
				advanceSessionEndpoint(svc),
				decodeEntityReq("sessionID"),
				api.EncodeResponse,
				opts...,
			), "advance-session").ServeHTTP)
			r.Post("/updates", otelhttp.NewHandler(kithttp.NewServer(
				submitUpdateEndpoint(svc),
				decodeSubmitUpdateReq,
				api.EncodeResponse,
				opts...,
			), "submit-update").ServeHTTP)
			r.Post("/updates/cbor", otelhttp.NewHandler(kithttp.NewServer(
				submitUpdateCBOREndpoint(svc),
				decodeSubmitUpdateCBORReq,
				api.EncodeResponse,
				opts...,
			), "submit-update-cbor").ServeHTTP)
			r.Post("/aggregate", otelhttp.NewHandler(kithttp.NewServer(
				aggregateEndpoint(svc),
				decodeEntityReq("sessionID"),
				api.EncodeResponse,
				opts...,
			), "aggregate").ServeHTTP)
			r.Post("/abort", otelhttp.NewHandler(kithttp.NewServer(
				abortSessionEndpoint(svc),
				decodeAbortSessionReq,
				api.EncodeResponse,
				opts...,
			), "abort-session").ServeHTTP)
		})
	})

	mux.Route("/models", func(r chi.Router) {
		r.Post("/", otelhttp.NewHandler(kithttp.NewServer(
			seedModelEndpoint(svc),
			decodeSeedModelReq,
			api.EncodeResponse,
			opts...,
		), "seed-model").ServeHTTP)
		r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
			listModelsEndpoint(svc),
			decodeListEntityReq,
			api.EncodeResponse,
			opts...,
		), "list-models").ServeHTTP)
		r.Get("/{version}", otelhttp.NewHandler(kithttp.NewServer(
			getModelEndpoint(svc),
			decodeModelReq,
			api.EncodeResponse,
			opts...,
		), "get-model").ServeHTTP)
	})

	mux.Get("/health", supermq.Health("coordinator", instanceID))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func decodeEntityReq(key string) kithttp.DecodeRequestFunc {
	return func(_ context.Context, r *http.Request) (any, error) {
		return entityReq{
			id: chi.URLParam(r, key),
		}, nil
	}
}

func decodeCreateSessionReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req createSessionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}

	return req, nil
}

func decodeListEntityReq(_ context.Context, r *http.Request) (any, error) {
	o, err := apiutil.ReadNumQuery[uint64](r, api.OffsetKey, api.DefOffset)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	l, err := apiutil.ReadNumQuery[uint64](r, api.LimitKey, api.DefLimit)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	return listEntityReq{
		offset: o,
		limit:  l,
	}, nil
}

func decodeParticipantReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	req := participantReq{
		id: chi.URLParam(r, "sessionID"),
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}

	return req, nil
}

func decodeSubmitUpdateReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	req := submitUpdateReq{
		id: chi.URLParam(r, "sessionID"),
	}
	if err := json.NewDecoder(r.Body).Decode(&req.Submission); err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}

	return req, nil
}

func decodeSubmitUpdateCBORReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentTypeCBOR) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxUpdateSize))
	if err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}

	return submitUpdateCBORReq{
		id:   chi.URLParam(r, "sessionID"),
		data: data,
	}, nil
}

func decodeAbortSessionReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	req := abortSessionReq{
		id: chi.URLParam(r, "sessionID"),
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}

	return req, nil
}

func decodeSeedModelReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req seedModelReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}

	return req, nil
}

func decodeModelReq(_ context.Context, r *http.Request) (any, error) {
	version, err := strconv.ParseUint(chi.URLParam(r, "version"), 10, 64)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	return modelReq{
		version: version,
	}, nil
}
