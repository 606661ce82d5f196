package api

import (
	"net/http"
	"strconv"

	"github.com/absmach/fusion/model"
	"github.com/absmach/fusion/session"
	"github.com/absmach/supermq"
)

var (
	_ supermq.Response = (*sessionResponse)(nil)
	_ supermq.Response = (*listSessionResponse)(nil)
	_ supermq.Response = (*modelResponse)(nil)
	_ supermq.Response = (*listModelResponse)(nil)
)

type sessionResponse struct {
	session.Session
	created bool
}

func (s sessionResponse) Code() int {
	if s.created {
		return http.StatusCreated
	}

	return http.StatusOK
}

func (s sessionResponse) Headers() map[string]string {
	if s.created {
		return map[string]string{
			"Location": "/sessions/" + s.ID,
		}
	}

	return map[string]string{}
}

func (s sessionResponse) Empty() bool {
	return false
}

type listSessionResponse struct {
	session.Page
}

func (l listSessionResponse) Code() int {
	return http.StatusOK
}

func (l listSessionResponse) Headers() map[string]string {
	return map[string]string{}
}

func (l listSessionResponse) Empty() bool {
	return false
}

type modelResponse struct {
	model.GlobalModel
	created bool
}

func (m modelResponse) Code() int {
	if m.created {
		return http.StatusCreated
	}

	return http.StatusOK
}

func (m modelResponse) Headers() map[string]string {
	if m.created {
		return map[string]string{
			"Location": "/models/" + strconv.FormatUint(m.Version, 10),
		}
	}

	return map[string]string{}
}

func (m modelResponse) Empty() bool {
	return false
}

type listModelResponse struct {
	model.Page
}

func (l listModelResponse) Code() int {
	return http.StatusOK
}

func (l listModelResponse) Headers() map[string]string {
	return map[string]string{}
}

func (l listModelResponse) Empty() bool {
	return false
}
