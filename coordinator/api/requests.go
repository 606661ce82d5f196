package api

import (
	"github.com/absmach/fusion/coordinator"
	pkgerrors "github.com/absmach/fusion/pkg/errors"
	"github.com/absmach/fusion/session"
	apiutil "github.com/absmach/supermq/api/http/util"
)

type createSessionReq struct {
	Name    string         `json:"name"`
	Creator string         `json:"creator"`
	Config  session.Config `json:"config"`
}

func (c *createSessionReq) validate() error {
	return c.Config.Validate()
}

type entityReq struct {
	id string
}

func (e *entityReq) validate() error {
	if e.id == "" {
		return apiutil.ErrMissingID
	}

	return nil
}

type listEntityReq struct {
	offset, limit uint64
}

func (e *listEntityReq) validate() error {
	return nil
}

type participantReq struct {
	id            string
	ParticipantID string `json:"participant_id"`
}

func (p *participantReq) validate() error {
	if p.id == "" || p.ParticipantID == "" {
		return apiutil.ErrMissingID
	}

	return nil
}

type submitUpdateReq struct {
	id string
	coordinator.Submission
}

func (s *submitUpdateReq) validate() error {
	if s.id == "" {
		return apiutil.ErrMissingID
	}
	if s.ParticipantID == "" {
		return apiutil.ErrMissingID
	}

	return nil
}

type submitUpdateCBORReq struct {
	id   string
	data []byte
}

func (s *submitUpdateCBORReq) validate() error {
	if s.id == "" {
		return apiutil.ErrMissingID
	}
	if len(s.data) == 0 {
		return pkgerrors.ErrInvalidData
	}

	return nil
}

type abortSessionReq struct {
	id     string
	Reason string `json:"reason"`
}

func (a *abortSessionReq) validate() error {
	if a.id == "" {
		return apiutil.ErrMissingID
	}

	return nil
}

type seedModelReq struct {
	Parameters []byte `json:"parameters"`
}

func (s *seedModelReq) validate() error {
	if len(s.Parameters) == 0 {
		return pkgerrors.ErrInvalidData
	}

	return nil
}

type modelReq struct {
	version uint64
}

func (m *modelReq) validate() error {
	return nil
}
