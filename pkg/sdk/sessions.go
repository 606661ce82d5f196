package sdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/absmach/fusion/coordinator"
	"github.com/absmach/fusion/session"
)

const sessionsEndpoint = "/sessions"

type SessionRequest struct {
	Name    string         `json:"name"`
	Creator string         `json:"creator"`
	Config  session.Config `json:"config"`
}

func (sdk *fusionSDK) CreateSession(req SessionRequest) (session.Session, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return session.Session{}, err
	}

	url := sdk.coordinatorURL + sessionsEndpoint

	body, err := sdk.processRequest(http.MethodPost, url, data, http.StatusCreated)
	if err != nil {
		return session.Session{}, err
	}

	var s session.Session
	if err := json.Unmarshal(body, &s); err != nil {
		return session.Session{}, err
	}

	return s, nil
}

func (sdk *fusionSDK) GetSession(id string) (session.Session, error) {
	url := sdk.coordinatorURL + sessionsEndpoint + "/" + id

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return session.Session{}, err
	}

	var s session.Session
	if err := json.Unmarshal(body, &s); err != nil {
		return session.Session{}, err
	}

	return s, nil
}

func (sdk *fusionSDK) ListSessions(offset, limit uint64) (session.Page, error) {
	url := sdk.coordinatorURL + sessionsEndpoint + pageQuery(offset, limit)

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return session.Page{}, err
	}

	var p session.Page
	if err := json.Unmarshal(body, &p); err != nil {
		return session.Page{}, err
	}

	return p, nil
}

func (sdk *fusionSDK) AddParticipant(id, participantID string) (session.Session, error) {
	data, err := json.Marshal(map[string]string{"participant_id": participantID})
	if err != nil {
		return session.Session{}, err
	}

	url := sdk.coordinatorURL + sessionsEndpoint + "/" + id + "/participants"

	body, err := sdk.processRequest(http.MethodPost, url, data, http.StatusOK)
	if err != nil {
		return session.Session{}, err
	}

	var s session.Session
	if err := json.Unmarshal(body, &s); err != nil {
		return session.Session{}, err
	}

	return s, nil
}

func (sdk *fusionSDK) AdvanceSession(id string) (session.Session, error) {
	url := sdk.coordinatorURL + sessionsEndpoint + "/" + id + "/advance"

	body, err := sdk.processRequest(http.MethodPost, url, nil, http.StatusOK)
	if err != nil {
		return session.Session{}, err
	}

	var s session.Session
	if err := json.Unmarshal(body, &s); err != nil {
		return session.Session{}, err
	}

	return s, nil
}

func (sdk *fusionSDK) SubmitUpdate(id string, sub coordinator.Submission) (session.Session, error) {
	data, err := json.Marshal(sub)
	if err != nil {
		return session.Session{}, err
	}

	url := sdk.coordinatorURL + sessionsEndpoint + "/" + id + "/updates"

	body, err := sdk.processRequest(http.MethodPost, url, data, http.StatusOK)
	if err != nil {
		return session.Session{}, err
	}

	var s session.Session
	if err := json.Unmarshal(body, &s); err != nil {
		return session.Session{}, err
	}

	return s, nil
}

func (sdk *fusionSDK) AbortSession(id, reason string) (session.Session, error) {
	data, err := json.Marshal(map[string]string{"reason": reason})
	if err != nil {
		return session.Session{}, err
	}

	url := sdk.coordinatorURL + sessionsEndpoint + "/" + id + "/abort"

	body, err := sdk.processRequest(http.MethodPost, url, data, http.StatusOK)
	if err != nil {
		return session.Session{}, err
	}

	var s session.Session
	if err := json.Unmarshal(body, &s); err != nil {
		return session.Session{}, err
	}

	return s, nil
}

func pageQuery(offset, limit uint64) string {
	queries := make([]string, 0)
	if offset > 0 {
		queries = append(queries, fmt.Sprintf("offset=%d", offset))
	}
	if limit > 0 {
		queries = append(queries, fmt.Sprintf("limit=%d", limit))
	}
	if len(queries) == 0 {
		return ""
	}

	return "?" + strings.Join(queries, "&")
}
