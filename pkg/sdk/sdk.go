package sdk

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"

	"github.com/absmach/fusion/coordinator"
	"github.com/absmach/fusion/model"
	"github.com/absmach/fusion/session"
)

const CTJSON string = "application/json"

type SDK interface {
	// CreateSession opens a new aggregation round.
	//
	// example:
	//  req := sdk.SessionRequest{
	//    Name:   "mnist-round-12",
	//    Config: session.Config{MinParticipants: 3, Threshold: 2},
	//  }
	//  s, _ := sdk.CreateSession(req)
	//  fmt.Println(s)
	CreateSession(req SessionRequest) (session.Session, error)

	// GetSession gets a session by id.
	//
	// example:
	//  s, _ := sdk.GetSession("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040")
	//  fmt.Println(s)
	GetSession(id string) (session.Session, error)

	// ListSessions lists sessions.
	//
	// example:
	//  page, _ := sdk.ListSessions(0, 10)
	//  fmt.Println(page)
	ListSessions(offset, limit uint64) (session.Page, error)

	// AddParticipant enrolls a participant into a session.
	//
	// example:
	//  s, _ := sdk.AddParticipant("b1d10738-...", "client-7")
	AddParticipant(id, participantID string) (session.Session, error)

	// AdvanceSession drives the session one phase forward.
	//
	// example:
	//  s, _ := sdk.AdvanceSession("b1d10738-...")
	AdvanceSession(id string) (session.Session, error)

	// SubmitUpdate posts a participant contribution.
	//
	// example:
	//  s, _ := sdk.SubmitUpdate("b1d10738-...", sub)
	SubmitUpdate(id string, sub coordinator.Submission) (session.Session, error)

	// Aggregate combines all submitted updates into the next model
	// version.
	//
	// example:
	//  m, _ := sdk.Aggregate("b1d10738-...")
	Aggregate(id string) (model.GlobalModel, error)

	// AbortSession abandons a session.
	//
	// example:
	//  s, _ := sdk.AbortSession("b1d10738-...", "participant dropout")
	AbortSession(id, reason string) (session.Session, error)

	// SeedModel installs the genesis model version.
	//
	// example:
	//  m, _ := sdk.SeedModel(params)
	SeedModel(parameters []byte) (model.GlobalModel, error)

	// GetModel gets a model version.
	//
	// example:
	//  m, _ := sdk.GetModel(3)
	GetModel(version uint64) (model.GlobalModel, error)

	// ListModels lists retained model versions.
	//
	// example:
	//  page, _ := sdk.ListModels(0, 10)
	ListModels(offset, limit uint64) (model.Page, error)
}

type fusionSDK struct {
	coordinatorURL string
	client         *http.Client
}

type Config struct {
	CoordinatorURL  string
	TLSVerification bool
}

func NewSDK(cfg Config) SDK {
	return &fusionSDK{
		coordinatorURL: cfg.CoordinatorURL,
		client: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: !cfg.TLSVerification,
				},
			},
		},
	}
}

func (sdk *fusionSDK) processRequest(method, reqURL string, data []byte, expectedRespCode int) ([]byte, error) {
	req, err := http.NewRequest(method, reqURL, bytes.NewReader(data))
	if err != nil {
		return []byte{}, err
	}

	req.Header.Add("Content-Type", CTJSON)

	resp, err := sdk.client.Do(req)
	if err != nil {
		return []byte{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return []byte{}, err
	}

	if resp.StatusCode != expectedRespCode {
		return []byte{}, fmt.Errorf("unexpected response code: %d", resp.StatusCode)
	}

	return body, nil
}
