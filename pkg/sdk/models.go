package sdk

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/absmach/fusion/model"
)

const modelsEndpoint = "/models"

func (sdk *fusionSDK) Aggregate(id string) (model.GlobalModel, error) {
	url := sdk.coordinatorURL + sessionsEndpoint + "/" + id + "/aggregate"

	body, err := sdk.processRequest(http.MethodPost, url, nil, http.StatusCreated)
	if err != nil {
		return model.GlobalModel{}, err
	}

	var m model.GlobalModel
	if err := json.Unmarshal(body, &m); err != nil {
		return model.GlobalModel{}, err
	}

	return m, nil
}

func (sdk *fusionSDK) SeedModel(parameters []byte) (model.GlobalModel, error) {
	data, err := json.Marshal(map[string][]byte{"parameters": parameters})
	if err != nil {
		return model.GlobalModel{}, err
	}

	url := sdk.coordinatorURL + modelsEndpoint

	body, err := sdk.processRequest(http.MethodPost, url, data, http.StatusCreated)
	if err != nil {
		return model.GlobalModel{}, err
	}

	var m model.GlobalModel
	if err := json.Unmarshal(body, &m); err != nil {
		return model.GlobalModel{}, err
	}

	return m, nil
}

func (sdk *fusionSDK) GetModel(version uint64) (model.GlobalModel, error) {
	url := sdk.coordinatorURL + modelsEndpoint + "/" + strconv.FormatUint(version, 10)

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return model.GlobalModel{}, err
	}

	var m model.GlobalModel
	if err := json.Unmarshal(body, &m); err != nil {
		return model.GlobalModel{}, err
	}

	return m, nil
}

func (sdk *fusionSDK) ListModels(offset, limit uint64) (model.Page, error) {
	url := sdk.coordinatorURL + modelsEndpoint + pageQuery(offset, limit)

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return model.Page{}, err
	}

	var p model.Page
	if err := json.Unmarshal(body, &p); err != nil {
		return model.Page{}, err
	}

	return p, nil
}
