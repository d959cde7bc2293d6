package vesync

import "encoding/json"

type (
	// Outlet describes a VeSync switched outlet registered to the account.
	Outlet struct {
		CID    string `json:"cid"`
		UUID   string `json:"uuid"`
		Name   string `json:"deviceName"`
		Type   string `json:"deviceType"`
		Status string `json:"deviceStatus"`
	}

	// apiResponse is the envelope every VeSync endpoint answers with.
	apiResponse struct {
		Code   int             `json:"code"`
		Msg    string          `json:"msg"`
		Result json.RawMessage `json:"result"`
	}

	loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Method   string `json:"method"`
		UserType string `json:"userType"`
	}

	loginResult struct {
		Token     string `json:"token"`
		AccountID string `json:"accountID"`
	}

	devicesRequest struct {
		Method   string `json:"method"`
		PageNo   string `json:"pageNo"`
		PageSize string `json:"pageSize"`
	}

	devicesResult struct {
		Total int      `json:"total"`
		List  []Outlet `json:"list"`
	}

	deviceStatusRequest struct {
		AccountID string `json:"accountID"`
		Token     string `json:"token"`
		UUID      string `json:"uuid"`
		Status    string `json:"status"`
	}
)
