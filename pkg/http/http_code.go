package http

import "net/http"

var (
	// Unauthorized 401
	Unauthorized         = failed(http.StatusUnauthorized, 4401, "Unauthorized")
	AuthorizationEmpty   = failed(http.StatusUnauthorized, 4404, "Authorization is empty")
	InvalidToken         = failed(http.StatusUnauthorized, 4405, "Invalid token")
	TokenFormatIncorrect = failed(http.StatusUnauthorized, 4408, "Token format is incorrect")

	// BadRequest 400
	BadRequest                    = failed(http.StatusBadRequest, 4000, "Bad request")
	RequestParameterParsingFailed = failed(http.StatusBadRequest, 4001, "Request parameter parsing failed")
	InvalidStatusParameter        = failed(http.StatusBadRequest, 4002, "Invalid status parameter")

	NotFound = failed(http.StatusNotFound, 4004, "Not found")

	// Conflict 409
	Conflict       = failed(http.StatusConflict, 4009, "Conflict")
	AlreadyClaimed = failed(http.StatusConflict, 4091, "Invite already claimed or revoked")
	InvalidState   = failed(http.StatusConflict, 4092, "Operation not allowed in current state")

	InternalError        = failed(http.StatusInternalServerError, 5000, "Internal error, please contact the administrator")
	DirectoryUnavailable = failed(http.StatusBadGateway, 5003, "Identity directory unavailable")
)

var (
	Success = success(http.StatusOK, 200, "Request Success")
)

// codeStatus maps every registered business code to its HTTP status.
var codeStatus = map[int]int{}

func failed(status, code int, msg string) *Response {
	codeStatus[code] = status
	return &Response{
		Code: code,
		Msg:  msg,
	}
}

func success(status, code int, msg string) *Response {
	codeStatus[code] = status
	return &Response{
		Code: code,
		Msg:  msg,
	}
}

// StatusOf returns the HTTP status for a business code, 500 when unknown.
func StatusOf(code int) int {
	if s, ok := codeStatus[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}
