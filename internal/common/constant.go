package common

// AuthorizationHeader carries the bearer token on outbound API requests.
const (
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "
)
