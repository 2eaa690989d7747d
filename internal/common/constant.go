package common

const (
	// AuthorizationHeader carries the bearer access token on protected requests.
	AuthorizationHeader = "Authorization"

	// BearerScheme is the only accepted Authorization scheme.
	BearerScheme = "Bearer"

	// DefaultRole is attached to every user view; role management lives elsewhere.
	DefaultRole = "user"
)
