package common

// AuthorizationHeaderName carries the bearer access token on HTTP requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the access token in AuthorizationHeaderName.
const BearerPrefix = "Bearer "

// MeUserID addresses the authenticated user in /users/{id} routes.
const MeUserID = "me"
