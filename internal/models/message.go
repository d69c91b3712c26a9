package models

// Message is the static payload returned by the demo API routes
type Message struct {
	Msg string `json:"msg"`
}

const (
	PublicMessage     = "Hello from a public endpoint! You don't need to be authenticated to see this."
	PrivateMessage    = "Hello from a private endpoint! You need to be authenticated to see this."
	ExternalMessage   = "Your access token was successfully validated!"
	PermissionMessage = "Your access token AND PERMISSION was successfully validated!"
)
