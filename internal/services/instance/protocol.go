// Package instance enforces a single running agent and lets other
// processes submit actions to it over a local socket.
package instance

// Request is one JSON line sent by a client.
type Request struct {
	Command string `json:"command"`
}

// Response is the JSON line written back to the client.
type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CommandStatus asks for the agent's state without enqueuing an action.
const CommandStatus = "status"
