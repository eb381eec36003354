package models

import (
	"fmt"
	"strings"
)

// Action is a single user gesture delivered to the dispatcher.
type Action string

const (
	ActionQuit       Action = "quit"
	ActionSendPacket Action = "send"
	ActionShowConfig Action = "config"
)

// ParseAction maps a command word to an Action.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quit", "exit":
		return ActionQuit, nil
	case "send", "wake":
		return ActionSendPacket, nil
	case "config", "configure":
		return ActionShowConfig, nil
	default:
		return "", fmt.Errorf("unknown action %q", s)
	}
}

func (a Action) String() string {
	return string(a)
}
