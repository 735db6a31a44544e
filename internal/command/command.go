package command

import (
	"fmt"
	"strings"
)

// Command is the closed set of controller actions reachable from the text
// command boundary. Raw strings never travel past Parse.
type Command int

const (
	Connect Command = iota
	Disconnect
	Start
	Hold
	Resume
	Abort
	EStop
)

// ErrSyntax marks an unknown or malformed command line.
type ErrSyntax struct {
	Input string
}

func (e *ErrSyntax) Error() string {
	return fmt.Sprintf("unknown command: %q", e.Input)
}

// Parse resolves one command line to a Command. Aliases follow the device
// console vocabulary (usb_connect, pause, estop, ...).
func Parse(line string) (Command, error) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "connect", "usb_connect":
		return Connect, nil
	case "disconnect", "usb_disconnect":
		return Disconnect, nil
	case "start":
		return Start, nil
	case "hold", "pause":
		return Hold, nil
	case "resume", "unpause":
		return Resume, nil
	case "abort":
		return Abort, nil
	case "estop", "stop":
		return EStop, nil
	default:
		return 0, &ErrSyntax{Input: strings.TrimSpace(line)}
	}
}

func (c Command) String() string {
	switch c {
	case Connect:
		return "connect"
	case Disconnect:
		return "disconnect"
	case Start:
		return "start"
	case Hold:
		return "hold"
	case Resume:
		return "resume"
	case Abort:
		return "abort"
	case EStop:
		return "estop"
	default:
		return "unknown"
	}
}
