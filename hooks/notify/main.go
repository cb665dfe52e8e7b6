// Command notify is a sample morphcloud hook that shows a desktop
// notification when the particle shape changes. Install it by building into
// ~/.morphcloud/hooks/notify/ next to its hook.json.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"
)

// Request mirrors the payload written by morphcloud.
type Request struct {
	Event     string          `json:"event"`
	Gesture   string          `json:"gesture"`
	Shape     string          `json:"shape"`
	Blend     float64         `json:"blend"`
	Timestamp time.Time       `json:"timestamp"`
	Config    json.RawMessage `json:"config,omitempty"`
}

// Response is read back by morphcloud.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type settings struct {
	Title string `json:"title"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}
	if req.Event != "gesture" {
		writeResponse(nil)
		return
	}

	s := settings{Title: "morphcloud"}
	if len(req.Config) > 0 {
		json.Unmarshal(req.Config, &s)
	}

	writeResponse(notify(s.Title, message(req)))
}

func message(req Request) string {
	if req.Gesture == "open" {
		return "Open palm: particles gather into a heart"
	}
	return "Fist: back to " + req.Shape
}

// notify shows a notification with the platform's stock tool.
func notify(title, body string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", body, title)
		cmd = exec.Command("osascript", "-e", script)
	case "linux":
		cmd = exec.Command("notify-send", title, body)
	default:
		return fmt.Errorf("notifications not supported on %s", runtime.GOOS)
	}
	return cmd.Run()
}

func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
