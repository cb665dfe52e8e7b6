package app

import (
	"log"
	"time"

	"github.com/ayusman/morphcloud/internal/capture"
	"github.com/ayusman/morphcloud/internal/detector"
	"github.com/ayusman/morphcloud/internal/gesture"
	"github.com/ayusman/morphcloud/internal/morph"
	"github.com/ayusman/morphcloud/internal/status"
)

// runPipeline is the detection loop. It reads a frame, runs motion
// detection to pick the frame rate, detects hands and posts the classified
// result to the controller's mailbox. Detection runs at the idle rate too,
// so a hand held still keeps refreshing the gesture timeout.
func (a *App) runPipeline(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	gate := capture.NewRateGate(a.cfg.Camera.IdleFPS, a.cfg.Camera.ActiveFPS, MotionCooldown)
	ticker := time.NewTicker(gate.Interval())
	defer ticker.Stop()

	var readFailing, detectFailing bool

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		if !a.IsEnabled() {
			continue
		}

		frame, err := a.camera.ReadFrame()
		if err != nil {
			if !readFailing {
				log.Printf("read frame: %v", err)
				a.board.Report(status.Status{Text: status.CameraUnavailable})
				readFailing = true
			}
			continue
		}
		readFailing = false

		now := time.Now()
		motion, _ := a.motion.Detect(frame)
		if fps, changed := gate.Update(motion, now); changed {
			a.camera.SetFPS(fps)
			ticker.Reset(gate.Interval())
			log.Printf("detection rate %d fps", fps)
		}

		if a.noDetector {
			frame.Close()
			continue
		}

		hands, err := a.detector.Detect(frame)
		frame.Close()
		if err != nil {
			if !detectFailing {
				log.Printf("detect hands: %v", err)
				a.board.Report(status.Status{Text: status.DetectorFailed})
				detectFailing = true
			}
			continue
		}
		detectFailing = false

		a.handleHands(hands, now)
	}
}

// handleHands classifies one detector frame, posts it to the controller and
// updates the status line. An ambiguous pose leaves the status alone.
// Frames that finish after detection was paused are dropped.
func (a *App) handleHands(hands []detector.HandLandmarks, at time.Time) gesture.Label {
	label := gesture.Classify(hands)

	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.enabled {
		return label
	}
	a.controller.Observe(morph.Observation{Label: label, At: at})

	switch label {
	case gesture.Unknown:
		a.board.Report(status.Status{Text: status.NoHand})
	case gesture.Open:
		a.board.Report(status.Status{Text: status.OpenPalm, Accent: true})
	case gesture.Fist:
		a.board.Report(status.Status{Text: status.FistClosed, Accent: true})
	}
	return label
}
