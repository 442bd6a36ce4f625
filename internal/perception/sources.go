package perception

import (
	"context"

	"attentiond/internal/signal"
)

// #region camera-source

// CameraSource exposes the perception service's gaze estimate as a
// signal source. The camera handle is acquired once and held for the
// engine's lifetime to avoid device contention with other processes.
type CameraSource struct {
	client *Client
}

// NewCameraSource wraps client as the camera signal source.
func NewCameraSource(client *Client) *CameraSource {
	return &CameraSource{client: client}
}

func (s *CameraSource) Kind() signal.Kind { return signal.KindCamera }

func (s *CameraSource) Acquire() error {
	return s.client.AcquireCamera(context.Background())
}

func (s *CameraSource) Release() error {
	return s.client.ReleaseCamera(context.Background())
}

func (s *CameraSource) Sample(ctx context.Context) (float64, error) {
	res, err := s.client.Gaze(ctx)
	if err != nil {
		return 0, err
	}
	return res.Score, nil
}

// #endregion camera-source

// #region microphone-source

// MicrophoneSource exposes the perception service's voice activity
// estimate as a signal source.
type MicrophoneSource struct {
	client *Client
}

// NewMicrophoneSource wraps client as the microphone signal source.
func NewMicrophoneSource(client *Client) *MicrophoneSource {
	return &MicrophoneSource{client: client}
}

func (s *MicrophoneSource) Kind() signal.Kind { return signal.KindMicrophone }
func (s *MicrophoneSource) Acquire() error    { return nil }
func (s *MicrophoneSource) Release() error    { return nil }

func (s *MicrophoneSource) Sample(ctx context.Context) (float64, error) {
	res, err := s.client.Voice(ctx)
	if err != nil {
		return 0, err
	}
	return res.Score, nil
}

// #endregion microphone-source
