//go:build !darwin || !cgo

package coreaudio

import "github.com/777genius/standupbot/internal/multiout"

// Service is a placeholder on platforms without the CoreAudio HAL.
type Service struct{}

func New() *Service {
	return &Service{}
}

func (s *Service) ListDevices() ([]multiout.Device, error) {
	return nil, ErrUnsupported
}

func (s *Service) CreateAggregate(spec multiout.AggregateSpec) (multiout.DeviceID, error) {
	return 0, ErrUnsupported
}
