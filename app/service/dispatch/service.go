package dispatch

import (
	"sync"

	"vetbuddy/app/service/diag"
	"vetbuddy/app/service/responder"

	"github.com/samber/do"
)

const component = "dispatch"

// Navigator is the optional navigation capability. It may be bound at
// runtime by whatever UI surface is attached; dispatching navigation
// actions without one degrades to a warning.
type Navigator interface {
	Navigate(screen string, params map[string]any)
}

// Service maps structured actions to side effects. Actions are
// processed in order and each one fails independently.
type Service struct {
	diagSvc *diag.Service

	mu  sync.RWMutex
	nav Navigator
}

func New(di *do.Injector) (*Service, error) {
	return NewWithDiag(do.MustInvoke[*diag.Service](di)), nil
}

func NewWithDiag(diagSvc *diag.Service) *Service {
	return &Service{
		diagSvc: diagSvc,
	}
}

// RegisterNavigator binds (or unbinds, with nil) the navigation
// surface.
func (s *Service) RegisterNavigator(nav Navigator) {
	s.mu.Lock()
	s.nav = nav
	s.mu.Unlock()
}

func (s *Service) navigator() Navigator {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.nav
}

// Dispatch runs every action in order. A panic while handling one
// action is recorded and does not stop the rest.
func (s *Service) Dispatch(actions []responder.Action) {
	for _, action := range actions {
		s.dispatchOne(action)
	}
}

func (s *Service) dispatchOne(action responder.Action) {
	defer func() {
		if r := recover(); r != nil {
			s.diagSvc.Error(component, "action handler panicked", map[string]any{
				"type":  action.Type,
				"panic": r,
			})
		}
	}()

	switch action.Type {
	case responder.ActionNavigate:
		screen, _ := action.Payload["screen"].(string)
		if screen == "" {
			s.diagSvc.Warn(component, "navigate action missing screen", nil)
			return
		}

		nav := s.navigator()
		if nav == nil {
			s.diagSvc.Warn(component, "navigation not available", map[string]any{"screen": screen})
			return
		}

		nav.Navigate(screen, action.Payload)

	case responder.ActionAddPet:
		nav := s.navigator()
		if nav == nil {
			s.diagSvc.Warn(component, "navigation not available for add pet", nil)
			return
		}

		nav.Navigate("AddPet", action.Payload)

	case responder.ActionScheduleAppointment:
		s.diagSvc.Info(component, "schedule appointment action", action.Payload)

	case responder.ActionShowPetInfo:
		s.diagSvc.Info(component, "show pet info action", action.Payload)

	case responder.ActionShowReminder:
		s.diagSvc.Info(component, "show reminder action", action.Payload)

	default:
		s.diagSvc.Warn(component, "unknown action type", map[string]any{"type": action.Type})
	}
}
