package server

import (
	"context"
	"sync"
	"time"

	"vetbuddy/app/config"
	"vetbuddy/app/service/assistant"
	"vetbuddy/app/service/diag"
	"vetbuddy/app/service/pets"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/do"
)

const shutdownTimeout = 5 * time.Second

// Server is the HTTP surface over the assistant session. It also acts
// as the session's navigation surface: NAVIGATE/ADD_PET actions are
// recorded and exposed for the attached UI to follow.
type Server struct {
	cfg          *config.Config
	assistantSvc *assistant.Service
	petsSvc      *pets.Service
	diagSvc      *diag.Service

	app *fiber.App
	nav *navigator
}

func New(di *do.Injector) (*Server, error) {
	diagSvc := do.MustInvoke[*diag.Service](di)

	s := &Server{
		cfg:          do.MustInvoke[*config.Config](di),
		assistantSvc: do.MustInvoke[*assistant.Service](di),
		petsSvc:      do.MustInvoke[*pets.Service](di),
		diagSvc:      diagSvc,
		app: fiber.New(fiber.Config{
			DisableStartupMessage: true,
		}),
		nav: &navigator{diagSvc: diagSvc},
	}

	s.assistantSvc.RegisterNavigator(s.nav)
	s.routes()

	return s, nil
}

func (s *Server) routes() {
	api := s.app.Group("/api")

	api.Post("/assistant/message", s.handleSendMessage)
	api.Post("/assistant/speak", s.handleSpeak)
	api.Post("/assistant/stop", s.handleStopSpeaking)
	api.Post("/assistant/listen/start", s.handleStartListening)
	api.Post("/assistant/listen/stop", s.handleStopListening)
	api.Delete("/assistant/conversation", s.handleClearConversation)
	api.Get("/assistant/state", s.handleState)
	api.Get("/assistant/events", s.handleEvents)

	api.Get("/navigation", s.handleNavigation)
	api.Get("/diag", s.handleDiag)

	api.Get("/pets", s.handleListPets)
	api.Post("/pets", s.handleAddPet)
	api.Get("/pets/:id", s.handleGetPet)
	api.Delete("/pets/:id", s.handleDeletePet)
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		errCh <- s.app.Listen(s.cfg.Server.Addr)
	}()

	select {
	case <-ctx.Done():
		return s.app.ShutdownWithTimeout(shutdownTimeout)
	case err := <-errCh:
		return err
	}
}

// navigator records the most recent navigation request so UI clients
// can poll and follow it.
type navigator struct {
	diagSvc *diag.Service

	mu         sync.RWMutex
	lastScreen string
	lastParams map[string]any
}

func (n *navigator) Navigate(screen string, params map[string]any) {
	n.mu.Lock()
	n.lastScreen = screen
	n.lastParams = params
	n.mu.Unlock()

	n.diagSvc.Info("server", "navigation requested", map[string]any{"screen": screen})
}

func (n *navigator) last() (string, map[string]any) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return n.lastScreen, n.lastParams
}
