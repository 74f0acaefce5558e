package server

import (
	"bufio"
	"encoding/json"
	"fmt"

	"vetbuddy/app/service/pets"

	"github.com/gofiber/fiber/v2"
)

type messageRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleSendMessage(c *fiber.Ctx) error {
	var req messageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	resp, err := s.assistantSvc.SendMessage(c.UserContext(), req.Text)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(s.assistantSvc.Snapshot())
	}
	if resp == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}

	return c.JSON(resp)
}

func (s *Server) handleSpeak(c *fiber.Ctx) error {
	var req messageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.assistantSvc.Speak(c.UserContext(), req.Text); err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "narration failed")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleStopSpeaking(c *fiber.Ctx) error {
	s.assistantSvc.StopSpeaking()
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleStartListening(c *fiber.Ctx) error {
	s.assistantSvc.StartListening()
	return c.JSON(s.assistantSvc.Snapshot())
}

func (s *Server) handleStopListening(c *fiber.Ctx) error {
	s.assistantSvc.StopListening()
	return c.JSON(s.assistantSvc.Snapshot())
}

func (s *Server) handleClearConversation(c *fiber.Ctx) error {
	s.assistantSvc.ClearConversation()
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(s.assistantSvc.Snapshot())
}

// handleEvents streams session state updates as server-sent events.
func (s *Server) handleEvents(c *fiber.Ctx) error {
	updates, unsub := s.assistantSvc.Subscribe()

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer unsub()

		for state := range updates {
			data, err := json.Marshal(state)
			if err != nil {
				continue
			}

			if _, err = fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}

			if err = w.Flush(); err != nil {
				return
			}
		}
	})

	return nil
}

func (s *Server) handleNavigation(c *fiber.Ctx) error {
	screen, params := s.nav.last()

	return c.JSON(fiber.Map{
		"screen": screen,
		"params": params,
	})
}

func (s *Server) handleDiag(c *fiber.Ctx) error {
	return c.JSON(s.diagSvc.Entries())
}

func (s *Server) handleListPets(c *fiber.Ctx) error {
	petList, err := s.petsSvc.List()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list pets")
	}

	if petList == nil {
		petList = []pets.Pet{}
	}

	return c.JSON(petList)
}

func (s *Server) handleAddPet(c *fiber.Ctx) error {
	var req pets.AddPetRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	pet, err := s.petsSvc.Add(req)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(pet)
}

func (s *Server) handleGetPet(c *fiber.Ctx) error {
	pet, err := s.petsSvc.Get(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load pet")
	}
	if pet == nil {
		return fiber.NewError(fiber.StatusNotFound, "pet not found")
	}

	return c.JSON(pet)
}

func (s *Server) handleDeletePet(c *fiber.Ctx) error {
	deleted, err := s.petsSvc.Delete(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to delete pet")
	}
	if !deleted {
		return fiber.NewError(fiber.StatusNotFound, "pet not found")
	}

	return c.SendStatus(fiber.StatusNoContent)
}
