package pets

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/elliotchance/pie/v2"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/do"
)

var dbFilePath = filepath.Join("data", "pets.json")

// Service keeps the pet registry, persisted as JSON lines so partial
// writes stay recoverable.
type Service struct {
	mu       sync.RWMutex
	validate *validator.Validate
}

func New(_ *do.Injector) (*Service, error) {
	_ = os.MkdirAll("data", 0755)

	file, err := os.OpenFile(dbFilePath, os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create pets file: %w", err)
	}
	defer file.Close()

	return &Service{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

func (s *Service) loadLocked() ([]Pet, error) {
	file, err := os.OpenFile(dbFilePath, os.O_RDONLY|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open pets file: %w", err)
	}
	defer file.Close()

	var result []Pet

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var pet Pet
		if err = json.Unmarshal([]byte(line), &pet); err != nil {
			return nil, fmt.Errorf("failed to parse JSON line: %w", err)
		}

		result = append(result, pet)
	}

	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading pets file: %w", err)
	}

	return result, nil
}

func (s *Service) saveLocked(petList []Pet) error {
	file, err := os.OpenFile(dbFilePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create/open pets file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	for _, pet := range petList {
		data, err := json.Marshal(pet)
		if err != nil {
			return fmt.Errorf("failed to marshal pet: %w", err)
		}
		if _, err = writer.WriteString(string(data) + "\n"); err != nil {
			return fmt.Errorf("failed to write pet: %w", err)
		}
	}

	if err = writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush writer: %w", err)
	}

	return nil
}

func (s *Service) Add(req AddPetRequest) (*Pet, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid pet: %w", err)
	}

	// The whole load-append-save cycle runs under the write lock so
	// concurrent adds cannot overwrite each other.
	s.mu.Lock()
	defer s.mu.Unlock()

	petList, err := s.loadLocked()
	if err != nil {
		return nil, err
	}

	pet := Pet{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Species:      strings.ToLower(req.Species),
		Breed:        strings.ToLower(req.Breed),
		Age:          req.Age,
		Weight:       req.Weight,
		Owner:        req.Owner,
		DietaryNeeds: req.DietaryNeeds,
		Allergies:    req.Allergies,
	}

	petList = append(petList, pet)

	if err = s.saveLocked(petList); err != nil {
		return nil, err
	}

	slog.Info("Added pet", "name", pet.Name, "species", pet.Species)

	return &pet, nil
}

func (s *Service) List() ([]Pet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loadLocked()
}

func (s *Service) Get(id string) (*Pet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	petList, err := s.loadLocked()
	if err != nil {
		return nil, err
	}

	idx := pie.FindFirstUsing(petList, func(pet Pet) bool {
		return pet.ID == id
	})
	if idx < 0 {
		return nil, nil
	}

	return &petList[idx], nil
}

func (s *Service) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	petList, err := s.loadLocked()
	if err != nil {
		return false, err
	}

	idx := pie.FindFirstUsing(petList, func(pet Pet) bool {
		return pet.ID == id
	})
	if idx < 0 {
		return false, nil
	}

	petList = append(petList[:idx], petList[idx+1:]...)

	if err = s.saveLocked(petList); err != nil {
		return false, err
	}

	slog.Info("Deleted pet", "id", id)

	return true, nil
}
