package pets_test

import (
	"fmt"
	"sync"
	"testing"

	"vetbuddy/app/service/pets"
)

func newTestService(t *testing.T) *pets.Service {
	t.Helper()
	t.Chdir(t.TempDir())

	svc, err := pets.New(nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	return svc
}

func TestAddAndGet(t *testing.T) {
	svc := newTestService(t)

	pet, err := svc.Add(pets.AddPetRequest{
		Name:    "Rex",
		Species: "Dog",
		Breed:   "Labrador",
		Age:     3,
		Weight:  28.5,
		Owner:   "alice",
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if pet.ID == "" {
		t.Fatalf("expected generated id")
	}
	if pet.Species != "dog" || pet.Breed != "labrador" {
		t.Fatalf("species/breed not normalized: %q/%q", pet.Species, pet.Breed)
	}

	loaded, err := svc.Get(pet.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if loaded == nil || loaded.Name != "Rex" {
		t.Fatalf("unexpected pet: %+v", loaded)
	}
}

func TestAddValidation(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.Add(pets.AddPetRequest{Species: "cat", Owner: "bob"}); err == nil {
		t.Fatalf("expected validation error for missing name")
	}
	if _, err := svc.Add(pets.AddPetRequest{Name: "Tom", Species: "cat", Owner: "bob", Age: -1}); err == nil {
		t.Fatalf("expected validation error for negative age")
	}

	petList, err := svc.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(petList) != 0 {
		t.Fatalf("invalid pets were persisted: %d", len(petList))
	}
}

func TestListReturnsAll(t *testing.T) {
	svc := newTestService(t)

	for _, name := range []string{"Rex", "Tom", "Kiwi"} {
		if _, err := svc.Add(pets.AddPetRequest{Name: name, Species: "cat", Owner: "alice"}); err != nil {
			t.Fatalf("Add %s failed: %v", name, err)
		}
	}

	petList, err := svc.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(petList) != 3 {
		t.Fatalf("expected 3 pets, got %d", len(petList))
	}
}

func TestConcurrentAddsKeepEveryPet(t *testing.T) {
	svc := newTestService(t)

	const adds = 25

	var wg sync.WaitGroup
	for i := 0; i < adds; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			_, err := svc.Add(pets.AddPetRequest{
				Name:    fmt.Sprintf("pet-%d", i),
				Species: "dog",
				Owner:   "alice",
			})
			if err != nil {
				t.Errorf("Add %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	petList, err := svc.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(petList) != adds {
		t.Fatalf("lost updates: added %d pets, stored %d", adds, len(petList))
	}
}

func TestGetUnknownReturnsNil(t *testing.T) {
	svc := newTestService(t)

	pet, err := svc.Get("missing")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if pet != nil {
		t.Fatalf("expected nil for unknown id, got %+v", pet)
	}
}

func TestDelete(t *testing.T) {
	svc := newTestService(t)

	pet, err := svc.Add(pets.AddPetRequest{Name: "Rex", Species: "dog", Owner: "alice"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	deleted, err := svc.Delete(pet.ID)
	if err != nil || !deleted {
		t.Fatalf("Delete failed: %v deleted=%v", err, deleted)
	}

	deleted, err = svc.Delete(pet.ID)
	if err != nil {
		t.Fatalf("second Delete errored: %v", err)
	}
	if deleted {
		t.Fatalf("delete must report false for missing pet")
	}

	petList, err := svc.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(petList) != 0 {
		t.Fatalf("expected empty registry, got %d", len(petList))
	}
}
