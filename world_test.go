package entities

import (
	"testing"
)

func newTestWorld(t *testing.T) *World {
	t.Helper()
	registry := newTestRegistry(t)
	world := Factory.NewWorld(registry)

	if _, err := RegisterStorage[Mover](world, "Mover"); err != nil {
		t.Fatalf("Failed to bind Mover storage: %v", err)
	}
	if _, err := RegisterStorage[Obstacle](world, "Obstacle"); err != nil {
		t.Fatalf("Failed to bind Obstacle storage: %v", err)
	}
	if _, err := RegisterStorage[Ghost](world, "Ghost"); err != nil {
		t.Fatalf("Failed to bind Ghost storage: %v", err)
	}
	if _, err := RegisterStorage[Soldier](world, "Soldier"); err != nil {
		t.Fatalf("Failed to bind Soldier storage: %v", err)
	}
	return world
}

func TestWorldCreateAndGet(t *testing.T) {
	world := newTestWorld(t)

	id, err := Create(world, Mover{
		EntityBase: EntityBase{Name: "scout", Position: Vec2{X: 3, Y: 4}},
		Vel:        Velocity{X: 1},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	mover, err := Get[Mover](world, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if mover.Name != "scout" {
		t.Errorf("Name = %q, want scout", mover.Name)
	}
	if mover.Position.X != 3 || mover.Position.Y != 4 {
		t.Errorf("Base position = %+v, want {3 4}", mover.Position)
	}
	if mover.ID != id {
		t.Errorf("Base identifier = %+v, want %+v", mover.ID, id)
	}

	// A typed lookup with the wrong concrete type is rejected.
	if _, err := Get[Obstacle](world, id); err == nil {
		t.Error("Get[Obstacle] on a Mover identifier succeeded, want TypeMismatchError")
	} else if _, ok := err.(TypeMismatchError); !ok {
		t.Errorf("Get[Obstacle] error = %v, want TypeMismatchError", err)
	}
}

func TestWorldCreateUnboundType(t *testing.T) {
	registry := newTestRegistry(t)
	world := Factory.NewWorld(registry)

	if _, err := Create(world, Mover{}); err == nil {
		t.Error("Create without bound storage succeeded, want UnknownTypeError")
	} else if _, ok := err.(UnknownTypeError); !ok {
		t.Errorf("Create without bound storage error = %v, want UnknownTypeError", err)
	}
}

func TestWorldDestroyRouting(t *testing.T) {
	world := newTestWorld(t)

	moverID, err := Create(world, Mover{})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	obstacleID, err := Create(world, Obstacle{})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := world.Destroy(moverID); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if _, err := Get[Mover](world, moverID); err == nil {
		t.Error("Get after destroy succeeded, want StaleIdentifierError")
	}
	if err := world.Destroy(moverID); err == nil {
		t.Error("Second destroy succeeded, want StaleIdentifierError")
	} else if _, ok := err.(StaleIdentifierError); !ok {
		t.Errorf("Second destroy error = %v, want StaleIdentifierError", err)
	}

	// The obstacle in the other buffer is unaffected.
	if _, err := Get[Obstacle](world, obstacleID); err != nil {
		t.Errorf("Obstacle lookup after unrelated destroy failed: %v", err)
	}
	if world.EntityCount() != 1 {
		t.Errorf("EntityCount = %d, want 1", world.EntityCount())
	}

	if err := world.Destroy(Identifier{TypeID: 99, Slot: 0, Generation: 1}); err == nil {
		t.Error("Destroy with unrouted type tag succeeded, want NotFoundError")
	} else if _, ok := err.(NotFoundError); !ok {
		t.Errorf("Destroy with unrouted type tag error = %v, want NotFoundError", err)
	}
}

func TestWorldSealsOnFirstCreate(t *testing.T) {
	world := newTestWorld(t)

	if world.Registry().Sealed() {
		t.Fatal("Registry sealed before first create")
	}
	if _, err := Create(world, Ghost{}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !world.Registry().Sealed() {
		t.Fatal("Registry not sealed after first create")
	}

	if _, err := world.Registry().RegisterFragment("Late", 8, 8); err == nil {
		t.Error("Registration after first create succeeded, want SealedRegistryError")
	}
	if _, err := RegisterStorage[Mover](world, "Mover"); err == nil {
		t.Error("Storage binding after seal succeeded, want error")
	}
}

func TestWorldStorageBinding(t *testing.T) {
	registry := newTestRegistry(t)
	world := Factory.NewWorld(registry)

	if _, err := RegisterStorage[Mover](world, "Wizard"); err == nil {
		t.Error("Binding unregistered type succeeded, want UnknownTypeError")
	} else if _, ok := err.(UnknownTypeError); !ok {
		t.Errorf("Binding unregistered type error = %v, want UnknownTypeError", err)
	}

	// Size mismatch between the Go type and the registered layout.
	if _, err := RegisterStorage[Ghost](world, "Mover"); err == nil {
		t.Error("Binding mismatched type succeeded, want InvalidLayoutError")
	} else if _, ok := err.(InvalidLayoutError); !ok {
		t.Errorf("Binding mismatched type error = %v, want InvalidLayoutError", err)
	}

	if _, err := RegisterStorage[Mover](world, "Mover"); err != nil {
		t.Fatalf("Binding Mover failed: %v", err)
	}
	if _, err := RegisterStorage[Mover](world, "Mover"); err == nil {
		t.Error("Double binding succeeded, want DuplicateTypeError")
	} else if _, ok := err.(DuplicateTypeError); !ok {
		t.Errorf("Double binding error = %v, want DuplicateTypeError", err)
	}
}

func TestWorldEachEntity(t *testing.T) {
	world := newTestWorld(t)

	for i := 0; i < 3; i++ {
		if _, err := Create(world, Mover{Pos: Position{X: float64(i)}}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	if _, err := Create(world, Obstacle{}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	seq, err := EachEntity[Mover](world)
	if err != nil {
		t.Fatalf("EachEntity failed: %v", err)
	}
	count := 0
	for _, m := range seq {
		if m.Pos.X != float64(count) {
			t.Errorf("Mover %d position = %v, want %v", count, m.Pos.X, float64(count))
		}
		count++
	}
	if count != 3 {
		t.Errorf("EachEntity yielded %d movers, want 3", count)
	}
}

func TestWorldLockDefersOperations(t *testing.T) {
	world := newTestWorld(t)

	victim, err := Create(world, Mover{})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	world.Lock()

	if _, err := Create(world, Mover{}); err == nil {
		t.Error("Create while locked succeeded, want LockedWorldError")
	} else if _, ok := err.(LockedWorldError); !ok {
		t.Errorf("Create while locked error = %v, want LockedWorldError", err)
	}
	if err := world.Destroy(victim); err == nil {
		t.Error("Destroy while locked succeeded, want LockedWorldError")
	}

	if err := EnqueueCreate(world, Mover{Pos: Position{X: 7}}); err != nil {
		t.Fatalf("EnqueueCreate failed: %v", err)
	}
	if err := world.EnqueueDestroy(victim); err != nil {
		t.Fatalf("EnqueueDestroy failed: %v", err)
	}
	// Duplicate destroys are coalesced.
	if err := world.EnqueueDestroy(victim); err != nil {
		t.Fatalf("EnqueueDestroy failed: %v", err)
	}

	// Nothing applied while the lock is held.
	if world.EntityCount() != 1 {
		t.Errorf("EntityCount while locked = %d, want 1", world.EntityCount())
	}

	if err := world.Unlock(); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}

	if world.EntityCount() != 1 {
		t.Errorf("EntityCount after flush = %d, want 1", world.EntityCount())
	}
	if _, err := Get[Mover](world, victim); err == nil {
		t.Error("Victim survived the queued destroy")
	}
}

func TestWorldNestedLocks(t *testing.T) {
	world := newTestWorld(t)

	world.Lock()
	world.Lock()
	if err := world.EnqueueDestroy(Identifier{}); err != nil {
		t.Fatalf("EnqueueDestroy failed: %v", err)
	}

	if err := world.Unlock(); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
	if !world.Locked() {
		t.Fatal("World unlocked while an outer lock is held")
	}
	if err := world.Unlock(); err == nil {
		t.Error("Flushing a queued destroy of the zero identifier succeeded, want NotFoundError")
	}
	if world.Locked() {
		t.Fatal("World still locked after final Unlock")
	}
}
