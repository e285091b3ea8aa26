/*
Package entities provides typed, in-memory entity storage with a fragment
query engine for real-time simulations.

Entities are grouped by concrete Go type in contiguous, slot-addressed
buffers. Each entity type declares which named fragments it contains and at
what byte offset, and queries match any registered type whose fragment set is
a superset of the requested one, without full archetype machinery and
without runtime type tags in the iteration hot path.

Core Concepts:

  - Identifier: a stable handle for one entity, combining a type tag, a
    storage slot, and a generation counter so stale handles are detectable.
  - Fragment: a named, fixed-layout field group that may appear in several
    entity types and can be queried by name.
  - Buffer: contiguous storage for all entities of one concrete type, with
    free-slot recycling.
  - View: a transient accessor exposing exactly a query's requested fragments
    of one entity.
  - Pool: free-list storage for optional per-entity data attached through
    generation-checked handles.

Basic Usage:

	// Describe fragments and entity types before the world is sealed
	registry := entities.Factory.NewRegistry()
	registry.RegisterFragment("Position", 16, 8)
	registry.RegisterFragment("Velocity", 16, 8)
	registry.RegisterType("Mover", unsafe.Sizeof(Mover{}), []entities.FragmentField{
		{Name: "Position", Offset: unsafe.Offsetof(Mover{}.Pos)},
		{Name: "Velocity", Offset: unsafe.Offsetof(Mover{}.Vel)},
	})

	// Bind concrete storage and create entities
	world := entities.Factory.NewWorld(registry)
	entities.RegisterStorage[Mover](world, "Mover")
	id, _ := entities.Create(world, Mover{Vel: Velocity{X: 1}})

	// Iterate every entity whose type carries the requested fragments
	seq, _ := world.EachEntityWith("Position", "Velocity")
	for _, view := range seq {
		pos, _ := entities.FragmentOf[Position](view, "Position")
		vel, _ := entities.FragmentOf[Velocity](view, "Velocity")
		pos.X += vel.X
	}

The package assumes one logical owner per World: a single simulation thread
drives creation, destruction, and iteration. Structural changes during a
traversal must go through the Enqueue variants, which are flushed when the
traversal completes.
*/
package entities
