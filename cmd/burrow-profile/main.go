// Copyright 2024-2025 The Burrow Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// burrow-profile drives the memory system and the entity-component system
// through a configurable workload, optionally under a CPU or heap profile.
// It is a collaborator of the core, not part of it: all I/O lives here.
//
// Usage:
//
//	burrow-profile [-config workload.yaml]
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pkg/profile"
	"gopkg.in/yaml.v3"

	"github.com/burrow-engine/burrow/ecs"
	"github.com/burrow-engine/burrow/memory"
)

type workload struct {
	ArenaBytes uint64 `yaml:"arena_bytes"`
	Entities   int    `yaml:"entities"`
	Iterations int    `yaml:"iterations"`
	Profile    string `yaml:"profile"` // "cpu", "heap" or ""
}

func defaultWorkload() workload {
	return workload{
		ArenaBytes: 64 << 20,
		Entities:   10000,
		Iterations: 600,
	}
}

type position struct{ X, Y float32 }

func (position) ComponentID() ecs.ComponentID { return 1 }

type velocity struct{ X, Y float32 }

func (velocity) ComponentID() ecs.ComponentID { return 2 }

type health struct{ Points int32 }

func (health) ComponentID() ecs.ComponentID { return 3 }

func main() {
	configPath := flag.String("config", "", "workload description (YAML)")
	flag.Parse()

	w := defaultWorkload()
	if *configPath != "" {
		raw, err := os.ReadFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "burrow-profile: %v\n", err)
			os.Exit(1)
		}
		if err := yaml.Unmarshal(raw, &w); err != nil {
			fmt.Fprintf(os.Stderr, "burrow-profile: %s: %v\n", *configPath, err)
			os.Exit(1)
		}
	}

	switch w.Profile {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	case "heap":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	case "":
	default:
		fmt.Fprintf(os.Stderr, "burrow-profile: unknown profile mode %q\n", w.Profile)
		os.Exit(1)
	}

	run(w)
}

func run(w workload) {
	memory.Initialise(w.ArenaBytes)
	defer memory.Shutdown()

	m := ecs.NewEntityManager()
	defer m.Destroy()

	ecs.Register[health](ecs.Register[velocity](ecs.Register[position](m)))
	m.LockComponents()

	// A mixed population: movers, movers with health, and static props.
	for i := 0; i < w.Entities; i++ {
		b := ecs.SetComponentData(m.CreateEntity(), position{X: float32(i)})
		switch i % 3 {
		case 0:
			ecs.SetComponentData(b, velocity{X: 1, Y: 1})
		case 1:
			ecs.SetComponentData(ecs.SetComponentData(b, velocity{X: -1}), health{Points: 100})
		}
		b.Build()
	}
	m.RefreshManagerData()

	for tick := 0; tick < w.Iterations; tick++ {
		ecs.ForEach2(m, func(p *position, v *velocity) {
			p.X += v.X
			p.Y += v.Y
		})
		ecs.ForEach1(m, func(h *health) {
			if h.Points < 1000 {
				h.Points++
			}
		})
	}

	var sum float64
	ecs.ForEach1(m, func(p *position) { sum += float64(p.X) })

	fmt.Printf("entities=%d archetypes=%d iterations=%d checksum=%.0f used=%d\n",
		m.EntityCount(), m.ArchetypeCount(), w.Iterations, sum, memory.UsedMemory())
}
