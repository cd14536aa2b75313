package sinew_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/sinew"
	"github.com/aretw0/sinew/pkg/adapters/memory"
	"github.com/aretw0/sinew/pkg/domain"
)

// ExampleNew_memory demonstrates how to use the Engine with in-memory assets.
// This is useful for testing, embedded scenarios, or when you don't want to rely on the file system.
func ExampleNew_memory() {
	// 1. Define the assets as YAML documents.
	store := memory.NewStore(map[string]string{
		"walk": `
kind: graph
name: walk
inputs:
  - {name: speed, type: float, default: 2}
nodes:
  - id: clip
    kind: clip
    params:
      duration: 10
      bones:
        root: {to: [10, 0, 0]}
  - id: fast
    kind: speed
    inputs:
      pose: clip.time
      factor: "@in.data.speed"
pose: fast.time
`,
	})

	// 2. Initialize the engine with the custom loader.
	// Note: We leave dir empty ("") because we are providing a loader.
	engine, err := sinew.New("", sinew.WithLoader(store))
	if err != nil {
		log.Fatal(err)
	}

	// 3. Create an instance and step one frame.
	ctx := context.Background()
	in, err := engine.NewInstance(ctx, "walk")
	if err != nil {
		log.Fatal(err)
	}
	pose, err := in.Step(ctx, domain.Delta(0.5))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("t=%.2f root.x=%.2f\n", pose.Timestamp, pose.Bones["root"].Translation.X)
	// Output: t=1.00 root.x=1.00
}

// ExampleEngine_Mermaid renders a state machine asset.
func ExampleEngine_Mermaid() {
	store := memory.NewStore(map[string]string{
		"still": "kind: graph\nname: still\nnodes: [{id: clip, kind: clip}]\npose: clip.time\n",
		"switch": `
kind: machine
name: switch
start: off
states:
  - {id: off, graph: still}
  - {id: on, graph: still}
transitions:
  - {from: off, to: on, event: toggle}
  - {from: on, to: off, event: toggle}
`,
	})
	engine, err := sinew.New("", sinew.WithLoader(store))
	if err != nil {
		log.Fatal(err)
	}

	out, err := engine.Mermaid(context.Background(), "switch")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Print(out)
	// Output:
	// stateDiagram-v2
	//     [*] --> off
	//     state "off" as off
	//     state "on" as on
	//     off --> on : toggle
	//     on --> off : toggle
}
