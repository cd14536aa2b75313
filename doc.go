/*
Package sinew is a pull-based evaluation engine for animation graphs and the
state machines that switch between them.

A graph is a set of nodes connected pin to pin. Data pins carry plain values
(floats, vectors, event queues); time pins carry a pose stream that is pulled
backwards from the graph output, with a time update flowing the other way.
Nothing is pushed: asking an instance for its pose evaluates exactly the nodes
that pose depends on, once per frame, and caches the results.

# Concept

Assets are YAML documents served by an AssetLoader (a directory, memory or
Redis). The Engine compiles them into immutable graphs and state machines,
resolving nested graphs and machines by name. An Instance holds the mutable
side: per-node state, caches and the frame counter. Many instances can share
one compiled graph, and a Pool steps them in parallel.

# Usage

	eng, err := sinew.New("./assets")
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	in, err := eng.NewInstance(ctx, "character")
	if err != nil {
		log.Fatal(err)
	}

	in.SetInput("events", domain.EventQueue{domain.Named("jump")})
	pose, err := in.Step(ctx, domain.Delta(1.0/60))

Graphs can also be built in Go with package dsl, bypassing documents.
*/
package sinew
