/*
Package dsl provides a Go DSL (Domain Specific Language) for programmatically constructing sinew graphs
and state machines.

It allows developers to define graphs and machines using a type-safe, fluent builder pattern
instead of relying on external YAML files. This is particularly useful for procedural content,
unit testing, and leveraging IDE autocompletion/type-checking.

Example usage:

	b := dsl.New("walk")
	b.Input("speed", domain.TypeFloat, domain.Float(1))
	b.Add("clip", clip).Kind("clip")
	b.Add("speed", nodes.Speed{}).
		In("pose", "clip.time").
		In("factor", "@in.data.speed")
	b.PoseOutput("speed.time")
	walk, err := b.Build()

	mb := dsl.NewMachine("locomotion").
		State("idle", idle).
		State("walk", walk)
	mb.Transition("idle", "walk").On("move").Blend(crossfade, 0.3)
	mb.Transition("walk", "idle").On("stop")
	m, err := mb.Build()
*/
package dsl
