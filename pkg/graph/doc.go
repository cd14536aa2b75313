/*
Package graph defines the authoring model evaluated by the sinew runtime.

A Graph owns nodes and a map from every target pin to the single source pin
feeding it. Nodes expose their behavior through a Capability plus optional pass
interfaces (DataComputer, PoseComputer, ...) and pull their inputs exclusively
through a PassContext.

Structural problems are handled before evaluation: ValidateEdges reports illegal
edges, Prune removes them and CanAddEdge lets an editor offer "replace this edge"
when the only issue is an occupied target.
*/
package graph
