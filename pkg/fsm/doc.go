/*
Package fsm executes low-level state machines on top of the graph runtime.

A Machine is a table of states, each wrapping a graph, and transitions between
them. Blended transitions are transition states: they run a blend graph whose
StatePoseNode inputs sample the source and target states, and end on an
end_transition event or after a fixed duration.

MachineNode is an ordinary node capability, so machines nest inside graphs and
graphs nest inside machine states. Each frame the node advances its local time,
drains the events input, evaluates the active state and feeds events emitted by
the state graph back into the same frame.
*/
package fsm
