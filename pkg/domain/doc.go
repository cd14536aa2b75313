/*
Package domain contains the core vocabulary of the sinew engine.

It defines pin addressing, value types, time updates, events and errors shared by the
graph model, the evaluation runtime and the state machine layer. This package is kept
pure and free of external dependencies.

# Key Entities

  - SourcePin / TargetPin: the producing and consuming ends of an edge.
  - PinType / TimeSpec: the declared type of data pins and the space of time pins.
  - Value: payloads carried by data pins (Float, Vec3, Quat, Pose, EventQueue...).
  - TimeUpdate: Delta or Absolute instructions for pose producers.
  - LifecycleHooks: callbacks used for observability.
*/
package domain
