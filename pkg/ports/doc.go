/*
Package ports defines the driven ports (interfaces) of the quizflow engine.

These interfaces decouple the traversal core from external implementations,
allowing the engine to work with various graph sources, run stores and
delivery targets.

# Key Interfaces

  - GraphLoader: loads quiz graphs by id (memory, file, HTTP upload).
  - RunStore: persists and loads RunState snapshots.
  - DistributedLocker: serializes concurrent submissions to one run.
  - Dispatcher / Deliverer: hand finished runs to downstream systems.
  - EventSink: receives runtime-to-host events (size changes, completion).
*/
package ports
