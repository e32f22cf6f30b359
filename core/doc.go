// Package core contains the shared data model of DiscoveryMesh: the message
// envelope exchanged between agents, priority and message-type enumerations,
// the product shape flowing through discovery responses and the typed error
// taxonomy used across the bus, the workflow engine and the orchestrator.
//
// The package is dependency-light on purpose. Higher layers (a2a, bus,
// workflow, orchestrator) import core; core imports nothing from them.
package core
