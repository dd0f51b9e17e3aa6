// Package common provides the protocol constants, configuration structures and
// logging setup shared by the Memorized client and server.
//
// The package focuses on:
//   - Command ids of every frame crossing the wire, in both directions
//   - Update subtypes understood by the builtin containers
//   - Configuration structures for client and server components
//   - A zap backed implementation of Dragonboat's logger facade
//
// Key Components:
//
//   - ClientPacket / ServerPacket: Signed byte command ids. The values are
//     assigned explicitly and form part of the wire format. ParseClientPacket and
//     ParseServerPacket are total: unknown bytes return false instead of a value.
//
//   - CounterUpdate / MapUpdate / ContainerKind: Subtypes carried inside UPDATE
//     and CREATE payloads.
//
//   - ServerConfig / ClientConfig: Plain structs passed by value. Validate fills
//     optional fields with defaults and rejects missing required ones.
//
//   - Logger: Every package obtains its logger through logger.GetLogger. InitLoggers
//     installs the zap backed factory and sets the level of all Memorized loggers.
package common
