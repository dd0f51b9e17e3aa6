// Package codec implements the type directed binary encoding used inside
// Memorized frames.
//
// All integers are fixed width big-endian. Strings and byte slices carry an
// int32 length prefix followed by the raw bytes, without terminator.
//
// Buffer is the growable write side: it starts at 256 bytes and doubles its
// capacity whenever a write does not fit. Reader is the bounds checked read
// side: short data yields ErrShortBuffer, never a panic.
//
// Registry dispatches on the runtime type of a value when encoding and on the
// requested type when decoding. Encode treats a missing codec as a logged no-op
// so that one misconfigured type cannot crash an event loop; TryEncode reports
// the same condition as ErrNoCodec. Both registries must be fully populated
// before serving. Server and client constructors call Seal, after which every
// Register call fails with ErrRegistrySealed.
//
// KeyRegistry maps key types to the small integers that address a repository
// on the wire. The defaults mirror the builtin repositories: string=0,
// int8=1, int32=2.
package codec
