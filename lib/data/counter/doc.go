// Package counter implements the integer counter container.
//
// UPDATE payload: subtype:i8 followed by one i32 argument, except RESET
// which has none.
//
//	SET(v)                 value = v                  RESULT (empty)
//	RESET                  value = 0                  RESULT (empty)
//	GET_AND_SET(v)         old = value; value = v     RESULT | old:i32
//	INCREMENT_AND_GET(d)   value += d                 RESULT | new:i32
//	GET_AND_INCREMENT(d)   value += d                 RESULT | old:i32
//	DECREMENT_AND_GET(d)   value -= d                 RESULT | new:i32
//	GET_AND_DECREMENT(d)   value -= d                 RESULT | old:i32
//
// SHOW has no payload and replies RESULT | value:i32.
//
// Every operation is a single atomic instruction, so concurrent sessions on
// different event loops never lose updates.
package counter
