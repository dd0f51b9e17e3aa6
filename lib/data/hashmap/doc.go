// Package hashmap implements the map container.
//
// UPDATE payload: subtype:i8 | key [| value]
//
//	SET(key, value)   RESULT (empty)
//	REMOVE(key)       RESULT (empty), also when the key was absent
//
// SHOW payload: key. Replies RESULT | value, or NOT_FOUND when absent.
//
// Keys and values use the wire format of the codec registered for their Go
// type, so a Map[string, int64] expects string keys and i64 values.
package hashmap
