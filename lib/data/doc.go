// Package data holds the server side data model of Memorized.
//
// A request addressing data carries a repository id and a key. The
// Coordinator resolves the id to a Repository, the repository decodes the
// key with the codec of its key type and looks up the Container stored
// under that key. The container then interprets the rest of the payload.
//
//	repositoryId:i32 | key | container specific payload
//	       |            |            |
//	  Coordinator  Repository    Container
//
// Default repositories (NewDefaultCoordinator):
//
//	id 0: string keys
//	id 1: int8 keys
//	id 2: int32 keys
//
// Containers are created either before the server starts (Put) or by
// clients through CREATE, which uses the Factory registered for the
// requested common.ContainerKind. Implementations live in the counter and
// hashmap subpackages.
//
// Thread Safety:
//
//	Repositories are backed by xsync.MapOf and shared by all event loops.
//	The coordinator itself is immutable once sealed.
package data
