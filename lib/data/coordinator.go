package data

import (
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/YvanMazy/Memorized/rpc/codec"
	"github.com/YvanMazy/Memorized/rpc/common"
)

var (
	ErrDuplicateRepository = errors.New("repository already registered")
	ErrDuplicateFactory    = errors.New("container factory already registered")
	ErrCoordinatorSealed   = errors.New("coordinator is sealed")
	ErrUnknownRepository   = errors.New("unknown repository")
	ErrUnknownKind         = errors.New("unknown container kind")
)

// Coordinator owns the repositories of a server and the container factories
// used by CREATE. It is filled before the server starts and sealed by the
// server constructor; lookups afterwards need no locking.
type Coordinator struct {
	byID      map[int32]Repository
	byType    map[reflect.Type]Repository
	factories map[common.ContainerKind]Factory
	sealed    atomic.Bool
}

// NewCoordinator creates a coordinator without repositories
func NewCoordinator() *Coordinator {
	return &Coordinator{
		byID:      make(map[int32]Repository),
		byType:    make(map[reflect.Type]Repository),
		factories: make(map[common.ContainerKind]Factory),
	}
}

// NewDefaultCoordinator creates a coordinator holding the string, int8 and
// int32 repositories matching codec.NewKeyRegistry
func NewDefaultCoordinator(codecs *codec.Registry) *Coordinator {
	c := NewCoordinator()
	_ = c.Register(NewStringRepository(codecs))
	_ = c.Register(NewByteRepository(codecs))
	_ = c.Register(NewIntRepository(codecs))
	return c
}

// Register adds a repository. Its id and key type must both be unused.
func (c *Coordinator) Register(repo Repository) error {
	if c.sealed.Load() {
		return ErrCoordinatorSealed
	}
	if _, ok := c.byID[repo.Identifier()]; ok {
		return fmt.Errorf("%w: id %d", ErrDuplicateRepository, repo.Identifier())
	}
	if _, ok := c.byType[repo.KeyType()]; ok {
		return fmt.Errorf("%w: key type %s", ErrDuplicateRepository, repo.KeyType())
	}
	c.byID[repo.Identifier()] = repo
	c.byType[repo.KeyType()] = repo
	return nil
}

// RegisterFactory sets the factory used to create containers of kind
func (c *Coordinator) RegisterFactory(kind common.ContainerKind, f Factory) error {
	if c.sealed.Load() {
		return ErrCoordinatorSealed
	}
	if _, ok := c.factories[kind]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateFactory, kind)
	}
	c.factories[kind] = f
	return nil
}

// Repository returns the repository with the given id
func (c *Coordinator) Repository(id int32) (Repository, bool) {
	r, ok := c.byID[id]
	return r, ok
}

// RepositoryFor returns the repository whose keys are of type t
func (c *Coordinator) RepositoryFor(t reflect.Type) (Repository, bool) {
	r, ok := c.byType[t]
	return r, ok
}

// Factory returns the factory registered for kind
func (c *Coordinator) Factory(kind common.ContainerKind) (Factory, bool) {
	f, ok := c.factories[kind]
	return f, ok
}

// Create builds a container of kind and stores it under key unless the key
// is already taken. created is false if a container already existed.
func (c *Coordinator) Create(repo Repository, key any, kind common.ContainerKind) (created bool, err error) {
	f, ok := c.factories[kind]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return repo.RegisterIfAbsent(key, f()), nil
}

// Put stores a container under key in the repository of K. Used to preload
// containers before the server starts.
func Put[K comparable](c *Coordinator, key K, container Container) error {
	repo, ok := c.byType[reflect.TypeFor[K]()]
	if !ok {
		return fmt.Errorf("%w for key type %s", ErrUnknownRepository, reflect.TypeFor[K]())
	}
	if !repo.RegisterIfAbsent(key, container) {
		return fmt.Errorf("container %v already exists", key)
	}
	return nil
}

// Resolve reads repositoryId:i32 followed by a key and returns the
// repository and the decoded key. An unknown id returns ErrUnknownRepository
// and leaves the key unread.
func (c *Coordinator) Resolve(rd *codec.Reader) (Repository, any, error) {
	id, err := rd.Int32()
	if err != nil {
		return nil, nil, err
	}
	repo, ok := c.byID[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnknownRepository, id)
	}
	key, err := repo.ReadKey(rd)
	if err != nil {
		return nil, nil, fmt.Errorf("repository %d: %w", id, err)
	}
	return repo, key, nil
}

// Seal makes the coordinator immutable. Sealing twice is a no-op.
func (c *Coordinator) Seal() {
	c.sealed.Store(true)
}

func (c *Coordinator) Sealed() bool {
	return c.sealed.Load()
}

// Repositories returns the registered repositories
func (c *Coordinator) Repositories() []Repository {
	repos := make([]Repository, 0, len(c.byID))
	for _, r := range c.byID {
		repos = append(repos, r)
	}
	return repos
}
