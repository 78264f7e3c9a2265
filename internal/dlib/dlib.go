// Package dlib defines the narrow interface the core consumes to resolve
// FFI-function metadata from dynamic libraries, plus the handle cache spec
// §5 describes: libraries are opened on first use, cached by name, and
// closed (via CloseDispatcher, then Close) at core teardown. The actual
// platform-specific loader is an external collaborator; this package only
// defines the boundary and the caching policy around it.
package dlib

import "vmforge/internal/cpuabi"

// FuncMeta is what a dynamic-library loader hands back for one exported
// function.
type FuncMeta struct {
	Name       string
	ParamTypes []cpuabi.MasterType
	ReturnType cpuabi.MasterType
	IsVoid     bool
}

// Library is an opened dynamic library handle.
type Library interface {
	// ResolveFunction looks up exported function metadata by name.
	ResolveFunction(name string) (FuncMeta, bool)
	// CloseDispatcher runs the library's own teardown hook before Close
	// unloads it (spec §5).
	CloseDispatcher() error
	Close() error
}

// Loader opens a dynamic library by path.
type Loader interface {
	Open(path string) (Library, error)
}

// Cache opens each named library at most once, per spec §5.
type Cache struct {
	loader  Loader
	byName  map[string]Library
	pathOf  map[string]string
}

func NewCache(loader Loader) *Cache {
	return &Cache{loader: loader, byName: map[string]Library{}, pathOf: map[string]string{}}
}

// Get returns the cached handle for name, opening path if this is the first
// request for that library.
func (c *Cache) Get(name, path string) (Library, error) {
	if lib, ok := c.byName[name]; ok {
		return lib, nil
	}
	lib, err := c.loader.Open(path)
	if err != nil {
		return nil, err
	}
	c.byName[name] = lib
	c.pathOf[name] = path
	return lib, nil
}

// CloseAll runs CloseDispatcher then Close on every cached handle, in an
// unspecified order, and empties the cache. It is called once at core
// teardown. The first error encountered is returned; teardown still
// attempts every remaining handle.
func (c *Cache) CloseAll() error {
	var firstErr error
	for name, lib := range c.byName {
		if err := lib.CloseDispatcher(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := lib.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(c.byName, name)
		delete(c.pathOf, name)
	}
	return firstErr
}
