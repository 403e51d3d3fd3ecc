// Package container is a small constructor-injection container used by main
// to wire config, logging, metrics, the sink and the processing engine.
package container

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// ErrNoProvider is returned when nothing provides a requested type.
var ErrNoProvider = errors.New("container: no provider")

var errorType = reflect.TypeOf((*error)(nil)).Elem()

type Container struct {
	mu        sync.Mutex
	prov      map[reflect.Type]provider
	instances map[reflect.Type]reflect.Value
}

type provider struct {
	fn        reflect.Value
	singleton bool
}

func New() *Container {
	return &Container{prov: make(map[reflect.Type]provider), instances: make(map[reflect.Type]reflect.Value)}
}

// Provide registers a constructor. Its parameters are resolved from the
// container and it must return (T) or (T, error).
func (c *Container) Provide(constructor any, singleton bool) error {
	v := reflect.ValueOf(constructor)
	if v.Kind() != reflect.Func {
		return fmt.Errorf("container: constructor must be a function")
	}
	ft := v.Type()
	if ft.NumOut() == 0 || ft.NumOut() > 2 {
		return fmt.Errorf("container: constructor must return (T) or (T, error)")
	}
	if ft.NumOut() == 2 && ft.Out(1) != errorType {
		return fmt.Errorf("container: second return value must be error")
	}

	outType := ft.Out(0)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.prov[outType]; exists {
		return fmt.Errorf("container: provider already exists for %v", outType)
	}
	c.prov[outType] = provider{fn: v, singleton: singleton}
	return nil
}

// Supply registers an already built value as a singleton.
func (c *Container) Supply(value any) error {
	v := reflect.ValueOf(value)
	if !v.IsValid() {
		return fmt.Errorf("container: cannot supply nil")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.prov[v.Type()]; exists {
		return fmt.Errorf("container: provider already exists for %v", v.Type())
	}
	c.prov[v.Type()] = provider{singleton: true}
	c.instances[v.Type()] = v
	return nil
}

// Resolve populates the given pointer with an instance of the requested type.
//
//	var sink store.Sink
//	err := c.Resolve(&sink)
func (c *Container) Resolve(target any) error {
	ptr := reflect.ValueOf(target)
	if ptr.Kind() != reflect.Ptr || ptr.IsNil() {
		return fmt.Errorf("container: target must be a non-nil pointer")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	val, err := c.get(ptr.Elem().Type(), make(map[reflect.Type]bool))
	if err != nil {
		return err
	}
	ptr.Elem().Set(val)
	return nil
}

// Invoke calls fn with its parameters resolved. A trailing error result is
// returned.
func (c *Container) Invoke(fn any) error {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return fmt.Errorf("container: Invoke requires a function")
	}
	ft := v.Type()
	args := make([]reflect.Value, ft.NumIn())

	c.mu.Lock()
	for i := range args {
		val, err := c.get(ft.In(i), make(map[reflect.Type]bool))
		if err != nil {
			c.mu.Unlock()
			return err
		}
		args[i] = val
	}
	c.mu.Unlock()

	outs := v.Call(args)
	if n := len(outs); n > 0 && ft.Out(n-1) == errorType && !outs[n-1].IsNil() {
		return outs[n-1].Interface().(error)
	}
	return nil
}

// get builds t. Callers hold c.mu; constructors must not use the container.
func (c *Container) get(t reflect.Type, path map[reflect.Type]bool) (reflect.Value, error) {
	if v, ok := c.instances[t]; ok {
		return v, nil
	}

	key := t
	prov, ok := c.prov[t]
	if !ok && t.Kind() == reflect.Interface {
		for pt, p := range c.prov {
			if pt.Implements(t) {
				key, prov, ok = pt, p, true
				break
			}
		}
		if v, built := c.instances[key]; ok && built {
			return v, nil
		}
	}
	if !ok {
		return reflect.Value{}, fmt.Errorf("%w for %v", ErrNoProvider, t)
	}

	if path[key] {
		return reflect.Value{}, fmt.Errorf("container: cyclic dependency for %v", key)
	}
	path[key] = true
	defer delete(path, key)

	ft := prov.fn.Type()
	args := make([]reflect.Value, ft.NumIn())
	for i := range args {
		dep, err := c.get(ft.In(i), path)
		if err != nil {
			return reflect.Value{}, err
		}
		args[i] = dep
	}

	outs := prov.fn.Call(args)
	if len(outs) == 2 && !outs[1].IsNil() {
		return reflect.Value{}, fmt.Errorf("container: build %v: %w", key, outs[1].Interface().(error))
	}
	if prov.singleton {
		c.instances[key] = outs[0]
	}
	return outs[0], nil
}
