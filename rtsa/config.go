package rtsa

import (
	"fmt"
	"path"
	"strconv"
)

// ConfigNode is one entry of a device config or health tree.
type ConfigNode struct {
	dev  *Device
	ref  ConfigRef
	path string
}

func (n *ConfigNode) backend() Backend {
	return n.dev.backend()
}

// Path returns the slash separated path of the node below its root, as far as
// it is known from how the node was reached.
func (n *ConfigNode) Path() string {
	return n.path
}

func (n *ConfigNode) Name() (string, error) {
	if err := n.dev.ensureOpen(); err != nil {
		return "", err
	}
	name, r := n.backend().ConfigGetName(n.dev.ref, n.ref)
	if err := check("get config name", r); err != nil {
		return "", err
	}
	return name, nil
}

func (n *ConfigNode) Info() (*ConfigInfo, error) {
	if err := n.dev.ensureOpen(); err != nil {
		return nil, err
	}
	info, r := n.backend().ConfigGetInfo(n.dev.ref, n.ref)
	if err := check(fmt.Sprintf("get config info of %q", n.path), r); err != nil {
		return nil, err
	}
	return &info, nil
}

func (n *ConfigNode) Type() (ConfigType, error) {
	info, err := n.Info()
	if err != nil {
		return ConfigOther, err
	}
	return info.Type, nil
}

// Children lists the direct children of a group node.
func (n *ConfigNode) Children() ([]*ConfigNode, error) {
	if err := n.dev.ensureOpen(); err != nil {
		return nil, err
	}
	b := n.backend()
	var children []*ConfigNode
	ref, r := b.ConfigFirst(n.dev.ref, n.ref)
	for r == OK {
		child := &ConfigNode{dev: n.dev, ref: ref}
		name, err := child.Name()
		if err != nil {
			return nil, err
		}
		child.path = path.Join(n.path, name)
		children = append(children, child)
		ref, r = b.ConfigNext(n.dev.ref, n.ref, ref)
	}
	if r != Empty && r.IsError() && r != ErrorNotFound {
		return nil, &Error{Op: fmt.Sprintf("list children of %q", n.path), Result: r}
	}
	return children, nil
}

// Find looks up a node by its slash separated path relative to n.
func (n *ConfigNode) Find(p string) (*ConfigNode, error) {
	if err := n.dev.ensureOpen(); err != nil {
		return nil, err
	}
	ref, r := n.backend().ConfigFind(n.dev.ref, n.ref, p)
	if err := check(fmt.Sprintf("find config %q", p), r); err != nil {
		return nil, err
	}
	return &ConfigNode{dev: n.dev, ref: ref, path: path.Join(n.path, p)}, nil
}

// Child is Find for a single path element.
func (n *ConfigNode) Child(name string) (*ConfigNode, error) {
	return n.Find(name)
}

func (n *ConfigNode) Float() (float64, error) {
	if err := n.dev.ensureOpen(); err != nil {
		return 0, err
	}
	v, r := n.backend().ConfigGetFloat(n.dev.ref, n.ref)
	if err := check(fmt.Sprintf("get float %q", n.path), r); err != nil {
		return 0, err
	}
	return v, nil
}

func (n *ConfigNode) SetFloat(v float64) error {
	if err := n.dev.ensureOpen(); err != nil {
		return err
	}
	return check(fmt.Sprintf("set float %q", n.path), n.backend().ConfigSetFloat(n.dev.ref, n.ref, v))
}

func (n *ConfigNode) Int() (int64, error) {
	if err := n.dev.ensureOpen(); err != nil {
		return 0, err
	}
	v, r := n.backend().ConfigGetInteger(n.dev.ref, n.ref)
	if err := check(fmt.Sprintf("get integer %q", n.path), r); err != nil {
		return 0, err
	}
	return v, nil
}

func (n *ConfigNode) SetInt(v int64) error {
	if err := n.dev.ensureOpen(); err != nil {
		return err
	}
	return check(fmt.Sprintf("set integer %q", n.path), n.backend().ConfigSetInteger(n.dev.ref, n.ref, v))
}

// Text returns the value of the node as a string. Enum nodes return the name
// of the selected option.
func (n *ConfigNode) Text() (string, error) {
	if err := n.dev.ensureOpen(); err != nil {
		return "", err
	}
	v, r := n.backend().ConfigGetString(n.dev.ref, n.ref)
	if err := check(fmt.Sprintf("get string %q", n.path), r); err != nil {
		return "", err
	}
	return v, nil
}

func (n *ConfigNode) SetText(v string) error {
	if err := n.dev.ensureOpen(); err != nil {
		return err
	}
	return check(fmt.Sprintf("set string %q", n.path), n.backend().ConfigSetString(n.dev.ref, n.ref, v))
}

// Bool reads a bool node, which the library stores as integer 0 or 1.
func (n *ConfigNode) Bool() (bool, error) {
	v, err := n.Int()
	return v != 0, err
}

func (n *ConfigNode) SetBool(v bool) error {
	var i int64
	if v {
		i = 1
	}
	return n.SetInt(i)
}

// Set assigns v with the setter matching its Go type.
func (n *ConfigNode) Set(v any) error {
	switch v := v.(type) {
	case float64:
		return n.SetFloat(v)
	case float32:
		return n.SetFloat(float64(v))
	case int:
		return n.SetInt(int64(v))
	case int32:
		return n.SetInt(int64(v))
	case int64:
		return n.SetInt(v)
	case uint32:
		return n.SetInt(int64(v))
	case string:
		return n.SetText(v)
	case bool:
		return n.SetBool(v)
	}
	return fmt.Errorf("unable to set %q: unsupported value type %T", n.path, v)
}

// SetPath finds the node at p relative to n and assigns v.
func (n *ConfigNode) SetPath(p string, v any) error {
	c, err := n.Find(p)
	if err != nil {
		return err
	}
	return c.Set(v)
}

// Value returns the node value formatted according to its type. Groups and
// blobs have no value and return an empty string.
func (n *ConfigNode) Value(info *ConfigInfo) (string, error) {
	switch info.Type {
	case ConfigNumber:
		v, err := n.Float()
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case ConfigBool:
		v, err := n.Bool()
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(v), nil
	case ConfigEnum, ConfigString:
		return n.Text()
	}
	return "", nil
}

// WalkFunc is called for every node visited by Walk. depth is 0 for direct
// children of the starting node.
type WalkFunc func(n *ConfigNode, info *ConfigInfo, depth int) error

// Walk visits all nodes below n depth first, in library order.
func (n *ConfigNode) Walk(fn WalkFunc) error {
	return n.walk(fn, 0)
}

func (n *ConfigNode) walk(fn WalkFunc, depth int) error {
	children, err := n.Children()
	if err != nil {
		return err
	}
	for _, c := range children {
		info, err := c.Info()
		if err != nil {
			return err
		}
		if err := fn(c, info, depth); err != nil {
			return err
		}
		if info.Type == ConfigGroup {
			if err := c.walk(fn, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}
