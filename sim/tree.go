package sim

import (
	"math"
	"strconv"
	"strings"

	"github.com/Aaronia-Open-source/RTSA-API-Samples/rtsa"
)

// node is one entry of a simulated config or health tree.
type node struct {
	ref      rtsa.ConfigRef
	name     string
	title    string
	typ      rtsa.ConfigType
	min      float64
	max      float64
	step     float64
	unit     string
	options  []string
	parent   *node
	children []*node

	num float64
	str string

	// read computes the value of health nodes on access.
	read func() float64
}

func (n *node) child(name string) *node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

func (n *node) find(path string) *node {
	cur := n
	for _, p := range strings.Split(strings.Trim(path, "/"), "/") {
		if cur = cur.child(p); cur == nil {
			return nil
		}
	}
	return cur
}

func (n *node) info() rtsa.ConfigInfo {
	return rtsa.ConfigInfo{
		Name:    n.name,
		Title:   n.title,
		Type:    n.typ,
		Min:     n.min,
		Max:     n.max,
		Step:    n.step,
		Unit:    n.unit,
		Options: strings.Join(n.options, ";"),
	}
}

func (n *node) value() float64 {
	if n.read != nil {
		return n.read()
	}
	return n.num
}

func (n *node) setFloat(v float64) rtsa.Result {
	switch n.typ {
	case rtsa.ConfigNumber:
		if math.IsNaN(v) {
			return rtsa.ErrorValueInvalid
		}
		adjusted := false
		if v < n.min {
			v, adjusted = n.min, true
		}
		if v > n.max {
			v, adjusted = n.max, true
		}
		n.num = v
		if adjusted {
			return rtsa.WarningValueAdjusted
		}
		return rtsa.OK
	case rtsa.ConfigBool, rtsa.ConfigEnum:
		return n.setInteger(int64(v))
	}
	return rtsa.ErrorInvalidParameter
}

func (n *node) setInteger(v int64) rtsa.Result {
	switch n.typ {
	case rtsa.ConfigNumber:
		return n.setFloat(float64(v))
	case rtsa.ConfigBool:
		n.num = 0
		if v != 0 {
			n.num = 1
		}
		return rtsa.OK
	case rtsa.ConfigEnum:
		if v < 0 || v >= int64(len(n.options)) {
			return rtsa.ErrorValueInvalid
		}
		n.num = float64(v)
		return rtsa.OK
	}
	return rtsa.ErrorInvalidParameter
}

func (n *node) setString(v string) rtsa.Result {
	switch n.typ {
	case rtsa.ConfigString:
		n.str = v
		return rtsa.OK
	case rtsa.ConfigEnum:
		for i, o := range n.options {
			if o == v {
				n.num = float64(i)
				return rtsa.OK
			}
		}
		return rtsa.ErrorValueInvalid
	case rtsa.ConfigNumber:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return rtsa.ErrorValueMalformed
		}
		return n.setFloat(f)
	case rtsa.ConfigBool:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return rtsa.ErrorValueMalformed
		}
		if b {
			return n.setInteger(1)
		}
		return n.setInteger(0)
	}
	return rtsa.ErrorInvalidParameter
}

func (n *node) getFloat() (float64, rtsa.Result) {
	switch n.typ {
	case rtsa.ConfigNumber, rtsa.ConfigBool, rtsa.ConfigEnum:
		return n.value(), rtsa.OK
	}
	return 0, rtsa.ErrorInvalidParameter
}

func (n *node) getInteger() (int64, rtsa.Result) {
	v, r := n.getFloat()
	return int64(math.Round(v)), r
}

func (n *node) getString() (string, rtsa.Result) {
	switch n.typ {
	case rtsa.ConfigString:
		return n.str, rtsa.OK
	case rtsa.ConfigEnum:
		i := int(n.value())
		if i < 0 || i >= len(n.options) {
			return "", rtsa.ErrorValueInvalid
		}
		return n.options[i], rtsa.OK
	case rtsa.ConfigNumber:
		return strconv.FormatFloat(n.value(), 'f', -1, 64), rtsa.OK
	case rtsa.ConfigBool:
		return strconv.FormatBool(n.value() != 0), rtsa.OK
	}
	return "", rtsa.ErrorInvalidParameter
}

// entry declares one leaf of a config tree.
type entry struct {
	path    string
	title   string
	typ     rtsa.ConfigType
	min     float64
	max     float64
	step    float64
	unit    string
	options string
	value   any
	read    func() float64
}

// tree holds the nodes of one device and hands out their refs.
type tree struct {
	nodes map[rtsa.ConfigRef]*node
	next  rtsa.ConfigRef
}

func newTree() *tree {
	return &tree{nodes: map[rtsa.ConfigRef]*node{}}
}

func (t *tree) add(parent *node, name string, typ rtsa.ConfigType) *node {
	t.next++
	n := &node{ref: t.next, name: name, title: name, typ: typ, parent: parent}
	t.nodes[n.ref] = n
	if parent != nil {
		parent.children = append(parent.children, n)
	}
	return n
}

// build creates a group rooted tree from entries, creating intermediate
// groups as needed.
func (t *tree) build(name string, entries []entry) *node {
	root := t.add(nil, name, rtsa.ConfigGroup)
	for _, e := range entries {
		parts := strings.Split(e.path, "/")
		parent := root
		for _, p := range parts[:len(parts)-1] {
			g := parent.child(p)
			if g == nil {
				g = t.add(parent, p, rtsa.ConfigGroup)
			}
			parent = g
		}
		n := t.add(parent, parts[len(parts)-1], e.typ)
		if e.title != "" {
			n.title = e.title
		}
		n.min, n.max, n.step, n.unit = e.min, e.max, e.step, e.unit
		if e.options != "" {
			n.options = strings.Split(e.options, ";")
		}
		n.read = e.read
		switch v := e.value.(type) {
		case float64:
			n.num = v
		case int:
			n.num = float64(v)
		case bool:
			if v {
				n.num = 1
			}
		case string:
			n.setString(v)
		}
	}
	return root
}
