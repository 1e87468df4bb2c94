package view

import "strings"

// Kind is the node type discriminator.
type Kind uint8

const (
	KindElement  Kind = iota // <div>, <input>, etc.
	KindText                 // Escaped text
	KindFragment             // Children without a wrapper
	KindRaw                  // Trusted HTML, written verbatim
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindFragment:
		return "Fragment"
	case KindRaw:
		return "Raw"
	default:
		return "Unknown"
	}
}

// Node is a virtual node.
type Node struct {
	Kind     Kind
	Tag      string
	Props    Props
	Children []*Node
	Text     string // For KindText and KindRaw
}

// Props holds attributes and event handlers.
type Props map[string]any

// Attr is a single attribute or handler.
type Attr struct {
	Key   string
	Value any
}

// El creates an element. Arguments can be nil, Attr, []Attr, *Node,
// []*Node or string (a text child).
func El(tag string, args ...any) *Node {
	n := &Node{Kind: KindElement, Tag: tag, Props: make(Props)}
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			// Allows conditional children and attributes.
		case Attr:
			if v.Key != "" {
				n.Props[v.Key] = v.Value
			}
		case []Attr:
			for _, a := range v {
				if a.Key != "" {
					n.Props[a.Key] = a.Value
				}
			}
		case *Node:
			if v != nil {
				n.Children = append(n.Children, v)
			}
		case []*Node:
			for _, c := range v {
				if c != nil {
					n.Children = append(n.Children, c)
				}
			}
		case string:
			n.Children = append(n.Children, Text(v))
		}
	}
	return n
}

// Text creates an escaped text node.
func Text(s string) *Node {
	return &Node{Kind: KindText, Text: s}
}

// Raw creates a node whose HTML is written without escaping.
// Only use it with trusted markup.
func Raw(html string) *Node {
	return &Node{Kind: KindRaw, Text: html}
}

// Fragment groups children without a wrapper element.
func Fragment(children ...*Node) *Node {
	n := &Node{Kind: KindFragment}
	for _, c := range children {
		if c != nil {
			n.Children = append(n.Children, c)
		}
	}
	return n
}

// If returns node when cond is true and nil otherwise.
func If(cond bool, node *Node) *Node {
	if cond {
		return node
	}
	return nil
}

// Handler returns the handler registered for event ("click", "change").
func (n *Node) Handler(event string) any {
	if n == nil || n.Props == nil {
		return nil
	}
	return n.Props["on"+event]
}

// Attr returns the attribute value for key.
func (n *Node) Attr(key string) (any, bool) {
	if n == nil || n.Props == nil {
		return nil, false
	}
	v, ok := n.Props[key]
	return v, ok
}

// Find returns the first node in depth-first order that matches fn.
func (n *Node) Find(fn func(*Node) bool) *Node {
	if n == nil {
		return nil
	}
	if fn(n) {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(fn); found != nil {
			return found
		}
	}
	return nil
}

// FindTag returns the first element with tag.
func (n *Node) FindTag(tag string) *Node {
	return n.Find(func(c *Node) bool {
		return c.Kind == KindElement && c.Tag == tag
	})
}

// FindClass returns the first element whose class list contains class.
func (n *Node) FindClass(class string) *Node {
	return n.Find(func(c *Node) bool {
		s, _ := c.Props["class"].(string)
		for _, f := range strings.Fields(s) {
			if f == class {
				return true
			}
		}
		return false
	})
}

// TextContent concatenates the text of n and its descendants. Raw nodes
// contribute their markup unchanged.
func (n *Node) TextContent() string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	n.writeText(&sb)
	return sb.String()
}

func (n *Node) writeText(sb *strings.Builder) {
	switch n.Kind {
	case KindText, KindRaw:
		sb.WriteString(n.Text)
	default:
		for _, c := range n.Children {
			c.writeText(sb)
		}
	}
}
