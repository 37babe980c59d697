/*
NAME
  xml.go

DESCRIPTION
  xml.go defines xmlNode, a generic recursive XML tree used to walk a
  DolbyLabsMDF document the way the tool this was translated from walks it
  with roxmltree: by tag-name lookup over children or all descendants,
  rather than by unmarshalling into a fixed schema. The format's CM v2.9
  and v4.0 variants disagree enough on element names and nesting that a
  fixed struct per version would duplicate the whole parser; a generic
  walk keeps one parser for both.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package generator

import "encoding/xml"

// xmlNode is a generic XML element: its tag name, attributes, direct text
// content and child elements.
type xmlNode struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Content string     `xml:",chardata"`
	Nodes   []xmlNode  `xml:",any"`
}

func parseXMLDocument(data []byte) (*xmlNode, error) {
	var root xmlNode
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	return &root, nil
}

// child returns the first direct child named name, or nil.
func (n *xmlNode) child(name string) *xmlNode {
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == name {
			return &n.Nodes[i]
		}
	}
	return nil
}

// children returns every direct child named name.
func (n *xmlNode) children(name string) []*xmlNode {
	var out []*xmlNode
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == name {
			out = append(out, &n.Nodes[i])
		}
	}
	return out
}

// childrenWithAttr returns every direct child carrying an attribute named
// attrName.
func (n *xmlNode) childrenWithAttr(attrName string) []*xmlNode {
	var out []*xmlNode
	for i := range n.Nodes {
		if _, ok := n.Nodes[i].attr(attrName); ok {
			out = append(out, &n.Nodes[i])
		}
	}
	return out
}

// descendant returns the first descendant (at any depth, including n
// itself) named name, or nil.
func (n *xmlNode) descendant(name string) *xmlNode {
	if n.XMLName.Local == name {
		return n
	}
	for i := range n.Nodes {
		if found := n.Nodes[i].descendant(name); found != nil {
			return found
		}
	}
	return nil
}

// descendants returns every descendant (at any depth, including n itself)
// named name.
func (n *xmlNode) descendants(name string) []*xmlNode {
	var out []*xmlNode
	var walk func(*xmlNode)
	walk = func(cur *xmlNode) {
		if cur.XMLName.Local == name {
			out = append(out, cur)
		}
		for i := range cur.Nodes {
			walk(&cur.Nodes[i])
		}
	}
	walk(n)
	return out
}

// attr returns the named attribute's value and whether it was present.
func (n *xmlNode) attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}
