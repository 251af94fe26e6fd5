package astscan

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/jenian/envscout/internal/finding"
)

// envRoot recognizes the two environment idiom roots.
func envRoot(expr string) (finding.Source, bool) {
	switch expr {
	case "process.env":
		return finding.SourceProcess, true
	case "import.meta.env":
		return finding.SourceImportMeta, true
	}
	return "", false
}

// walkJS visits every node in a JS/TS tree and collects environment
// accesses: member access, subscript with a literal string key, and
// destructuring of the whole environment object.
func walkJS(content []byte, root *sitter.Node) []envVarNode {
	var nodes []envVarNode
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		switch n.Kind() {
		case "member_expression", "subscript_expression":
			if ev, ok := envAccess(content, n); ok {
				nodes = append(nodes, ev)
			}
		case "variable_declarator":
			nodes = append(nodes, destructured(content, n)...)
		}
		for i := uint(0); i < n.NamedChildCount(); i++ {
			visit(n.NamedChild(i))
		}
	}
	visit(root)
	return nodes
}

// envAccess matches process.env.NAME, process.env["NAME"] and the
// import.meta.env equivalents. Dynamic keys (anything but a literal
// string subscript) are invisible by design.
func envAccess(content []byte, n *sitter.Node) (envVarNode, bool) {
	obj := n.ChildByFieldName("object")
	if obj == nil {
		return envVarNode{}, false
	}
	src, ok := envRoot(nodeText(content, obj))
	if !ok {
		return envVarNode{}, false
	}

	var name, hint string
	if n.Kind() == "member_expression" {
		prop := n.ChildByFieldName("property")
		if prop == nil {
			return envVarNode{}, false
		}
		name = nodeText(content, prop)
		hint = "property access"
	} else {
		idx := n.ChildByFieldName("index")
		if idx == nil || idx.Kind() != "string" {
			return envVarNode{}, false
		}
		name = trimQuotes(nodeText(content, idx))
		hint = "subscript access"
	}
	if !finding.ValidName(name) {
		return envVarNode{}, false
	}

	guarded, def := guardInfo(content, n)
	pos := n.StartPosition()
	return envVarNode{
		name:         name,
		source:       src,
		line:         int(pos.Row) + 1,
		col:          int(pos.Column) + 1,
		context:      lineAt(content, n.StartByte()),
		hint:         hint,
		hasGuards:    guarded,
		defaultValue: def,
	}, true
}

// destructured handles `const { KEY, OTHER = 'fallback' } = process.env`.
// A default clause registers a guard; only string-literal defaults are
// captured as values.
func destructured(content []byte, n *sitter.Node) []envVarNode {
	val := n.ChildByFieldName("value")
	pattern := n.ChildByFieldName("name")
	if val == nil || pattern == nil || pattern.Kind() != "object_pattern" {
		return nil
	}
	src, ok := envRoot(nodeText(content, val))
	if !ok {
		return nil
	}

	var out []envVarNode
	emit := func(c *sitter.Node, name string, guarded bool, def string) {
		if !finding.ValidName(name) {
			return
		}
		pos := c.StartPosition()
		out = append(out, envVarNode{
			name:         name,
			source:       src,
			line:         int(pos.Row) + 1,
			col:          int(pos.Column) + 1,
			context:      lineAt(content, c.StartByte()),
			hint:         "destructured",
			hasGuards:    guarded,
			defaultValue: def,
		})
	}

	for i := uint(0); i < pattern.NamedChildCount(); i++ {
		c := pattern.NamedChild(i)
		switch c.Kind() {
		case "shorthand_property_identifier_pattern":
			emit(c, nodeText(content, c), false, "")
		case "object_assignment_pattern":
			left := c.ChildByFieldName("left")
			right := c.ChildByFieldName("right")
			if left == nil {
				continue
			}
			def := ""
			if right != nil && right.Kind() == "string" {
				def = trimQuotes(nodeText(content, right))
			}
			emit(c, nodeText(content, left), true, def)
		case "pair_pattern":
			keyNode := c.ChildByFieldName("key")
			if keyNode == nil {
				continue
			}
			name := trimQuotes(nodeText(content, keyNode))
			guarded, def := false, ""
			if v := c.ChildByFieldName("value"); v != nil && v.Kind() == "assignment_pattern" {
				guarded = true
				if r := v.ChildByFieldName("right"); r != nil && r.Kind() == "string" {
					def = trimQuotes(nodeText(content, r))
				}
			}
			emit(c, name, guarded, def)
		}
	}
	return out
}

// guardInfo inspects up to three ancestor levels for a construct implying
// the variable's absence is handled: a `||` or `??` fallback (string RHS
// captured as the default), a ternary test, or an if condition.
func guardInfo(content []byte, n *sitter.Node) (bool, string) {
	p := n.Parent()
	for depth := 0; p != nil && depth < 3; depth++ {
		switch p.Kind() {
		case "binary_expression":
			left := p.ChildByFieldName("left")
			right := p.ChildByFieldName("right")
			if left == nil || right == nil || !covers(left, n) {
				break
			}
			op := strings.TrimSpace(string(content[left.EndByte():right.StartByte()]))
			if op == "||" || op == "??" {
				if right.Kind() == "string" {
					return true, trimQuotes(nodeText(content, right))
				}
				return true, ""
			}
		case "ternary_expression":
			if cond := p.ChildByFieldName("condition"); cond != nil && covers(cond, n) {
				return true, ""
			}
		case "if_statement":
			if cond := p.ChildByFieldName("condition"); cond != nil && covers(cond, n) {
				return true, ""
			}
		}
		p = p.Parent()
	}
	return false, ""
}

// covers reports whether b's byte span lies within a's.
func covers(a, b *sitter.Node) bool {
	return b.StartByte() >= a.StartByte() && b.EndByte() <= a.EndByte()
}
