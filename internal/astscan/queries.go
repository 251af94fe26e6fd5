package astscan

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/jenian/envscout/internal/finding"
)

// goQuery finds os.Getenv("KEY") and os.LookupEnv("KEY") calls with a
// literal key. Dynamic keys are invisible by design.
const goQuery = `
(call_expression
  function: (selector_expression
    operand: (identifier) @pkg
    field: (field_identifier) @fn)
  arguments: (argument_list (interpreted_string_literal) @key))
`

// pythonQuery finds os.environ["KEY"], os.getenv("KEY"[, default]) and
// os.environ.get("KEY"[, default]).
const pythonQuery = `
[
  (subscript
    value: (attribute
      object: (identifier) @obj
      attribute: (identifier) @attr)
    subscript: (string) @key)
  (call
    function: (attribute
      object: (identifier) @obj
      attribute: (identifier) @attr)
    arguments: (argument_list . (string) @key (string)? @default))
  (call
    function: (attribute
      object: (attribute
        object: (identifier) @obj
        attribute: (identifier) @attr)
      attribute: (identifier) @method)
    arguments: (argument_list . (string) @key (string)? @default))
]
`

// rustQuery finds env::var("KEY") style calls.
const rustQuery = `
(call_expression
  function: (scoped_identifier) @fn
  arguments: (arguments (string_literal) @key))
`

// javaQuery finds System.getenv("KEY") calls.
const javaQuery = `
(method_invocation
  object: (identifier) @obj
  name: (identifier) @method
  arguments: (argument_list (string_literal) @key))
`

// observation is a decoded query match before validation.
type observation struct {
	name    string
	guarded bool
	def     string
	hint    string
}

// decode validates the captures for one language and turns them into an
// observation, or reports that the match is not an environment access.
type decode func(caps map[string]string) (observation, bool)

var decoders = map[string]struct {
	query  string
	decode decode
}{
	"go": {goQuery, func(caps map[string]string) (observation, bool) {
		if caps["pkg"] != "os" {
			return observation{}, false
		}
		switch caps["fn"] {
		case "Getenv":
			return observation{name: trimQuotes(caps["key"]), hint: "os.Getenv"}, true
		case "LookupEnv":
			return observation{name: trimQuotes(caps["key"]), guarded: true, hint: "os.LookupEnv"}, true
		}
		return observation{}, false
	}},
	"python": {pythonQuery, func(caps map[string]string) (observation, bool) {
		if caps["obj"] != "os" {
			return observation{}, false
		}
		name := trimQuotes(caps["key"])
		// Only a call that supplies a fallback argument counts as guarded;
		// a bare os.getenv("X") or os.environ.get("X") leaves absence
		// unhandled just like a subscript.
		def, hasDefault := caps["default"]
		switch {
		case caps["attr"] == "environ" && caps["method"] == "get":
			return observation{name: name, guarded: hasDefault, def: trimQuotes(def), hint: "os.environ.get"}, true
		case caps["attr"] == "getenv" && caps["method"] == "":
			return observation{name: name, guarded: hasDefault, def: trimQuotes(def), hint: "os.getenv"}, true
		case caps["attr"] == "environ" && caps["method"] == "" && !hasDefault:
			return observation{name: name, hint: "os.environ subscript"}, true
		}
		return observation{}, false
	}},
	"rust": {rustQuery, func(caps map[string]string) (observation, bool) {
		switch caps["fn"] {
		case "env::var", "std::env::var", "env::var_os", "std::env::var_os":
			return observation{name: trimQuotes(caps["key"]), hint: "env::var"}, true
		}
		return observation{}, false
	}},
	"java": {javaQuery, func(caps map[string]string) (observation, bool) {
		if caps["obj"] != "System" || caps["method"] != "getenv" {
			return observation{}, false
		}
		return observation{name: trimQuotes(caps["key"]), hint: "System.getenv"}, true
	}},
}

// queryExtract runs the per-language query over a parsed tree and emits
// observations tagged with the generic ast source. A broken query is a
// programming error and aborts the provider run.
func queryExtract(lang string, language *sitter.Language, content []byte, root *sitter.Node) ([]envVarNode, error) {
	spec, ok := decoders[lang]
	if !ok {
		return nil, fmt.Errorf("no query for language %s", lang)
	}

	query, queryErr := sitter.NewQuery(language, strings.TrimSpace(spec.query))
	if queryErr != nil {
		return nil, fmt.Errorf("query for %s: %v", lang, queryErr)
	}
	defer query.Close()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	matches := cursor.Matches(query, root, content)
	captureNames := query.CaptureNames()

	var nodes []envVarNode
	for {
		match := matches.Next()
		if match == nil {
			break
		}

		caps := make(map[string]string)
		var keyNode *sitter.Node
		for _, capture := range match.Captures {
			if int(capture.Index) >= len(captureNames) {
				continue
			}
			name := captureNames[capture.Index]
			node := capture.Node
			caps[name] = nodeText(content, &node)
			if name == "key" {
				keyNode = &node
			}
		}
		if keyNode == nil {
			continue
		}

		obs, ok := spec.decode(caps)
		if !ok || !finding.ValidName(obs.name) {
			continue
		}
		pos := keyNode.StartPosition()
		nodes = append(nodes, envVarNode{
			name:         obs.name,
			source:       finding.SourceAST,
			line:         int(pos.Row) + 1,
			col:          int(pos.Column) + 1,
			context:      lineAt(content, keyNode.StartByte()),
			hint:         obs.hint,
			hasGuards:    obs.guarded,
			defaultValue: obs.def,
		})
	}
	return nodes, nil
}
