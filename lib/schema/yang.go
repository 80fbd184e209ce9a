// Copyright 2026 The Tsnctl Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// statement is one node of the RFC 7950 statement tree:
// keyword [argument] (";" / "{" *statement "}").
type statement struct {
	keyword  string
	argument string
	children []*statement
	line     int
}

// child returns the first substatement with the given keyword, or nil.
func (s *statement) child(keyword string) *statement {
	for _, c := range s.children {
		if c.keyword == keyword {
			return c
		}
	}
	return nil
}

// yangLexer scans a YANG module into keyword/string/punctuation
// tokens. Comments (// and /* */) are skipped; quoted strings handle
// the RFC 7950 escape set and '+' concatenation is handled by the
// parser above.
type yangLexer struct {
	input []byte
	pos   int
	line  int
	file  string
}

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenString
	tokenSemicolon
	tokenLeftBrace
	tokenRightBrace
	tokenPlus
)

type token struct {
	kind tokenKind
	text string
	line int
}

func (l *yangLexer) errorf(line int, format string, args ...any) error {
	return &ParseError{File: l.file, Line: line, Err: fmt.Errorf(format, args...)}
}

// skipSpace advances past whitespace and comments.
func (l *yangLexer) skipSpace() error {
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch {
		case c == '\n':
			l.line++
			l.pos++
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '/' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '/':
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				l.pos++
			}
		case c == '/' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '*':
			start := l.line
			l.pos += 2
			for {
				if l.pos+1 >= len(l.input) {
					return l.errorf(start, "unterminated block comment")
				}
				if l.input[l.pos] == '*' && l.input[l.pos+1] == '/' {
					l.pos += 2
					break
				}
				if l.input[l.pos] == '\n' {
					l.line++
				}
				l.pos++
			}
		default:
			return nil
		}
	}
	return nil
}

// next returns the next token.
func (l *yangLexer) next() (token, error) {
	if err := l.skipSpace(); err != nil {
		return token{}, err
	}
	if l.pos >= len(l.input) {
		return token{kind: tokenEOF, line: l.line}, nil
	}

	startLine := l.line
	switch c := l.input[l.pos]; c {
	case ';':
		l.pos++
		return token{kind: tokenSemicolon, line: startLine}, nil
	case '{':
		l.pos++
		return token{kind: tokenLeftBrace, line: startLine}, nil
	case '}':
		l.pos++
		return token{kind: tokenRightBrace, line: startLine}, nil
	case '+':
		l.pos++
		return token{kind: tokenPlus, line: startLine}, nil
	case '"', '\'':
		return l.quotedString(c)
	default:
		start := l.pos
		for l.pos < len(l.input) && !isTokenBoundary(l.input[l.pos]) {
			l.pos++
		}
		return token{kind: tokenString, text: string(l.input[start:l.pos]), line: startLine}, nil
	}
}

func isTokenBoundary(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', ';', '{', '}', '"', '\'':
		return true
	}
	return false
}

// quotedString scans one quoted string. Double quotes process the
// RFC 7950 escape set; single quotes are literal.
func (l *yangLexer) quotedString(quote byte) (token, error) {
	startLine := l.line
	l.pos++ // opening quote
	var builder strings.Builder
	for {
		if l.pos >= len(l.input) {
			return token{}, l.errorf(startLine, "unterminated string")
		}
		c := l.input[l.pos]
		if c == quote {
			l.pos++
			return token{kind: tokenString, text: builder.String(), line: startLine}, nil
		}
		if c == '\n' {
			l.line++
		}
		if quote == '"' && c == '\\' && l.pos+1 < len(l.input) {
			l.pos++
			switch l.input[l.pos] {
			case 'n':
				builder.WriteByte('\n')
			case 't':
				builder.WriteByte('\t')
			case '"':
				builder.WriteByte('"')
			case '\\':
				builder.WriteByte('\\')
			default:
				builder.WriteByte('\\')
				builder.WriteByte(l.input[l.pos])
			}
			l.pos++
			continue
		}
		builder.WriteByte(c)
		l.pos++
	}
}

// parseYANG parses module text into its root statement.
func parseYANG(file string, data []byte) (*statement, error) {
	lexer := &yangLexer{input: data, line: 1, file: file}

	var parseBlock func(terminated bool) ([]*statement, error)
	parseBlock = func(terminated bool) ([]*statement, error) {
		var statements []*statement
		for {
			tok, err := lexer.next()
			if err != nil {
				return nil, err
			}
			switch tok.kind {
			case tokenEOF:
				if terminated {
					return nil, lexer.errorf(tok.line, "unexpected end of file: missing '}'")
				}
				return statements, nil
			case tokenRightBrace:
				if !terminated {
					return nil, lexer.errorf(tok.line, "unexpected '}'")
				}
				return statements, nil
			case tokenString:
				stmt := &statement{keyword: tok.text, line: tok.line}
				next, err := lexer.next()
				if err != nil {
					return nil, err
				}
				// Optional argument, possibly split across
				// '+'-concatenated quoted strings.
				if next.kind == tokenString {
					argument := next.text
					for {
						after, err := lexer.next()
						if err != nil {
							return nil, err
						}
						if after.kind == tokenPlus {
							part, err := lexer.next()
							if err != nil {
								return nil, err
							}
							if part.kind != tokenString {
								return nil, lexer.errorf(part.line, "expected string after '+'")
							}
							argument += part.text
							continue
						}
						next = after
						break
					}
					stmt.argument = argument
				}
				switch next.kind {
				case tokenSemicolon:
				case tokenLeftBrace:
					children, err := parseBlock(true)
					if err != nil {
						return nil, err
					}
					stmt.children = children
				default:
					return nil, lexer.errorf(next.line, "expected ';' or '{' after %q", stmt.keyword)
				}
				statements = append(statements, stmt)
			default:
				return nil, lexer.errorf(tok.line, "unexpected token")
			}
		}
	}

	statements, err := parseBlock(false)
	if err != nil {
		return nil, err
	}
	if len(statements) != 1 || (statements[0].keyword != "module" && statements[0].keyword != "submodule") {
		return nil, &ParseError{File: file, Err: fmt.Errorf("expected a single module statement")}
	}
	return statements[0], nil
}

// moduleExtractor walks one parsed module and fills a partial type
// table. Typedefs and groupings are collected in a pre-pass so that
// forward references within the module resolve.
type moduleExtractor struct {
	file       string
	moduleName string
	prefixes   map[string]string // prefix → module name
	groupings  map[string]*statement
	typedefs   map[string]*statement
	resolved   map[string]*TypeInfo // typedef resolution memo
	resolving  map[string]bool      // typedef cycle guard
	table      *TypeTable
}

// ParseYANGModule parses one YANG module and extracts the type
// information the codec needs: per-leaf types, typedefs, identities,
// enumerations, choice/case names, list keys, and child orders.
func ParseYANGModule(file string, data []byte) (*TypeTable, error) {
	root, err := parseYANG(file, data)
	if err != nil {
		return nil, err
	}

	extractor := &moduleExtractor{
		file:       file,
		moduleName: root.argument,
		prefixes:   map[string]string{},
		groupings:  map[string]*statement{},
		typedefs:   map[string]*statement{},
		resolved:   map[string]*TypeInfo{},
		resolving:  map[string]bool{},
		table:      NewTypeTable(),
	}

	for _, stmt := range root.children {
		switch stmt.keyword {
		case "prefix":
			extractor.prefixes[stmt.argument] = extractor.moduleName
		case "import":
			if prefix := stmt.child("prefix"); prefix != nil {
				extractor.prefixes[prefix.argument] = stmt.argument
			}
		}
	}
	extractor.collect(root)

	for name := range extractor.typedefs {
		info := extractor.resolveTypedef(name)
		if info != nil {
			extractor.table.Typedefs[name] = info
		}
	}
	for _, stmt := range root.children {
		if stmt.keyword == "identity" {
			extractor.extractIdentity(stmt)
		}
	}
	for _, stmt := range root.children {
		switch stmt.keyword {
		case "container", "list", "leaf", "leaf-list", "choice", "uses", "augment":
			counter := 0
			extractor.walkData(stmt, nil, &counter)
		}
	}
	return extractor.table, nil
}

// collect gathers typedef and grouping statements at every nesting
// level.
func (e *moduleExtractor) collect(stmt *statement) {
	for _, child := range stmt.children {
		switch child.keyword {
		case "typedef":
			e.typedefs[child.argument] = child
		case "grouping":
			e.groupings[child.argument] = child
		}
		e.collect(child)
	}
}

// qualify turns a possibly-prefixed name into "module:name" using the
// module's import prefixes. An unprefixed name belongs to this module.
func (e *moduleExtractor) qualify(name string) string {
	if colon := strings.IndexByte(name, ':'); colon >= 0 {
		prefix, bare := name[:colon], name[colon+1:]
		if module, ok := e.prefixes[prefix]; ok {
			return module + ":" + bare
		}
		return name
	}
	return e.moduleName + ":" + name
}

func (e *moduleExtractor) extractIdentity(stmt *statement) {
	identity := &Identity{}
	for _, child := range stmt.children {
		if child.keyword == "base" {
			identity.Bases = append(identity.Bases, e.qualify(child.argument))
		}
	}
	e.table.Identities[stmt.argument] = identity
	e.table.Identities[e.moduleName+":"+stmt.argument] = identity
}

// resolveTypedef resolves a typedef chain to a concrete TypeInfo,
// memoized, with a cycle guard.
func (e *moduleExtractor) resolveTypedef(name string) *TypeInfo {
	if info, ok := e.resolved[name]; ok {
		return info
	}
	if e.resolving[name] {
		return &TypeInfo{Kind: KindUnknown, Original: name}
	}
	stmt, ok := e.typedefs[name]
	if !ok {
		return nil
	}
	e.resolving[name] = true
	defer delete(e.resolving, name)

	typeStmt := stmt.child("type")
	if typeStmt == nil {
		return &TypeInfo{Kind: KindUnknown, Original: name}
	}
	info := e.resolveType(typeStmt)
	info.Original = name
	e.resolved[name] = info
	return info
}

// builtinKinds maps YANG built-in type names handled as simple kinds.
var builtinKinds = map[string]TypeKind{
	"boolean": KindBoolean,
	"string":  KindString,
	"int8":    KindInt8,
	"int16":   KindInt16,
	"int32":   KindInt32,
	"int64":   KindInt64,
	"uint8":   KindUint8,
	"uint16":  KindUint16,
	"uint32":  KindUint32,
	"uint64":  KindUint64,
	"binary":  KindBinary,
	"empty":   KindEmpty,
	// RFC 7951 represents instance-identifiers as strings; the codec
	// passes them through unchanged.
	"instance-identifier": KindString,
}

// resolveType resolves a type statement to a concrete TypeInfo,
// following typedef chains within the module. Typedefs imported from
// other modules come back as unknown with Original set; the merge
// rewrites them once the global typedef table exists.
func (e *moduleExtractor) resolveType(typeStmt *statement) *TypeInfo {
	name := typeStmt.argument
	if kind, ok := builtinKinds[name]; ok {
		return &TypeInfo{Kind: kind}
	}
	switch name {
	case "enumeration":
		nameToValue := enumNameToValue(typeStmt)
		return &TypeInfo{
			Kind:            KindEnumeration,
			EnumNameToValue: nameToValue,
			EnumValueToName: reverseEnum(nameToValue),
		}
	case "identityref":
		info := &TypeInfo{Kind: KindIdentityref}
		if base := typeStmt.child("base"); base != nil {
			info.Base = e.qualify(base.argument)
		}
		return info
	case "decimal64":
		info := &TypeInfo{Kind: KindDecimal64}
		if digits := typeStmt.child("fraction-digits"); digits != nil {
			if value, err := strconv.Atoi(digits.argument); err == nil {
				info.FractionDigits = value
			}
		}
		return info
	case "union":
		info := &TypeInfo{Kind: KindUnion}
		for _, child := range typeStmt.children {
			if child.keyword == "type" {
				info.Members = append(info.Members, e.resolveType(child))
			}
		}
		return info
	case "bits":
		info := &TypeInfo{Kind: KindBits, BitNameToPosition: map[string]uint64{}}
		next := uint64(0)
		for _, child := range typeStmt.children {
			if child.keyword != "bit" {
				continue
			}
			position := next
			if pos := child.child("position"); pos != nil {
				if value, err := strconv.ParseUint(pos.argument, 10, 64); err == nil {
					position = value
				}
			}
			info.BitNameToPosition[child.argument] = position
			next = position + 1
		}
		return info
	case "leafref":
		info := &TypeInfo{Kind: KindLeafref}
		if path := typeStmt.child("path"); path != nil {
			info.LeafrefTarget = path.argument
		}
		return info
	}

	// Typedef reference. Strip any prefix: a local prefix names this
	// module's own typedefs, a foreign one resolves after the merge.
	bare := name
	if colon := strings.IndexByte(name, ':'); colon >= 0 {
		bare = name[colon+1:]
	}
	if resolved := e.resolveTypedef(bare); resolved != nil {
		copied := *resolved
		copied.Original = bare
		return &copied
	}
	return &TypeInfo{Kind: KindUnknown, Original: bare}
}

// enumNameToValue builds the name→value half of an enumeration
// bijection. Explicit value statements override the positional
// assignment; per YANG, an unvalued enum takes highest-assigned + 1.
func enumNameToValue(typeStmt *statement) map[string]int64 {
	result := map[string]int64{}
	next := int64(0)
	for _, child := range typeStmt.children {
		if child.keyword != "enum" {
			continue
		}
		value := next
		if explicit := child.child("value"); explicit != nil {
			if parsed, err := strconv.ParseInt(explicit.argument, 10, 64); err == nil {
				value = parsed
			}
		}
		result[child.argument] = value
		if value >= next {
			next = value + 1
		}
	}
	return result
}

func reverseEnum(nameToValue map[string]int64) map[int64]string {
	result := make(map[int64]string, len(nameToValue))
	for name, value := range nameToValue {
		result[value] = name
	}
	return result
}

// walkData descends the data tree, emitting per-leaf types keyed by
// absolute stripped path, choice/case names, list metadata, and child
// orders. The counter numbers data-node siblings within the nearest
// container/list scope; choice and case statements are transparent to
// it, matching the CBOR emission order of their descendants.
func (e *moduleExtractor) walkData(stmt *statement, path []string, counter *int) {
	switch stmt.keyword {
	case "container", "list":
		nodePath := append(append([]string{}, path...), stmt.argument)
		joined := strings.Join(nodePath, "/")
		e.recordOrder(stmt.argument, counter)
		if stmt.keyword == "list" {
			e.table.ListPaths[joined] = true
			if key := stmt.child("key"); key != nil {
				e.table.ListKeys[joined] = strings.Fields(key.argument)
			}
		}
		childCounter := 0
		for _, child := range stmt.children {
			e.walkData(child, nodePath, &childCounter)
		}
	case "leaf", "leaf-list":
		nodePath := append(append([]string{}, path...), stmt.argument)
		joined := strings.Join(nodePath, "/")
		e.recordOrder(stmt.argument, counter)
		if stmt.keyword == "leaf-list" {
			e.table.LeafListPaths[joined] = true
		}
		typeStmt := stmt.child("type")
		if typeStmt == nil {
			e.table.Types[joined] = &TypeInfo{Kind: KindUnknown}
			return
		}
		e.table.Types[joined] = e.resolveType(typeStmt)
	case "choice":
		e.table.ChoiceNames[stmt.argument] = true
		choicePath := append(append([]string{}, path...), stmt.argument)
		for _, child := range stmt.children {
			switch child.keyword {
			case "case":
				e.table.CaseNames[child.argument] = true
				casePath := append(append([]string{}, choicePath...), child.argument)
				for _, grandchild := range child.children {
					e.walkData(grandchild, casePath, counter)
				}
			case "container", "list", "leaf", "leaf-list", "uses", "choice":
				// Shorthand case: an implicit case node named after
				// the child wraps it, so the child's path carries its
				// own name twice. The implicit name is not recorded
				// as a case name — alias construction collapses the
				// duplicated segment instead of dropping both.
				casePath := append(append([]string{}, choicePath...), child.argument)
				e.walkData(child, casePath, counter)
			}
		}
	case "uses":
		bare := stmt.argument
		if colon := strings.IndexByte(bare, ':'); colon >= 0 {
			bare = bare[colon+1:]
		}
		grouping, ok := e.groupings[bare]
		if !ok {
			return
		}
		for _, child := range grouping.children {
			e.walkData(child, path, counter)
		}
	case "augment":
		target := StripPrefixes(strings.TrimPrefix(stmt.argument, "/"))
		targetPath := strings.Split(target, "/")
		childCounter := 0
		for _, child := range stmt.children {
			e.walkData(child, targetPath, &childCounter)
		}
	}
}

// recordOrder stores the sibling index for a node name. First writer
// wins within a module; the merge applies later-file-wins on top.
func (e *moduleExtractor) recordOrder(name string, counter *int) {
	if _, ok := e.table.NodeOrders[name]; !ok {
		e.table.NodeOrders[name] = *counter
	}
	*counter++
}

// LoadYANGModule reads and extracts one YANG module from disk.
func LoadYANGModule(path string) (*TypeTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseYANGModule(path, data)
}
