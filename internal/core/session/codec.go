package session

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/hay-kot/acre/internal/core/review"
)

// MalformedSessionError wraps a YAML decode failure. The engine keeps
// serving the last good document when it sees one of these.
type MalformedSessionError struct {
	Err error
}

func (e *MalformedSessionError) Error() string {
	return fmt.Sprintf("malformed session file: %s", e.Err)
}

func (e *MalformedSessionError) Unwrap() error { return e.Err }

// Timestamp layouts accepted on decode. Other writers may emit ISO
// timestamps without a zone, so those are tolerated.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// Encode serializes a snapshot as a two-document YAML stream: a
// preamble with collaboration instructions and the raw diff, then the
// session data itself.
func Encode(snap *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	diffCtx := snap.DiffContext
	if diffCtx == "" {
		diffCtx = "Diff not included. Run 'git diff' to see changes."
	}
	preamble := mapping(
		"instructions", literalNode(Instructions),
		"diff_context", literalNode(diffCtx),
	)
	if err := enc.Encode(preamble); err != nil {
		return nil, fmt.Errorf("encode preamble: %w", err)
	}

	if err := enc.Encode(sessionNode(snap)); err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("flush session: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a session file. Both the two-document form written by
// Encode and a bare single-document session are accepted. Unknown keys
// at the session, file, and comment level are carried through to the
// snapshot so a later Encode writes them back.
func Decode(data []byte) (*Snapshot, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var docs []*yaml.Node
	for {
		var n yaml.Node
		err := dec.Decode(&n)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &MalformedSessionError{Err: err}
		}
		docs = append(docs, &n)
	}
	if len(docs) == 0 {
		return nil, &MalformedSessionError{Err: fmt.Errorf("empty document")}
	}

	body := docs[0]
	var preamble *yaml.Node
	if len(docs) >= 2 {
		preamble, body = docs[0], docs[1]
	}

	snap := &Snapshot{}
	if preamble != nil {
		for key, val := range mappingFields(preamble) {
			if key == "diff_context" {
				snap.DiffContext = val.Value
			}
		}
	}

	if err := decodeSession(body, snap); err != nil {
		return nil, &MalformedSessionError{Err: err}
	}
	return snap, nil
}

func decodeSession(node *yaml.Node, snap *Snapshot) error {
	fields := mappingFields(node)
	if fields == nil {
		return fmt.Errorf("session document is not a mapping")
	}

	now := time.Now()
	for key, val := range fields {
		switch key {
		case "id":
			snap.Meta.ID = val.Value
		case "diff_source_type":
			snap.Meta.SourceType = val.Value
		case "diff_source_ref":
			snap.Meta.SourceRef = scalarString(val)
		case "source_description":
			snap.Meta.SourceDescription = scalarString(val)
		case "notes":
			snap.Meta.Notes = scalarString(val)
		case "created_at":
			snap.Meta.CreatedAt = parseTime(val, now)
		case "updated_at":
			snap.Meta.UpdatedAt = parseTime(val, now)
		case "files":
			files, err := decodeFiles(val)
			if err != nil {
				return err
			}
			snap.Files = files
		default:
			v, err := anyValue(val)
			if err != nil {
				return fmt.Errorf("field %q: %w", key, err)
			}
			if snap.Extra == nil {
				snap.Extra = map[string]any{}
			}
			snap.Extra[key] = v
		}
	}
	if snap.Meta.ID == "" {
		snap.Meta.ID = uuid.NewString()
	}
	if snap.Meta.CreatedAt.IsZero() {
		snap.Meta.CreatedAt = now
	}
	if snap.Meta.UpdatedAt.IsZero() {
		snap.Meta.UpdatedAt = snap.Meta.CreatedAt
	}
	return nil
}

func decodeFiles(node *yaml.Node) ([]FileSnapshot, error) {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("files section is not a mapping")
	}

	var out []FileSnapshot
	for i := 0; i+1 < len(node.Content); i += 2 {
		path := node.Content[i].Value
		fs, err := decodeFile(path, node.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("file %q: %w", path, err)
		}
		out = append(out, fs)
	}
	return out, nil
}

func decodeFile(path string, node *yaml.Node) (FileSnapshot, error) {
	fs := FileSnapshot{Path: path}

	fields := mappingFields(node)
	if fields == nil {
		return fs, fmt.Errorf("file entry is not a mapping")
	}
	for key, val := range fields {
		switch key {
		case "file_path":
			// Redundant with the mapping key; the key wins.
		case "reviewed":
			if err := val.Decode(&fs.Reviewed); err != nil {
				return fs, fmt.Errorf("reviewed: %w", err)
			}
		case "comments":
			comments, err := decodeComments(path, val)
			if err != nil {
				return fs, err
			}
			fs.Comments = comments
		default:
			v, err := anyValue(val)
			if err != nil {
				return fs, fmt.Errorf("field %q: %w", key, err)
			}
			if fs.Extra == nil {
				fs.Extra = map[string]any{}
			}
			fs.Extra[key] = v
		}
	}
	return fs, nil
}

func decodeComments(path string, node *yaml.Node) ([]review.Comment, error) {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("comments section is not a list")
	}

	var out []review.Comment
	for i, item := range node.Content {
		c, err := decodeComment(path, item)
		if err != nil {
			return nil, fmt.Errorf("comment %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// decodeComment tolerates the fields an agent omits when appending a
// new comment by hand: missing id, author, and timestamps get defaults.
func decodeComment(path string, node *yaml.Node) (review.Comment, error) {
	c := review.Comment{FilePath: path, Author: "human"}

	fields := mappingFields(node)
	if fields == nil {
		return c, fmt.Errorf("not a mapping")
	}
	for key, val := range fields {
		switch key {
		case "id":
			c.ID = val.Value
		case "author":
			c.Author = val.Value
		case "category":
			c.Category = review.Category(val.Value)
		case "content":
			c.Content = val.Value
		case "file_path":
			if s := scalarString(val); s != "" {
				c.FilePath = s
			}
		case "line_no":
			n, err := intValue(val)
			if err != nil {
				return c, fmt.Errorf("line_no: %w", err)
			}
			c.LineNo = n
		case "line_no_end":
			n, err := intValue(val)
			if err != nil {
				return c, fmt.Errorf("line_no_end: %w", err)
			}
			c.LineEndNo = n
		case "is_deleted_line":
			if err := val.Decode(&c.OnRemovedLine); err != nil {
				return c, fmt.Errorf("is_deleted_line: %w", err)
			}
		case "context":
			c.Context = scalarString(val)
		case "llm_response":
			c.Response = scalarString(val)
		case "responded_at":
			if val.Tag != "!!null" {
				ts := parseTime(val, time.Now())
				c.RespondedAt = &ts
			}
		case "created_at":
			c.CreatedAt = parseTime(val, time.Time{})
		case "updated_at":
			c.UpdatedAt = parseTime(val, time.Time{})
		default:
			v, err := anyValue(val)
			if err != nil {
				return c, fmt.Errorf("field %q: %w", key, err)
			}
			if c.Extra == nil {
				c.Extra = map[string]any{}
			}
			c.Extra[key] = v
		}
	}

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	return c, nil
}

func sessionNode(snap *Snapshot) *yaml.Node {
	files := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range snap.Files {
		files.Content = append(files.Content, strNode(f.Path), fileNode(f))
	}

	pairs := []any{
		"id", strNode(snap.Meta.ID),
		"diff_source_type", strNode(snap.Meta.SourceType),
		"diff_source_ref", optStrNode(snap.Meta.SourceRef),
	}
	if snap.Meta.SourceDescription != "" {
		pairs = append(pairs, "source_description", strNode(snap.Meta.SourceDescription))
	}
	pairs = append(pairs,
		"created_at", timeNode(snap.Meta.CreatedAt),
		"updated_at", timeNode(snap.Meta.UpdatedAt),
		"notes", strNode(snap.Meta.Notes),
		"files", files,
	)
	node := mapping(pairs...)
	appendExtra(node, snap.Extra)
	return node
}

func fileNode(f FileSnapshot) *yaml.Node {
	comments := &yaml.Node{Kind: yaml.SequenceNode}
	for _, c := range f.Comments {
		comments.Content = append(comments.Content, commentNode(c))
	}

	node := mapping(
		"file_path", strNode(f.Path),
		"reviewed", boolNode(f.Reviewed),
		"comments", comments,
	)
	appendExtra(node, f.Extra)
	return node
}

func commentNode(c review.Comment) *yaml.Node {
	node := mapping(
		"id", strNode(c.ID),
		"author", strNode(c.Author),
		"category", strNode(string(c.Category)),
		"content", textNode(c.Content),
		"file_path", strNode(c.FilePath),
		"line_no", optIntNode(c.LineNo),
		"line_no_end", optIntNode(c.LineEndNo),
		"is_deleted_line", boolNode(c.OnRemovedLine),
		"created_at", timeNode(c.CreatedAt),
		"updated_at", timeNode(c.UpdatedAt),
		"context", optTextNode(c.Context),
		"llm_response", optTextNode(c.Response),
	)
	if c.RespondedAt != nil {
		node.Content = append(node.Content, strNode("responded_at"), timeNode(*c.RespondedAt))
	}
	appendExtra(node, c.Extra)
	return node
}

// mappingFields returns the key/value pairs of a mapping node, or nil
// when the node is not a mapping.
func mappingFields(node *yaml.Node) map[string]*yaml.Node {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil
	}
	out := make(map[string]*yaml.Node, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		out[node.Content[i].Value] = node.Content[i+1]
	}
	return out
}

func scalarString(node *yaml.Node) string {
	if node.Tag == "!!null" {
		return ""
	}
	return node.Value
}

func intValue(node *yaml.Node) (*int, error) {
	if node.Tag == "!!null" || node.Value == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(node.Value)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func anyValue(node *yaml.Node) (any, error) {
	var v any
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func parseTime(node *yaml.Node, fallback time.Time) time.Time {
	if node.Tag == "!!null" || node.Value == "" {
		return fallback
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, node.Value); err == nil {
			return t
		}
	}
	return fallback
}

func mapping(pairs ...any) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for i := 0; i+1 < len(pairs); i += 2 {
		node.Content = append(node.Content, strNode(pairs[i].(string)), pairs[i+1].(*yaml.Node))
	}
	return node
}

func appendExtra(node *yaml.Node, extra map[string]any) {
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var v yaml.Node
		if err := v.Encode(extra[k]); err != nil {
			continue
		}
		node.Content = append(node.Content, strNode(k), &v)
	}
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// textNode renders multiline strings in literal block style so the file
// stays readable in an editor.
func textNode(s string) *yaml.Node {
	n := strNode(s)
	if strings.Contains(s, "\n") {
		n.Style = yaml.LiteralStyle
	}
	return n
}

func literalNode(s string) *yaml.Node {
	n := strNode(s)
	n.Style = yaml.LiteralStyle
	return n
}

func optStrNode(s string) *yaml.Node {
	if s == "" {
		return nullNode()
	}
	return strNode(s)
}

func optTextNode(s string) *yaml.Node {
	if s == "" {
		return nullNode()
	}
	return textNode(s)
}

func optIntNode(n *int) *yaml.Node {
	if n == nil {
		return nullNode()
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(*n)}
}

func boolNode(b bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(b)}
}

func nullNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

func timeNode(t time.Time) *yaml.Node {
	return strNode(t.Format(time.RFC3339Nano))
}
