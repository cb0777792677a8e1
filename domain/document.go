// Package domain contains core concepts of the chat system.
// This file defines the document model exchanged with the remote store.
package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

const (
	ConversationsCollection = "conversations"
	UsersCollection         = "users"
	messagesSegment         = "messages"
)

// Document is one record of the remote store, addressed by a slash separated path.
type Document struct {
	Path   string
	ID     string
	Fields map[string]any
}

type ChangeKind int

const (
	ChangeAdded ChangeKind = iota + 1
	ChangeModified
	ChangeRemoved
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeModified:
		return "modified"
	case ChangeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

type Change struct {
	Kind ChangeKind
	Doc  Document
}

// Snapshot is one delivery of a live subscription.
// Either Err is set or Changes holds the entries of the delivery.
type Snapshot struct {
	Changes []Change
	Err     error
}

type Operator string

const (
	OpEqual          Operator = "=="
	OpGreaterOrEqual Operator = ">="
	OpLessOrEqual    Operator = "<="
)

type Filter struct {
	Field string
	Op    Operator
	Value any
}

// Query selects the direct children of a collection.
type Query struct {
	Collection string
	OrderBy    string
	Descending bool
	Filters    []Filter
}

func (q Query) Where(field string, op Operator, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Op: op, Value: value})
	return q
}

func ConversationPath(id ConversationID) string {
	return fmt.Sprintf("%s/%d", ConversationsCollection, id)
}

func MessagesCollection(id ConversationID) string {
	return fmt.Sprintf("%s/%d/%s", ConversationsCollection, id, messagesSegment)
}

func UserPath(username string) string {
	return UsersCollection + "/" + username
}

// MessagesQuery is the ordered query shared by history loads and live subscriptions.
func MessagesQuery(id ConversationID) Query {
	return Query{Collection: MessagesCollection(id), OrderBy: FieldSentAt}
}

// SplitPath returns the parent collection and the document id of a path.
func SplitPath(path string) (collection, id string, ok bool) {
	i := strings.LastIndex(path, "/")
	if i <= 0 || i == len(path)-1 {
		return "", "", false
	}
	return path[:i], path[i+1:], true
}

// StringField reads a string field. Absent, nil and non-string values report false.
func StringField(fields map[string]any, key string) (string, bool) {
	v, ok := fields[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Int64Field reads an integral number whatever its decoded representation.
func Int64Field(fields map[string]any, key string) (int64, bool) {
	v, ok := fields[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
			return 0, false
		}
		// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
		if n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}
