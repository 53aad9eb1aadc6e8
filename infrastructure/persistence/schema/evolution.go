// Package schema upgrades stored project documents written by older
// clients to the current document shape.
package schema

import (
	"encoding/json"
	"fmt"
	"time"
)

// VersionField is the document key that carries the schema version
const VersionField = "schemaVersion"

// Document is a decoded JSON object
type Document map[string]interface{}

// Migration moves a document from one version to the next
type Migration struct {
	FromVersion int
	ToVersion   int
	Description string
	Up          func(doc Document) error
}

// Evolution applies registered migrations in order
type Evolution struct {
	currentVersion int
	migrations     map[int]Migration
}

// NewEvolution creates an evolution targeting currentVersion
func NewEvolution(currentVersion int) *Evolution {
	return &Evolution{
		currentVersion: currentVersion,
		migrations:     make(map[int]Migration),
	}
}

// RegisterMigration registers a single-step migration
func (e *Evolution) RegisterMigration(m Migration) error {
	if m.ToVersion != m.FromVersion+1 {
		return fmt.Errorf("invalid migration %d->%d: migrations advance one version", m.FromVersion, m.ToVersion)
	}
	if m.ToVersion > e.currentVersion {
		return fmt.Errorf("migration %d->%d is past current version %d", m.FromVersion, m.ToVersion, e.currentVersion)
	}
	if _, exists := e.migrations[m.FromVersion]; exists {
		return fmt.Errorf("migration from %d to %d already exists", m.FromVersion, m.ToVersion)
	}
	e.migrations[m.FromVersion] = m
	return nil
}

// CurrentVersion returns the version documents are upgraded to
func (e *Evolution) CurrentVersion() int {
	return e.currentVersion
}

// Upgrade migrates doc in place and returns the version it started at.
// Documents without a version are treated as version 1. Documents newer
// than the current version are rejected.
func (e *Evolution) Upgrade(doc Document) (int, error) {
	from := versionOf(doc)
	if from > e.currentVersion {
		return from, fmt.Errorf("document version %d is newer than supported version %d", from, e.currentVersion)
	}

	for v := from; v < e.currentVersion; v++ {
		m, ok := e.migrations[v]
		if !ok {
			return from, fmt.Errorf("no migration found from version %d to %d", v, v+1)
		}
		if err := m.Up(doc); err != nil {
			return from, fmt.Errorf("migration %d->%d failed: %w", m.FromVersion, m.ToVersion, err)
		}
	}
	doc[VersionField] = e.currentVersion
	return from, nil
}

// UpgradeJSON decodes raw, upgrades it and re-encodes the result
func (e *Evolution) UpgradeJSON(raw []byte) ([]byte, int, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, 0, fmt.Errorf("failed to decode document: %w", err)
	}
	if doc == nil {
		return nil, 0, fmt.Errorf("document is null")
	}
	from, err := e.Upgrade(doc)
	if err != nil {
		return nil, from, err
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, from, fmt.Errorf("failed to encode document: %w", err)
	}
	return out, from, nil
}

func versionOf(doc Document) int {
	switch v := doc[VersionField].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 1
	}
}

// ProjectVersion is the current project document version
const ProjectVersion = 2

// ProjectDocuments returns the evolution for project documents.
//
// Version 1 is the document browsers kept in local storage: the title may
// sit under "name", questions may be missing, and timestamps may be ISO
// strings instead of epoch milliseconds.
func ProjectDocuments() *Evolution {
	e := NewEvolution(ProjectVersion)
	_ = e.RegisterMigration(Migration{
		FromVersion: 1,
		ToVersion:   2,
		Description: "normalize title, questions and timestamps",
		Up:          upgradeProjectV1,
	})
	return e
}

func upgradeProjectV1(doc Document) error {
	if _, ok := doc["title"]; !ok {
		if name, ok := doc["name"].(string); ok {
			doc["title"] = name
		}
	}
	delete(doc, "name")

	questions, _ := doc["questions"].([]interface{})
	if questions == nil {
		questions = []interface{}{}
	}
	for i, raw := range questions {
		q, ok := raw.(map[string]interface{})
		if !ok {
			return fmt.Errorf("question %d is not an object", i)
		}
		if _, ok := q["answer"]; !ok {
			q["answer"] = nil
		}
		if err := normalizeMillis(q, "createdAt"); err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
	}
	doc["questions"] = questions

	for _, key := range []string{"createdAt", "updatedAt"} {
		if err := normalizeMillis(doc, key); err != nil {
			return err
		}
	}
	return nil
}

// normalizeMillis rewrites an RFC 3339 timestamp at key as epoch millis
func normalizeMillis(obj map[string]interface{}, key string) error {
	s, ok := obj[key].(string)
	if !ok {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	obj[key] = t.UnixMilli()
	return nil
}
