package store

import (
	"context"

	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/models"
)

// RegistrySnapshot is the full durable state of the directory: every
// username ever seen and the group membership map.
type RegistrySnapshot struct {
	Users  []string
	Groups map[string][]string
}

// RegistryStore persists directory snapshots. FileStore is the default
// backend; PostgresRegistry is the interchangeable SQL alternative.
type RegistryStore interface {
	Load(ctx context.Context) (RegistrySnapshot, error)
	SaveUsers(ctx context.Context, users []string) error
	SaveGroups(ctx context.Context, groups map[string][]string) error
	Close()
}

// HistoryStore persists per-identity append-only history logs and
// voice-note blobs. Identities are usernames or group keys (see
// GroupKey).
type HistoryStore interface {
	AppendRecord(ctx context.Context, identity string, rec models.HistoryRecord) error
	ReadLog(ctx context.Context, identity string) ([]models.HistoryRecord, error)
	WriteBlob(ctx context.Context, data []byte) (string, error)
	ReadBlob(ctx context.Context, ref string) ([]byte, error)
}

// GroupKey returns the history log identity for a group, kept distinct
// from user identities so a group named like a user cannot collide.
func GroupKey(group string) string {
	return "#" + group
}
