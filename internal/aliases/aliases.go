// Package aliases maps free-text display names to stable participant ids,
// scoped per guild. The reconciliation engine uses the reverse index to
// turn names an actor produced back into ids.
package aliases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ykitano/splitbot/internal/store"
)

var ErrNotFound = errors.New("aliases: no alias for that name")

const root = "aliases"

type Directory struct {
	store store.Store
}

func New(st store.Store) *Directory {
	return &Directory{store: st}
}

func aliasPath(guildID, participantID string) string {
	return store.Join(root, guildID, participantID)
}

// Set upserts the participant's display name for the guild. One alias per
// participant; last write wins.
func (d *Directory) Set(ctx context.Context, guildID, participantID, name string) error {
	value, err := json.Marshal(name)
	if err != nil {
		return err
	}
	return d.store.Set(ctx, aliasPath(guildID, participantID), value)
}

// Resolve returns the guild's full name→participant reverse index. An
// empty directory yields an empty map, not an error; callers fall back to
// placeholder identities for unresolved names.
func (d *Directory) Resolve(ctx context.Context, guildID string) (map[string]string, error) {
	nodes, err := d.store.List(ctx, store.Join(root, guildID))
	if err != nil {
		return nil, err
	}

	index := make(map[string]string, len(nodes))
	for path, value := range nodes {
		var name string
		if err := json.Unmarshal(value, &name); err != nil {
			return nil, fmt.Errorf("corrupt alias node %s: %w", path, err)
		}
		participantID := path[strings.LastIndex(path, "/")+1:]
		index[name] = participantID
	}
	return index, nil
}

// LookupByName finds the participant behind a display name.
func (d *Directory) LookupByName(ctx context.Context, guildID, name string) (string, error) {
	index, err := d.Resolve(ctx, guildID)
	if err != nil {
		return "", err
	}
	participantID, ok := index[name]
	if !ok {
		return "", ErrNotFound
	}
	return participantID, nil
}
