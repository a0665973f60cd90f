package core

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/store"
)

// Directory is the durable set of all known usernames and the group
// membership map. Every mutation persists a snapshot through the
// backing store before it becomes visible to readers, so the durable
// state is never behind the in-memory state.
type Directory struct {
	mu     sync.RWMutex
	users  map[string]struct{}
	groups map[string]map[string]struct{}

	store  store.RegistryStore
	logger zerolog.Logger
}

// NewDirectory loads the persisted registry state.
func NewDirectory(ctx context.Context, st store.RegistryStore, logger zerolog.Logger) (*Directory, error) {
	snap, err := st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}

	d := &Directory{
		users:  make(map[string]struct{}, len(snap.Users)),
		groups: make(map[string]map[string]struct{}, len(snap.Groups)),
		store:  st,
		logger: logger.With().Str("component", "directory").Logger(),
	}
	for _, u := range snap.Users {
		d.users[u] = struct{}{}
	}
	for name, members := range snap.Groups {
		set := make(map[string]struct{}, len(members))
		for _, m := range members {
			set[m] = struct{}{}
		}
		d.groups[name] = set
	}

	d.logger.Info().Int("users", len(d.users)).Int("groups", len(d.groups)).Msg("registry loaded")
	return d, nil
}

// RegisterIfNew adds a username to the durable registry. Registering a
// known user is a no-op.
func (d *Directory) RegisterIfNew(ctx context.Context, username string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.users[username]; ok {
		return nil
	}
	// Persist before committing so readers never see a user the store
	// does not know about.
	users := d.userListLocked()
	users = append(users, username)
	sort.Strings(users)
	if err := d.store.SaveUsers(ctx, users); err != nil {
		return fmt.Errorf("persist users: %w", err)
	}
	d.users[username] = struct{}{}
	d.logger.Info().Str("user", username).Msg("user registered")
	return nil
}

// CreateGroup creates a group, optionally adding the creator as its
// first member. Creating an existing group is a no-op apart from the
// creator join.
func (d *Directory) CreateGroup(ctx context.Context, name, creator string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	members, exists := d.groups[name]
	if exists && (creator == "" || containsMember(members, creator)) {
		return nil
	}

	next := cloneGroupsLocked(d.groups)
	if _, ok := next[name]; !ok {
		next[name] = make(map[string]struct{})
	}
	if creator != "" {
		next[name][creator] = struct{}{}
	}
	if err := d.store.SaveGroups(ctx, flattenGroups(next)); err != nil {
		return fmt.Errorf("persist groups: %w", err)
	}
	d.groups = next
	d.logger.Info().Str("group", name).Str("creator", creator).Msg("group created")
	return nil
}

// AddMember adds a user to a group, creating the group if needed.
// Adding an existing member is a no-op.
func (d *Directory) AddMember(ctx context.Context, group, username string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if members, ok := d.groups[group]; ok && containsMember(members, username) {
		return nil
	}

	next := cloneGroupsLocked(d.groups)
	if _, ok := next[group]; !ok {
		next[group] = make(map[string]struct{})
	}
	next[group][username] = struct{}{}
	if err := d.store.SaveGroups(ctx, flattenGroups(next)); err != nil {
		return fmt.Errorf("persist groups: %w", err)
	}
	d.groups = next
	d.logger.Info().Str("group", group).Str("user", username).Msg("member added")
	return nil
}

// MembersOf returns a sorted snapshot of the group's members, empty if
// the group is unknown.
func (d *Directory) MembersOf(group string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	members, ok := d.groups[group]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(members))
	for m := range members {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// GroupsOf returns the sorted list of groups the user belongs to.
func (d *Directory) GroupsOf(username string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []string
	for name, members := range d.groups {
		if containsMember(members, username) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Groups returns the sorted list of all group names.
func (d *Directory) Groups() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]string, 0, len(d.groups))
	for name := range d.groups {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Users returns the sorted list of all known usernames.
func (d *Directory) Users() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := d.userListLocked()
	sort.Strings(out)
	return out
}

// Knows reports whether a username has ever been registered.
func (d *Directory) Knows(username string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.users[username]
	return ok
}

func (d *Directory) userListLocked() []string {
	out := make([]string, 0, len(d.users))
	for u := range d.users {
		out = append(out, u)
	}
	return out
}

func containsMember(set map[string]struct{}, member string) bool {
	_, ok := set[member]
	return ok
}

func cloneGroupsLocked(groups map[string]map[string]struct{}) map[string]map[string]struct{} {
	next := make(map[string]map[string]struct{}, len(groups))
	for name, members := range groups {
		set := make(map[string]struct{}, len(members))
		for m := range members {
			set[m] = struct{}{}
		}
		next[name] = set
	}
	return next
}

func flattenGroups(groups map[string]map[string]struct{}) map[string][]string {
	out := make(map[string][]string, len(groups))
	for name, members := range groups {
		list := make([]string, 0, len(members))
		for m := range members {
			list = append(list, m)
		}
		sort.Strings(list)
		out[name] = list
	}
	return out
}
