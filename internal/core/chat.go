package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/metrics"
	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/models"
	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/store"
)

// Chat orchestrates login/logout, message routing, group administration
// and call-signaling relay over the presence registry, the directory,
// the pending queue and the history store.
//
// A send persists its history record before any delivery is attempted:
// history is the source of truth even when the live push fails. The
// return value reflects only whether the send was accepted (persisted),
// never whether live delivery happened.
type Chat struct {
	presence   *Presence
	directory  *Directory
	queue      Queue
	dispatcher *Dispatcher
	history    store.HistoryStore
	logger     zerolog.Logger

	// Blob references already pushed to a user live or by a previous
	// replay in this process. Consulted on reconnect so the same voice
	// note is never replayed twice. In-memory only: lost on restart,
	// which the durability model allows.
	deliveredMu sync.Mutex
	delivered   map[string]map[string]struct{}
}

// New wires the chat core over its collaborators.
func New(presence *Presence, directory *Directory, queue Queue, dispatcher *Dispatcher, history store.HistoryStore, logger zerolog.Logger) *Chat {
	return &Chat{
		presence:   presence,
		directory:  directory,
		queue:      queue,
		dispatcher: dispatcher,
		history:    history,
		logger:     logger.With().Str("component", "chat").Logger(),
		delivered:  make(map[string]map[string]struct{}),
	}
}

// Login registers the username if it is new, binds the push channel
// (replacing any previous one in place) and replays voice notes the
// user has not yet received live. Any string is accepted as a username
// apart from the empty one.
func (c *Chat) Login(ctx context.Context, username string, ch PushChannel) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if err := c.directory.RegisterIfNew(ctx, username); err != nil {
		return fmt.Errorf("register %s: %w", username, err)
	}
	c.presence.Login(username, ch)
	c.replayVoiceNotes(ctx, username)
	return nil
}

// Logout removes the user's session and reports whether one existed.
func (c *Chat) Logout(ctx context.Context, username string) bool {
	return c.presence.Logout(username)
}

// Disconnect is the transport hook for a closed connection. When ch is
// non-nil the session is only torn down if it still owns that exact
// channel, so a stale connection closing after a re-login cannot log
// out the fresh session. Cleanup goes through Logout: disconnect and
// explicit logout converge on the same path.
func (c *Chat) Disconnect(ctx context.Context, username string, ch PushChannel) {
	sess, ok := c.presence.Resolve(username)
	if !ok {
		return
	}
	if ch != nil && sess.Channel() != ch {
		return
	}
	c.Logout(ctx, username)
}

// SendDirect persists a direct text message to both users' logs and
// notifies the recipient, queueing when live delivery cannot be
// confirmed. Unknown recipients are registered rather than rejected.
func (c *Chat) SendDirect(ctx context.Context, from, to, body string) error {
	if err := c.registerParties(ctx, from, to); err != nil {
		return err
	}

	rec := models.NewTextRecord(from, to, false, body)
	if err := c.persistRecord(ctx, rec, from, to); err != nil {
		return err
	}
	metrics.MessagesSent.WithLabelValues("direct").Inc()

	c.dispatcher.NotifyUser(ctx, to, models.NewDirectMessage(from, body))
	return nil
}

// SendGroup persists a group text message to the sender's and the
// group's logs, then fans it out to the member snapshot excluding the
// sender. Unknown groups are created implicitly.
func (c *Chat) SendGroup(ctx context.Context, from, group, body string) error {
	if err := c.directory.RegisterIfNew(ctx, from); err != nil {
		return fmt.Errorf("register %s: %w", from, err)
	}
	if err := c.directory.CreateGroup(ctx, group, ""); err != nil {
		return fmt.Errorf("ensure group %s: %w", group, err)
	}

	rec := models.NewTextRecord(from, group, true, body)
	if err := c.persistRecord(ctx, rec, from, store.GroupKey(group)); err != nil {
		return err
	}
	metrics.MessagesSent.WithLabelValues("group").Inc()

	c.dispatcher.NotifyGroup(ctx, group, from, models.NewGroupMessage(group, from, body))
	return nil
}

// SendVoiceDirect stores the audio payload first, assigning it a stable
// blob reference, persists the referencing record, then pushes the raw
// bytes for immediate playback. Replay-on-reconnect later uses the
// reference to re-read the payload.
func (c *Chat) SendVoiceDirect(ctx context.Context, from, to string, audio []byte) error {
	if err := c.registerParties(ctx, from, to); err != nil {
		return err
	}

	ref, err := c.history.WriteBlob(ctx, audio)
	if err != nil {
		return fmt.Errorf("store voice note: %w", err)
	}
	rec := models.NewVoiceRecord(from, to, false, ref)
	if err := c.persistRecord(ctx, rec, from, to); err != nil {
		return err
	}
	metrics.MessagesSent.WithLabelValues("voice_direct").Inc()

	ev := models.NewVoiceNote(from, to, false, ref, audio)
	if c.dispatcher.NotifyUser(ctx, to, ev) == Delivered {
		c.markDelivered(to, ref)
	}
	return nil
}

// SendVoiceGroup stores the blob once and fans the bytes out to the
// member snapshot, tracking which members saw it live so replay can
// skip them.
func (c *Chat) SendVoiceGroup(ctx context.Context, from, group string, audio []byte) error {
	if err := c.directory.RegisterIfNew(ctx, from); err != nil {
		return fmt.Errorf("register %s: %w", from, err)
	}
	if err := c.directory.CreateGroup(ctx, group, ""); err != nil {
		return fmt.Errorf("ensure group %s: %w", group, err)
	}

	ref, err := c.history.WriteBlob(ctx, audio)
	if err != nil {
		return fmt.Errorf("store voice note: %w", err)
	}
	rec := models.NewVoiceRecord(from, group, true, ref)
	if err := c.persistRecord(ctx, rec, from, store.GroupKey(group)); err != nil {
		return err
	}
	metrics.MessagesSent.WithLabelValues("voice_group").Inc()

	ev := models.NewVoiceNote(from, group, true, ref, audio)
	c.dispatcher.NotifyMembers(ctx, c.directory.MembersOf(group), from, ev, func(member string, out Outcome) {
		if out == Delivered {
			c.markDelivered(member, ref)
		}
	})
	return nil
}

// PollPending returns and clears the user's pending backlog in
// insertion order.
func (c *Chat) PollPending(ctx context.Context, username string) ([]models.Event, error) {
	events, err := c.queue.Drain(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("drain pending for %s: %w", username, err)
	}
	return events, nil
}

// CreateGroup creates a group with an optional creator member.
// Recreating an existing group is a no-op, not an error.
func (c *Chat) CreateGroup(ctx context.Context, name, creator string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("group name is required")
	}
	if creator != "" {
		if err := c.directory.RegisterIfNew(ctx, creator); err != nil {
			return fmt.Errorf("register %s: %w", creator, err)
		}
	}
	return c.directory.CreateGroup(ctx, name, creator)
}

// AddMember adds a user to a group (idempotent, auto-creating) and
// notifies the group's current members best-effort.
func (c *Chat) AddMember(ctx context.Context, group, username string) error {
	if err := c.directory.RegisterIfNew(ctx, username); err != nil {
		return fmt.Errorf("register %s: %w", username, err)
	}
	if err := c.directory.AddMember(ctx, group, username); err != nil {
		return err
	}

	ev := models.NewMemberAdded(group, username)
	c.dispatcher.NotifyMembers(ctx, c.directory.MembersOf(group), "", ev, nil)
	return nil
}

// ListOnline returns users with a live session.
func (c *Chat) ListOnline() []string {
	return c.presence.Online()
}

// ListAllWithStatus returns every known user with its presence flag.
func (c *Chat) ListAllWithStatus() []models.UserStatus {
	users := c.directory.Users()
	out := make([]models.UserStatus, 0, len(users))
	for _, u := range users {
		out = append(out, models.UserStatus{Username: u, Online: c.presence.IsOnline(u)})
	}
	return out
}

// GroupsOf returns the groups a user belongs to.
func (c *Chat) GroupsOf(username string) []string {
	return c.directory.GroupsOf(username)
}

// MembersOf returns a group's member snapshot.
func (c *Chat) MembersOf(group string) []string {
	return c.directory.MembersOf(group)
}

// Groups returns all known group names.
func (c *Chat) Groups() []string {
	return c.directory.Groups()
}

// History merges the user's direct log with the logs of every group the
// user belongs to, ordered by timestamp.
func (c *Chat) History(ctx context.Context, username string) ([]models.HistoryRecord, error) {
	records, err := c.history.ReadLog(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("read history for %s: %w", username, err)
	}
	for _, group := range c.directory.GroupsOf(username) {
		groupRecords, err := c.history.ReadLog(ctx, store.GroupKey(group))
		if err != nil {
			return nil, fmt.Errorf("read history for group %s: %w", group, err)
		}
		records = append(records, groupRecords...)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp < records[j].Timestamp
	})
	return records, nil
}

// replayVoiceNotes pushes voice notes found in the user's history that
// were never confirmed delivered live. Records are deduplicated by blob
// reference: a note present in both the direct log and a group log is
// pushed once. Replay is best-effort; failures leave the note eligible
// for the next reconnect.
func (c *Chat) replayVoiceNotes(ctx context.Context, username string) {
	records, err := c.History(ctx, username)
	if err != nil {
		c.logger.Error().Err(err).Str("user", username).Msg("voice replay: history read failed")
		return
	}

	seen := make(map[string]struct{})
	for _, rec := range records {
		if rec.Type != models.RecordVoiceNote || rec.BlobRef == "" {
			continue
		}
		if rec.From == username {
			continue
		}
		if _, dup := seen[rec.BlobRef]; dup {
			continue
		}
		seen[rec.BlobRef] = struct{}{}
		if c.wasDelivered(username, rec.BlobRef) {
			continue
		}

		audio, err := c.history.ReadBlob(ctx, rec.BlobRef)
		if err != nil {
			c.logger.Warn().Err(err).Str("ref", rec.BlobRef).Msg("voice replay: blob read failed")
			continue
		}
		ev := models.NewVoiceNote(rec.From, rec.Target, rec.IsGroup, rec.BlobRef, audio)
		if c.dispatcher.NotifyUser(ctx, username, ev) == Delivered {
			c.markDelivered(username, rec.BlobRef)
			metrics.VoiceReplays.Inc()
		}
	}
}

func (c *Chat) registerParties(ctx context.Context, users ...string) error {
	for _, u := range users {
		if err := c.directory.RegisterIfNew(ctx, u); err != nil {
			return fmt.Errorf("register %s: %w", u, err)
		}
	}
	return nil
}

// persistRecord appends the record to each identity's log. Persistence
// is the acceptance criterion: any failure rejects the whole send.
func (c *Chat) persistRecord(ctx context.Context, rec models.HistoryRecord, identities ...string) error {
	for _, id := range identities {
		if err := c.history.AppendRecord(ctx, id, rec); err != nil {
			return fmt.Errorf("persist history for %s: %w", id, err)
		}
	}
	return nil
}

func (c *Chat) markDelivered(username, ref string) {
	c.deliveredMu.Lock()
	defer c.deliveredMu.Unlock()
	set, ok := c.delivered[username]
	if !ok {
		set = make(map[string]struct{})
		c.delivered[username] = set
	}
	set[ref] = struct{}{}
}

func (c *Chat) wasDelivered(username, ref string) bool {
	c.deliveredMu.Lock()
	defer c.deliveredMu.Unlock()
	_, ok := c.delivered[username][ref]
	return ok
}
