package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ErrNoSession is returned by ReadSession when the tape was never stamped.
var ErrNoSession = errors.New("tape has no session metadata")

// Session describes how a tape was recorded: the seeds and timing needed to
// rebuild the same ledger from it.
type Session struct {
	ID         uuid.UUID
	LedgerSeed uint64
	FeedSeed   uint64
	StartedAt  time.Time
	ClearDelay time.Duration
}

// NewSession stamps a fresh session id.
func NewSession(ledgerSeed, feedSeed uint64, clearDelay time.Duration, startedAt time.Time) Session {
	return Session{
		ID:         uuid.New(),
		LedgerSeed: ledgerSeed,
		FeedSeed:   feedSeed,
		StartedAt:  startedAt,
		ClearDelay: clearDelay,
	}
}

// WriteSession stores s in the metadata table.
func (s *EventStore) WriteSession(ctx context.Context, sess Session) error {
	ts := sess.StartedAt.UnixMicro()
	kv := [][2]string{
		{MetaSession, sess.ID.String()},
		{MetaLedgerSeed, strconv.FormatUint(sess.LedgerSeed, 10)},
		{MetaFeedSeed, strconv.FormatUint(sess.FeedSeed, 10)},
		{MetaStartedAt, strconv.FormatInt(ts, 10)},
		{MetaClearDelay, strconv.FormatInt(sess.ClearDelay.Milliseconds(), 10)},
	}
	for _, e := range kv {
		if err := s.UpsertMetadata(ctx, e[0], e[1], ts); err != nil {
			return err
		}
	}
	return nil
}

// ReadSession loads the session written by WriteSession.
func (s *EventStore) ReadSession(ctx context.Context) (Session, error) {
	get := func(key string) (string, error) {
		v, err := s.GetMetadata(ctx, key)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", key, err)
		}
		return v, nil
	}

	id, err := get(MetaSession)
	if err != nil {
		return Session{}, err
	}
	if id == "" {
		return Session{}, ErrNoSession
	}

	var sess Session
	if sess.ID, err = uuid.Parse(id); err != nil {
		return Session{}, fmt.Errorf("bad %s %q: %w", MetaSession, id, err)
	}

	fields := []struct {
		key string
		set func(string) error
	}{
		{MetaLedgerSeed, func(v string) (err error) { sess.LedgerSeed, err = strconv.ParseUint(v, 10, 64); return }},
		{MetaFeedSeed, func(v string) (err error) { sess.FeedSeed, err = strconv.ParseUint(v, 10, 64); return }},
		{MetaStartedAt, func(v string) error {
			us, err := strconv.ParseInt(v, 10, 64)
			sess.StartedAt = time.UnixMicro(us).UTC()
			return err
		}},
		{MetaClearDelay, func(v string) error {
			ms, err := strconv.ParseInt(v, 10, 64)
			sess.ClearDelay = time.Duration(ms) * time.Millisecond
			return err
		}},
	}
	for _, f := range fields {
		v, err := get(f.key)
		if err != nil {
			return Session{}, err
		}
		if err := f.set(v); err != nil {
			return Session{}, fmt.Errorf("bad %s %q: %w", f.key, v, err)
		}
	}
	return sess, nil
}
