package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chexbridge/manual-chex-bridge/bridge"
	"github.com/lightningnetwork/lnd/clock"
)

// Transfer statuses.
const (
	StatusSubmitted = "submitted"
	StatusFailed    = "failed"
)

// ErrNoTransfers is returned when the journal holds no matching transfer.
var ErrNoTransfers = errors.New("no transfers recorded")

// TransferRecord is a journaled submission.
type TransferRecord struct {
	ID         int64
	Action     bridge.TransferAction
	Status     string
	TxID       string
	Error      string
	RecordedAt time.Time
}

// Store is the transfer journal.
type Store struct {
	db    *sql.DB
	clock clock.Clock
}

// RecordTransfer journals an action that was handed to the chain, along
// with its receipt or the chain's error.
func (s *Store) RecordTransfer(ctx context.Context,
	action *bridge.TransferAction, receipt *bridge.Receipt,
	submitErr error) error {

	status := StatusSubmitted
	var txID, errMsg sql.NullString
	switch {
	case submitErr != nil:
		status = StatusFailed
		errMsg = sql.NullString{String: submitErr.Error(), Valid: true}

	case receipt != nil:
		txID = sql.NullString{String: receipt.TransactionID, Valid: true}
	}

	// The caller's context may already be done when a submission was
	// cancelled, the record must still be written.
	ctx = context.WithoutCancel(ctx)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transfers (
			contract, from_actor, permission, to_actor, quantity,
			memo, status, tx_id, error_message, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		action.Contract, action.From, action.Permission, action.To,
		action.Quantity, action.Memo, status, txID, errMsg,
		s.clock.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("unable to insert transfer: %w", err)
	}

	return nil
}

// ListTransfers returns the journaled transfers, newest first. An empty
// actor lists every account. A non-positive limit means no limit.
func (s *Store) ListTransfers(ctx context.Context, actor string,
	limit int) ([]*TransferRecord, error) {

	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, contract, from_actor, permission, to_actor,
			quantity, memo, status, tx_id, error_message, created_at
		FROM transfers
		WHERE ? = '' OR from_actor = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, actor, actor, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to query transfers: %w", err)
	}
	defer rows.Close()

	var records []*TransferRecord
	for rows.Next() {
		var (
			rec       TransferRecord
			txID      sql.NullString
			errMsg    sql.NullString
			createdAt int64
		)
		err := rows.Scan(
			&rec.ID, &rec.Action.Contract, &rec.Action.From,
			&rec.Action.Permission, &rec.Action.To,
			&rec.Action.Quantity, &rec.Action.Memo, &rec.Status,
			&txID, &errMsg, &createdAt,
		)
		if err != nil {
			return nil, err
		}

		rec.Action.Name = bridge.TransferActionName
		rec.TxID = txID.String
		rec.Error = errMsg.String
		rec.RecordedAt = time.Unix(0, createdAt).UTC()

		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, ErrNoTransfers
	}

	return records, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
