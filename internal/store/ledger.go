// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// ledger.go keeps per-user token balances. Each user spends from the most
// recent active subscription; every deduction is recorded in
// token_transactions with the balance left after it.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoSubscription means the user has no active, unexpired subscription.
	ErrNoSubscription = errors.New("store: no active subscription")

	// ErrInsufficientBalance means the subscription has fewer tokens than
	// the amount requested. Nothing is deducted.
	ErrInsufficientBalance = errors.New("store: insufficient tokens")
)

// Ledger handles token balance operations.
type Ledger struct {
	db *sql.DB
}

// NewLedger creates a new Ledger.
func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// activeFilter selects the user's current subscription ($1 = user id).
const activeFilter = `
	FROM user_subscriptions
	WHERE user_id = $1 AND status = 'active' AND (end_date IS NULL OR end_date > NOW())
	ORDER BY created_at DESC, id DESC
	LIMIT 1`

const activeSubscription = `SELECT id, tokens_remaining` + activeFilter

// Deduct subtracts amount tokens from the user's active subscription.
// The row is locked for the duration of the transaction so concurrent
// deductions cannot overdraw it.
func (l *Ledger) Deduct(ctx context.Context, userID string, amount int, reason string) error {
	if amount <= 0 {
		return fmt.Errorf("deduct tokens: amount must be positive, got %d", amount)
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var (
		subID     int64
		remaining int
	)
	err = tx.QueryRowContext(ctx, activeSubscription+" FOR UPDATE", userID).Scan(&subID, &remaining)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoSubscription
	}
	if err != nil {
		return fmt.Errorf("find subscription: %w", err)
	}
	if remaining < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, remaining, amount)
	}

	balance := remaining - amount
	_, err = tx.ExecContext(ctx, `
		UPDATE user_subscriptions
		SET tokens_remaining = $1, tokens_used = tokens_used + $2
		WHERE id = $3
	`, balance, amount, subID)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}

	if reason == "" {
		reason = "API call"
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO token_transactions (subscription_id, amount, reason, balance_after)
		VALUES ($1, $2, $3, $4)
	`, subID, amount, reason, balance)
	if err != nil {
		return fmt.Errorf("record transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit deduction: %w", err)
	}
	return nil
}

// Balance returns the tokens left on the user's active subscription.
func (l *Ledger) Balance(ctx context.Context, userID string) (int, error) {
	var (
		subID     int64
		remaining int
	)
	err := l.db.QueryRowContext(ctx, activeSubscription, userID).Scan(&subID, &remaining)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNoSubscription
	}
	if err != nil {
		return 0, fmt.Errorf("find subscription: %w", err)
	}
	return remaining, nil
}

// Grant adds tokens to the user's active subscription, or opens a new one
// valid for the given duration (zero means no expiry).
func (l *Ledger) Grant(ctx context.Context, userID string, tokens int, valid time.Duration) error {
	if tokens <= 0 {
		return fmt.Errorf("grant tokens: amount must be positive, got %d", tokens)
	}

	var end sql.NullTime
	if valid > 0 {
		end = sql.NullTime{Time: time.Now().Add(valid), Valid: true}
	}

	res, err := l.db.ExecContext(ctx, `
		UPDATE user_subscriptions
		SET tokens_remaining = tokens_remaining + $2,
			end_date = CASE
				WHEN end_date IS NULL OR $3::timestamptz IS NULL THEN end_date
				ELSE GREATEST(end_date, $3::timestamptz)
			END
		WHERE id = (SELECT id`+activeFilter+`)
	`, userID, tokens, end)
	if err != nil {
		return fmt.Errorf("extend subscription: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO user_subscriptions (user_id, tokens_remaining, end_date)
		VALUES ($1, $2, $3)
	`, userID, tokens, end)
	if err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}
