package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetBalance returns a user's coins. Users without a row have zero.
func (db *DB) GetBalance(ctx context.Context, userID string) (int64, error) {
	var coins int64
	err := db.conn.QueryRowContext(ctx, `SELECT coins FROM user_balances WHERE user_id = $1`, userID).Scan(&coins)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("couldn't read balance for %s: %w", userID, err)
	}
	return coins, nil
}

// AdjustCoins adds delta to a balance and returns the new value.
// A negative delta larger than the balance fails with ErrInsufficientCoins.
func (db *DB) AdjustCoins(ctx context.Context, userID string, delta int64) (int64, error) {
	var (
		coins int64
		err   error
	)
	if delta >= 0 {
		err = db.conn.QueryRowContext(ctx, `
			INSERT INTO user_balances (user_id, coins) VALUES ($1, $2)
			ON CONFLICT (user_id) DO UPDATE SET coins = user_balances.coins + EXCLUDED.coins
			RETURNING coins
		`, userID, delta).Scan(&coins)
	} else {
		err = db.conn.QueryRowContext(ctx, `
			UPDATE user_balances SET coins = coins + $2
			WHERE user_id = $1 AND coins + $2 >= 0
			RETURNING coins
		`, userID, delta).Scan(&coins)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrInsufficientCoins
		}
	}
	if err != nil {
		return 0, fmt.Errorf("couldn't adjust balance for %s: %w", userID, err)
	}
	return coins, nil
}
