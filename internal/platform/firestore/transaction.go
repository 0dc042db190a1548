package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
)

const (
	txAttempts   = 3
	txMaxRuntime = 10 * time.Second
)

// TxFunc is executed within a Firestore transaction and may be retried on contention.
type TxFunc func(ctx context.Context, tx *firestore.Transaction) error

// RunTransaction runs fn with bounded retries. The caller's deadline wins when it is shorter than txMaxRuntime.
func RunTransaction(ctx context.Context, client *firestore.Client, fn TxFunc) error {
	switch {
	case client == nil:
		return WrapError("transaction", errors.New("firestore: client is nil"))
	case fn == nil:
		return WrapError("transaction", errors.New("firestore: transaction function is nil"))
	}

	if deadline, ok := ctx.Deadline(); !ok || time.Until(deadline) > txMaxRuntime {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, txMaxRuntime)
		defer cancel()
	}

	err := client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(ctx, tx)
	}, firestore.MaxAttempts(txAttempts))
	return WrapError("transaction", err)
}
