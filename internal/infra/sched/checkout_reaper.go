package sched

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"edupay/internal/domain/model"
	"edupay/internal/domain/ports/repository"
	"edupay/internal/infra/metrics"
)

// CheckoutReaper periodically scans for stale created transactions and marks
// them failed. The processor never calls back for abandoned checkouts, so
// without this sweep the ledger accumulates rows stuck in "created" forever.
type CheckoutReaper struct {
	txm          repository.TransactionManager
	transactions repository.TransactionRepository
	interval     time.Duration // how often to scan
	staleAfter   time.Duration // how old a created transaction must be to reap
	log          *zerolog.Logger
}

func NewCheckoutReaper(txm repository.TransactionManager, transactions repository.TransactionRepository, interval, staleAfter time.Duration, logger *zerolog.Logger) *CheckoutReaper {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 2 * time.Hour
	}
	return &CheckoutReaper{txm: txm, transactions: transactions, interval: interval, staleAfter: staleAfter, log: logger}
}

func (w *CheckoutReaper) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *CheckoutReaper) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	var reaped []string
	err := w.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		stale, err := w.transactions.ListCreatedOlderThan(ctx, tx, cutoff, 200)
		if err != nil {
			return err
		}
		for _, t := range stale {
			// MarkFailed is itself conditional on status='created', so a
			// callback racing the sweep wins cleanly.
			if err := w.transactions.MarkFailed(ctx, tx, t.ID); err != nil {
				return err
			}
			reaped = append(reaped, t.ID)
		}
		return nil
	})
	if err != nil {
		w.log.Error().Err(err).Msg("checkout-reaper: sweep error")
		return
	}
	for _, id := range reaped {
		metrics.IncTransaction(string(model.TransactionStatusFailed))
		w.log.Info().Str("tx_id", id).Msg("checkout-reaper: reaped stale checkout")
	}
}
