package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tieba-server/services/messaging-api/internal/infrastructure/database/repository/messagerepo"
	"tieba-server/services/messaging-api/internal/infrastructure/database/transaction"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Recompute conversation counters",
	Long: `Recompute message_count and last_message_at of every conversation from its
non-deleted messages, and clamp negative unread counters to zero.`,
	RunE: runReconcile,
}

func runReconcile(cmd *cobra.Command, args []string) error {
	_, db, _, err := openDatabase()
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	started := time.Now()
	repo := messagerepo.NewMessageGormRepository(transaction.NewDatabase(db))
	result, err := repo.Reconcile(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("conversations corrected: %d\nparticipants corrected: %d\ntook: %s\n",
		result.Conversations, result.Participants, time.Since(started).Round(time.Millisecond))
	return nil
}
