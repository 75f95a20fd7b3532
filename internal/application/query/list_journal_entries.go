package query

import (
	"context"
	"fmt"

	"github.com/lifequest/lifequest-hub/internal/domain/journal"
	"github.com/lifequest/lifequest-hub/internal/domain/shared"
)

// ListJournalEntriesQuery identifies the character and page size.
type ListJournalEntriesQuery struct {
	CharacterID string

	// Limit - maximum rows to return; non-positive falls back to 20.
	Limit int
}

// ListJournalEntriesHandler handles the ListJournalEntriesQuery.
type ListJournalEntriesHandler struct {
	journalRepo journal.Repository
}

// NewListJournalEntriesHandler creates a new ListJournalEntriesHandler.
func NewListJournalEntriesHandler(journalRepo journal.Repository) *ListJournalEntriesHandler {
	return &ListJournalEntriesHandler{journalRepo: journalRepo}
}

// Handle lists the entries, newest first.
func (h *ListJournalEntriesHandler) Handle(ctx context.Context, q ListJournalEntriesQuery) ([]EntryView, error) {
	characterID, err := shared.NewCharacterID(q.CharacterID)
	if err != nil {
		return nil, fmt.Errorf("list_journal_entries: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	entries, err := h.journalRepo.ListByCharacter(ctx, characterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list_journal_entries: failed to list entries: %w", err)
	}

	views := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, NewEntryView(e))
	}
	return views, nil
}
