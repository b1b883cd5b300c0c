// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	log, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { log.Close() })
	return log
}

func TestRecordAndRecent(t *testing.T) {
	log := openTestLog(t)

	entries := []Entry{
		{ChatbotName: "helper", ConversationID: "c1", PromptPreview: "first", Duration: 120 * time.Millisecond},
		{ChatbotName: "helper", ConversationID: "c1", PromptPreview: "second", Duration: 340 * time.Millisecond, Streamed: true},
		{ChatbotName: "coder", ConversationID: "c2", PromptPreview: "third", Duration: 80 * time.Millisecond},
	}
	for _, e := range entries {
		if err := log.Record(e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	recent, err := log.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("len(recent) = %d, want 3", len(recent))
	}
	if recent[0].PromptPreview != "third" || recent[2].PromptPreview != "first" {
		t.Errorf("order = [%s ... %s], want newest first", recent[0].PromptPreview, recent[2].PromptPreview)
	}
	if !recent[1].Streamed {
		t.Error("streamed flag lost on roundtrip")
	}
	if recent[1].Duration != 340*time.Millisecond {
		t.Errorf("duration = %v, want 340ms", recent[1].Duration)
	}
	if recent[0].RecordedAt.IsZero() {
		t.Error("recorded time not filled in")
	}
}

func TestRecentLimit(t *testing.T) {
	log := openTestLog(t)

	for i := 0; i < 5; i++ {
		if err := log.Record(Entry{ChatbotName: "helper", ConversationID: "c1", PromptPreview: "m"}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	recent, err := log.Recent(2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("len(recent) = %d, want 2", len(recent))
	}
}

func TestTotals(t *testing.T) {
	log := openTestLog(t)

	for i := 0; i < 3; i++ {
		if err := log.Record(Entry{ChatbotName: "helper", ConversationID: "c1"}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	if err := log.Record(Entry{ChatbotName: "coder", ConversationID: "c2"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	totals, err := log.Totals()
	if err != nil {
		t.Fatalf("Totals failed: %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("len(totals) = %d, want 2", len(totals))
	}
	if totals[0].ChatbotName != "helper" || totals[0].Exchanges != 3 {
		t.Errorf("totals[0] = %+v, want helper with 3 exchanges", totals[0])
	}
	if totals[0].LastUsed.IsZero() {
		t.Error("last used not recorded")
	}
}

func TestClear(t *testing.T) {
	log := openTestLog(t)

	if err := log.Record(Entry{ChatbotName: "helper", ConversationID: "c1"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := log.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	recent, err := log.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 0 {
		t.Errorf("len(recent) = %d after clear, want 0", len(recent))
	}
}

func TestOpenReusesExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	log, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := log.Record(Entry{ChatbotName: "helper", ConversationID: "c1"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	log.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	recent, err := reopened.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 1 {
		t.Errorf("len(recent) = %d after reopen, want 1", len(recent))
	}
}
