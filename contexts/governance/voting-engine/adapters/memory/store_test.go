package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"agora/contexts/governance/voting-engine/domain/entities"
	domainerrors "agora/contexts/governance/voting-engine/domain/errors"
)

func TestArenaSlotsAreOneIndexed(t *testing.T) {
	ctx := context.Background()
	store := NewStore(entities.QuorumConfig{MinQuorumPct: 500_000})

	first, err := store.CreateSlot(ctx)
	if err != nil || first != 1 {
		t.Fatalf("expected first slot 1, got %d %v", first, err)
	}
	second, err := store.CreateSlot(ctx)
	if err != nil || second != 2 {
		t.Fatalf("expected second slot 2, got %d %v", second, err)
	}

	if _, err := store.GetProposal(ctx, 0); !errors.Is(err, domainerrors.ErrProposalNotFound) {
		t.Fatalf("expected id 0 to be not found, got %v", err)
	}
	if _, err := store.GetProposal(ctx, 3); !errors.Is(err, domainerrors.ErrProposalNotFound) {
		t.Fatalf("expected id beyond arena to be not found, got %v", err)
	}
	if err := store.SaveProposal(ctx, entities.Proposal{ID: 3}); !errors.Is(err, domainerrors.ErrProposalNotFound) {
		t.Fatalf("expected save beyond arena to fail, got %v", err)
	}
}

func TestGetProposalReturnsDetachedCopy(t *testing.T) {
	ctx := context.Background()
	store := NewStore(entities.QuorumConfig{MinQuorumPct: 500_000})
	id, err := store.CreateSlot(ctx)
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}

	loaded, err := store.GetProposal(ctx, id)
	if err != nil {
		t.Fatalf("get proposal: %v", err)
	}
	loaded.Ballots["intruder"] = 1

	reloaded, err := store.GetProposal(ctx, id)
	if err != nil {
		t.Fatalf("reload proposal: %v", err)
	}
	if len(reloaded.Ballots) != 0 {
		t.Fatalf("mutating a loaded copy must not touch stored state, got %v", reloaded.Ballots)
	}
}

func TestCheckpointResolution(t *testing.T) {
	ctx := context.Background()
	store := NewStore(entities.QuorumConfig{MinQuorumPct: 500_000})
	store.SetWeightCheckpoint("alice", 3, 100)
	store.SetWeightCheckpoint("alice", 7, 250)
	store.SetTotalWeightCheckpoint(3, 1_000)

	cases := []struct {
		point uint64
		want  uint64
	}{
		{0, 0},
		{2, 0},
		{3, 100},
		{6, 100},
		{7, 250},
		{100, 250},
	}
	for _, tc := range cases {
		got, err := store.WeightOf(ctx, "alice", tc.point)
		if err != nil {
			t.Fatalf("weight at %d: %v", tc.point, err)
		}
		if got != tc.want {
			t.Fatalf("weight at point %d = %d, want %d", tc.point, got, tc.want)
		}
	}

	total, err := store.TotalWeightAt(ctx, 2)
	if err != nil || total != 0 {
		t.Fatalf("expected no total before first checkpoint, got %d %v", total, err)
	}
	total, err = store.TotalWeightAt(ctx, 9)
	if err != nil || total != 1_000 {
		t.Fatalf("expected total 1000 from point 3 on, got %d %v", total, err)
	}
}

func TestPinnedClock(t *testing.T) {
	store := NewStore(entities.QuorumConfig{MinQuorumPct: 500_000})
	pinned := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	store.SetNow(pinned)
	if got := store.Now(); !got.Equal(pinned) {
		t.Fatalf("expected pinned clock %s, got %s", pinned, got)
	}
	store.AdvanceTime(90 * time.Minute)
	if got := store.Now(); !got.Equal(pinned.Add(90 * time.Minute)) {
		t.Fatalf("expected advanced clock, got %s", got)
	}
}
