package book

import (
	"testing"

	"lobex/internal/common"
)

func order(id uint64, price, qty float64) *common.Order {
	return &common.Order{
		ID:           id,
		Side:         common.Bid,
		Type:         common.Limit,
		OriginalQty:  qty,
		RemainingQty: qty,
		WorkingPrice: price,
		Status:       common.Open,
	}
}

func TestSideInsertAndHeadRespectsTimePriority(t *testing.T) {
	s := NewSide(BidLess)
	s.Insert(order(1, 100, 10))
	s.Insert(order(2, 100, 5))

	head, ok := s.Head()
	if !ok || head.ID != 1 {
		t.Fatalf("Head() = %v, ok=%v, want order 1", head, ok)
	}
}

func TestSideAdvanceHeadRemovesEmptyLevel(t *testing.T) {
	s := NewSide(BidLess)
	s.Insert(order(1, 100, 10))

	s.AdvanceHead()
	if s.Size() != 0 {
		t.Fatalf("Size() after draining only order = %d, want 0", s.Size())
	}
	if _, ok := s.Head(); ok {
		t.Fatal("Head() on empty side returned ok=true")
	}
}

func TestSideAdvanceHeadKeepsNonEmptyLevel(t *testing.T) {
	s := NewSide(BidLess)
	s.Insert(order(1, 100, 10))
	s.Insert(order(2, 100, 5))

	s.AdvanceHead()
	head, ok := s.Head()
	if !ok || head.ID != 2 {
		t.Fatalf("Head() after advance = %v, ok=%v, want order 2", head, ok)
	}
	if s.Size() != 1 {
		t.Fatalf("Size() = %d, want 1 (level still resting)", s.Size())
	}
}

func TestSideRemoveByIDCancelsMidLevel(t *testing.T) {
	s := NewSide(BidLess)
	a := order(1, 100, 10)
	b := order(2, 100, 5)
	s.Insert(a)
	s.Insert(b)

	if !s.RemoveByID(a) {
		t.Fatal("RemoveByID(a) = false, want true")
	}
	head, ok := s.Head()
	if !ok || head.ID != 2 {
		t.Fatalf("Head() after cancel = %v, ok=%v, want order 2", head, ok)
	}
}

func TestSideRemoveByIDUnknownReturnsFalse(t *testing.T) {
	s := NewSide(BidLess)
	s.Insert(order(1, 100, 10))

	ghost := order(99, 100, 1)
	if s.RemoveByID(ghost) {
		t.Fatal("RemoveByID(unknown) = true, want false")
	}
}

func TestSideLevelsBestFirst(t *testing.T) {
	s := NewSide(BidLess)
	s.Insert(order(1, 99, 10))
	s.Insert(order(2, 101, 10))
	s.Insert(order(3, 100, 10))

	levels := s.Levels()
	if len(levels) != 3 {
		t.Fatalf("len(Levels()) = %d, want 3", len(levels))
	}
	want := []float64{101, 100, 99}
	for i, lvl := range levels {
		if lvl.Price != want[i] {
			t.Fatalf("Levels()[%d].Price = %v, want %v", i, lvl.Price, want[i])
		}
	}
}
