package engine

import "testing"

func TestGameObjectMoveToNotifiesOnChangeOnly(t *testing.T) {
	var o GameObject
	var calls []Position
	o.OnMoved(func(from, to Position) {
		if o.Position() != to {
			t.Errorf("Listener saw %v, position should already be %v", o.Position(), to)
		}
		calls = append(calls, to)
	})

	o.MoveTo(Position{X: 0, Y: 0})
	if len(calls) != 0 {
		t.Errorf("Moving to the same cell should not notify, got %d calls", len(calls))
	}

	o.MoveTo(Position{X: 1, Y: 0})
	o.MoveTo(Position{X: 1, Y: 0})
	if len(calls) != 1 {
		t.Errorf("Expected 1 notification, got %d", len(calls))
	}
}

func TestPlayerSetFacing(t *testing.T) {
	p := NewPlayer(Position{X: 2, Y: 2})
	if p.Facing() != Down {
		t.Fatalf("New player should face down, got %s", p.Facing())
	}

	type change struct{ old, new Direction }
	var changes []change
	p.OnFacingChanged(func(old, new Direction) {
		changes = append(changes, change{old, new})
	})

	p.SetFacing(Down)
	p.SetFacing(Left)
	p.SetFacing(Left)
	p.SetFacing(Up)

	want := []change{{Down, Left}, {Left, Up}}
	if len(changes) != len(want) {
		t.Fatalf("Expected %d facing changes, got %d: %v", len(want), len(changes), changes)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("Change %d = %v, want %v", i, changes[i], want[i])
		}
	}
}

func TestBoxSetState(t *testing.T) {
	b := NewBox(3, Position{X: 1, Y: 1})
	if b.Index() != 3 || b.State() != BoxNormal {
		t.Fatalf("Unexpected new box: index=%d state=%s", b.Index(), b.State())
	}

	fired := 0
	b.OnStateChanged(func(old, new BoxState) { fired++ })

	b.SetState(BoxNormal)
	b.SetState(BoxOnGoal)
	b.SetState(BoxOnGoal)
	b.SetState(BoxNormal)

	if fired != 2 {
		t.Errorf("Expected 2 state notifications, got %d", fired)
	}
}
