package authz

import (
	"context"
	"testing"
)

type fakeOwnership struct {
	ids   []int64
	calls int
}

func (f *fakeOwnership) OwnedProjectIDs(context.Context, int64) ([]int64, error) {
	f.calls++
	return f.ids, nil
}

func TestScopeForAdminSkipsOwnershipLookup(t *testing.T) {
	ownership := &fakeOwnership{ids: []int64{1}}
	scope, err := ScopeFor(context.Background(), Principal{ClientID: 7, Role: RoleAdmin}, ownership)
	if err != nil {
		t.Fatal(err)
	}
	if !scope.All() {
		t.Error("admin scope must be unrestricted")
	}
	if ownership.calls != 0 {
		t.Errorf("ownership queried %d times for admin, want 0", ownership.calls)
	}
}

func TestScopeForClient(t *testing.T) {
	scope, err := ScopeFor(context.Background(), Principal{ClientID: 7, Role: RoleClient}, &fakeOwnership{ids: []int64{3, 5}})
	if err != nil {
		t.Fatal(err)
	}
	if scope.All() {
		t.Error("client scope must be restricted")
	}
	if !scope.Allows(3) || !scope.Allows(5) {
		t.Error("owned projects must be allowed")
	}
	if scope.Allows(4) {
		t.Error("foreign project must be denied")
	}
}

func TestEmptyScope(t *testing.T) {
	scope, err := ScopeFor(context.Background(), Principal{ClientID: 7, Role: RoleClient}, &fakeOwnership{})
	if err != nil {
		t.Fatal(err)
	}
	if !scope.Empty() {
		t.Error("client with no projects must get the empty scope")
	}
	if scope.Allows(1) {
		t.Error("empty scope must deny everything")
	}
	if AdminScope().Empty() {
		t.Error("admin scope must never read as empty")
	}
}
