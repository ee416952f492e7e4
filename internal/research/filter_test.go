package research

import (
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/expansio/backend/internal/authz"
)

func TestBuildFilterAdminUnrestricted(t *testing.T) {
	filter := BuildFilter(authz.AdminScope(), Query{})
	if len(filter) != 0 {
		t.Errorf("admin filter = %v, want empty", filter)
	}
}

func TestBuildFilterClientScopeRestrictsProjects(t *testing.T) {
	filter := BuildFilter(authz.ProjectScope([]int64{3, 17}), Query{})
	in, ok := filter["projectId"].(bson.M)
	if !ok {
		t.Fatalf("projectId filter = %v, want $in clause", filter["projectId"])
	}
	want := []string{"3", "17"}
	if !reflect.DeepEqual(in["$in"], want) {
		t.Errorf("$in = %v, want %v", in["$in"], want)
	}
}

func TestBuildFilterExplicitProjectReplacesScopeSet(t *testing.T) {
	filter := BuildFilter(authz.ProjectScope([]int64{3, 17}), Query{ProjectID: "3"})
	if filter["projectId"] != "3" {
		t.Errorf("projectId = %v, want \"3\"", filter["projectId"])
	}
}

func TestBuildFilterTextAndTag(t *testing.T) {
	filter := BuildFilter(authz.AdminScope(), Query{Text: "logistics", Tag: "market-entry"})
	if filter["tags"] != "market-entry" {
		t.Errorf("tags = %v", filter["tags"])
	}
	or, ok := filter["$or"].(bson.A)
	if !ok || len(or) != 2 {
		t.Fatalf("$or = %v, want two clauses", filter["$or"])
	}
	title := or[0].(bson.M)["title"].(primitive.Regex)
	if title.Pattern != "logistics" || title.Options != "i" {
		t.Errorf("title regex = %+v", title)
	}
}

func TestScopeAllowsProject(t *testing.T) {
	scope := authz.ProjectScope([]int64{5})
	if !ScopeAllowsProject(scope, "5") {
		t.Error("owned project denied")
	}
	if ScopeAllowsProject(scope, "6") {
		t.Error("foreign project allowed")
	}
	if ScopeAllowsProject(scope, "not-a-number") {
		t.Error("malformed id allowed for restricted scope")
	}
	if !ScopeAllowsProject(authz.AdminScope(), "not-a-number") {
		t.Error("admin scope must allow any reference")
	}
}
