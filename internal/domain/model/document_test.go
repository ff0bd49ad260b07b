package model

import (
	"testing"
	"time"
)

func TestPermissionSetGrant_Idempotent(t *testing.T) {
	p := &PermissionSet{}

	if changed := p.Grant(CapabilityView, "user@example.com"); !changed {
		t.Error("первый Grant: хотели changed=true, получили false")
	}
	if changed := p.Grant(CapabilityView, "user@example.com"); changed {
		t.Error("повторный Grant: хотели changed=false, получили true")
	}

	count := 0
	for _, e := range p.View {
		if e == "user@example.com" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("email в множестве view: хотели ровно 1 вхождение, получили %d", count)
	}
}

func TestPermissionSetGrant_IndependentSets(t *testing.T) {
	p := &PermissionSet{}
	p.Grant(CapabilityEdit, "editor@example.com")

	// edit не подразумевает view
	if p.Has(CapabilityView, "editor@example.com") {
		t.Error("Grant(edit) не должен давать право view")
	}
	if !p.Has(CapabilityEdit, "editor@example.com") {
		t.Error("Grant(edit): право edit отсутствует")
	}
}

func TestPermissionSetHasAny(t *testing.T) {
	tests := []struct {
		name  string
		perms PermissionSet
		email string
		want  bool
	}{
		{
			name:  "email в view",
			perms: PermissionSet{View: []string{"a@example.com"}},
			email: "a@example.com",
			want:  true,
		},
		{
			name:  "email в delete",
			perms: PermissionSet{Delete: []string{"b@example.com"}},
			email: "b@example.com",
			want:  true,
		},
		{
			name:  "email отсутствует везде",
			perms: PermissionSet{View: []string{"a@example.com"}},
			email: "c@example.com",
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.perms.HasAny(tt.email); got != tt.want {
				t.Errorf("HasAny(%q) = %v, хотели %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestParseCapability(t *testing.T) {
	for _, valid := range []string{"view", "edit", "delete"} {
		if _, ok := ParseCapability(valid); !ok {
			t.Errorf("ParseCapability(%q): хотели ok=true", valid)
		}
	}
	if _, ok := ParseCapability("admin"); ok {
		t.Error("ParseCapability(\"admin\"): хотели ok=false")
	}
}

func TestPurgeEligible(t *testing.T) {
	now := time.Now().UTC()
	retention := 30 * 24 * time.Hour

	old := now.Add(-31 * 24 * time.Hour)
	recent := now.Add(-29 * 24 * time.Hour)

	tests := []struct {
		name string
		doc  DocumentRecord
		want bool
	}{
		{
			name: "удалён 31 день назад — подлежит очистке",
			doc:  DocumentRecord{Deleted: true, DeletedAt: &old},
			want: true,
		},
		{
			name: "удалён 29 дней назад — не подлежит",
			doc:  DocumentRecord{Deleted: true, DeletedAt: &recent},
			want: false,
		},
		{
			name: "активный документ — не подлежит",
			doc:  DocumentRecord{Deleted: false},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.doc.PurgeEligible(now, retention); got != tt.want {
				t.Errorf("PurgeEligible = %v, хотели %v", got, tt.want)
			}
		})
	}
}
