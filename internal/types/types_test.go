package types

import (
	"testing"
	"time"
)

func TestSplitCodeBlocks(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []CodeBlock
	}{
		{
			name: "no blocks",
			body: "just some prose about a bug",
			want: nil,
		},
		{
			name: "single sql block",
			body: "See below:\n```sql\nSELECT TOP 10 * FROM users;\n```\nThanks",
			want: []CodeBlock{{Language: "sql", Content: "SELECT TOP 10 * FROM users;\n"}},
		},
		{
			name: "language is lowercased",
			body: "```SQL\nSELECT 1;\n```",
			want: []CodeBlock{{Language: "sql", Content: "SELECT 1;\n"}},
		},
		{
			name: "two blocks in document order",
			body: "```yaml\ndialect: tsql\n```\nand\n```\nSELECT 1\n```",
			want: []CodeBlock{
				{Language: "yaml", Content: "dialect: tsql\n"},
				{Language: "", Content: "SELECT 1\n"},
			},
		},
		{
			name: "unterminated fence ignored",
			body: "```sql\nSELECT 1;",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitCodeBlocks(tt.body)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d blocks, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("block %d: got %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestStripCodeBlocks(t *testing.T) {
	body := "prose before\n```sql\nSELECT 1;\n```\nprose after"
	got := StripCodeBlocks(body)
	if got != "prose before\n\nprose after" {
		t.Errorf("unexpected stripped body: %q", got)
	}
}

func TestSnapshotValidate(t *testing.T) {
	snap := &IssueSnapshot{ID: "42", Kind: EventOpened, Timestamp: time.Now()}
	if err := snap.Validate(); err != nil {
		t.Errorf("valid snapshot rejected: %v", err)
	}

	snap = &IssueSnapshot{Kind: EventOpened}
	if err := snap.Validate(); err == nil {
		t.Error("expected error for missing id")
	}

	snap = &IssueSnapshot{ID: "42", Kind: EventKind("deleted")}
	if err := snap.Validate(); err == nil {
		t.Error("expected error for invalid event kind")
	}
}

func TestLabelBuilders(t *testing.T) {
	if got := TypeLabel(TypeBug); got != "type:bug" {
		t.Errorf("TypeLabel = %q", got)
	}
	if got := DialectLabel("tsql"); got != "dialect:tsql" {
		t.Errorf("DialectLabel = %q", got)
	}
	if got := ComponentLabel(ComponentParser); got != "component:parser" {
		t.Errorf("ComponentLabel = %q", got)
	}
	if got := StatusLabel(CompletenessNeedsInfo); got != "status:needs-info" {
		t.Errorf("StatusLabel = %q", got)
	}
}

func TestHasNamespace(t *testing.T) {
	labels := []string{"type:bug", "good first issue"}
	if !HasNamespace(labels, NamespaceType) {
		t.Error("expected type namespace to be present")
	}
	if HasNamespace(labels, NamespaceDialect) {
		t.Error("did not expect dialect namespace")
	}
}

func TestIntentValidate(t *testing.T) {
	tests := []struct {
		name    string
		intent  ActionIntent
		wantErr bool
	}{
		{"valid comment", NewCommentIntent("please add a SQL example"), false},
		{"comment without body", ActionIntent{Kind: IntentComment}, true},
		{"valid update", NewUpdateLabelsIntent([]string{"type:bug"}), false},
		{"update without labels", ActionIntent{Kind: IntentUpdateLabels}, true},
		{"valid escalate", NewEscalateIntent("update-issue", "grant absent"), false},
		{"escalate without capability", ActionIntent{Kind: IntentEscalate}, true},
		{"valid noop", NewNoopIntent("nothing to do"), false},
		{"noop without reason", ActionIntent{Kind: IntentNoop}, true},
		{"bogus kind", ActionIntent{Kind: IntentKind("explode")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.intent.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
