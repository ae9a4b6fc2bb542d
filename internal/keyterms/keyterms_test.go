package keyterms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/leonardotrapani/livekeyterms/internal/history"
	"github.com/leonardotrapani/livekeyterms/internal/testutil"
	"github.com/matryer/is"
)

func jsonArray(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func numbered(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("term-%03d", i)
	}
	return out
}

func TestGenerateInitial_EmptyHistorySkipsGenerator(t *testing.T) {
	is := is.New(t)
	gen := testutil.NewFakeGenerator(`["should not be used"]`)
	ex := NewExtractor(gen, DefaultConfig())

	terms, err := ex.GenerateInitial(context.Background(), nil)

	is.True(errors.Is(err, ErrNoHistory))
	is.Equal(gen.CallCount(), 0)
	is.Equal(terms, Fallback())
}

func TestGenerateInitial_TruncatesToMax(t *testing.T) {
	is := is.New(t)
	all := numbered(150)
	gen := testutil.NewFakeGenerator(jsonArray(t, all))
	ex := NewExtractor(gen, DefaultConfig())

	terms, err := ex.GenerateInitial(context.Background(), testutil.HistoryOf("Dr. Niamh O'Sullivan"))

	is.NoErr(err)
	is.Equal(len(terms), 100)
	is.Equal(terms, all[:100])
}

func TestGenerateInitial_DropsNonStrings(t *testing.T) {
	is := is.New(t)
	elems := []any{42}
	for _, s := range numbered(99) {
		elems = append(elems, s)
	}
	gen := testutil.NewFakeGenerator(jsonArray(t, elems))
	ex := NewExtractor(gen, DefaultConfig())

	terms, err := ex.GenerateInitial(context.Background(), testutil.HistoryOf("history"))

	is.NoErr(err)
	is.Equal(terms, numbered(99))
}

func TestGenerateInitial_MalformedFallsBack(t *testing.T) {
	is := is.New(t)
	gen := testutil.NewFakeGenerator("Sure! Here are your keyterms: Siobhan, Kowalczyk")
	ex := NewExtractor(gen, DefaultConfig())

	terms, err := ex.GenerateInitial(context.Background(), testutil.HistoryOf("history"))

	is.True(errors.Is(err, ErrMalformedOutput))
	is.Equal(terms, Fallback())
}

func TestGenerateInitial_TransportFailureFallsBack(t *testing.T) {
	is := is.New(t)
	gen := testutil.NewFakeGenerator().FailWith(errors.New("connection refused"))
	ex := NewExtractor(gen, DefaultConfig())

	terms, err := ex.GenerateInitial(context.Background(), testutil.HistoryOf("history"))

	is.True(err != nil)
	is.Equal(terms, Fallback())
}

func TestGenerateInitial_PromptAndTokens(t *testing.T) {
	is := is.New(t)
	gen := testutil.NewFakeGenerator(`["Siobhan"]`)
	ex := NewExtractor(gen, DefaultConfig())

	_, err := ex.GenerateInitial(context.Background(), testutil.HistoryOf("first call", "second call"))
	is.NoErr(err)

	calls := gen.Calls()
	is.Equal(len(calls), 1)
	is.Equal(calls[0].MaxTokens, 2000)
	is.True(strings.Contains(calls[0].Prompt, "first call\n\nsecond call"))
	is.True(strings.Contains(calls[0].Prompt, "exactly 100 strings"))
	is.True(strings.Contains(calls[0].Prompt, "Smith-Jones"))
}

func TestRefresh_FailureKeepsCurrent(t *testing.T) {
	current := []string{"Siobhan", "Kowalczyk", "Omeprazole"}

	tests := []struct {
		name string
		gen  *testutil.FakeGenerator
	}{
		{"malformed output", testutil.NewFakeGenerator(`{"keyterms": ["x"]}`)},
		{"empty output", testutil.NewFakeGenerator("")},
		{"null output", testutil.NewFakeGenerator("null")},
		{"transport error", testutil.NewFakeGenerator().FailWith(errors.New("503"))},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)
			ex := NewExtractor(tc.gen, DefaultConfig())

			terms, err := ex.Refresh(context.Background(), current, "hello there", nil)

			is.True(err != nil)
			is.Equal(terms, current)
		})
	}
}

func TestRefresh_PromptContents(t *testing.T) {
	is := is.New(t)
	gen := testutil.NewFakeGenerator(`["Natchitoches"]`)
	ex := NewExtractor(gen, DefaultConfig())

	current := numbered(80)
	records := testutil.HistoryOf("h1", "h2", "h3", "h4")

	terms, err := ex.Refresh(context.Background(), current, "we spoke about the Natchitoches office", records)
	is.NoErr(err)
	is.Equal(terms, []string{"Natchitoches"})

	call := gen.Calls()[0]
	is.Equal(call.MaxTokens, 1500)
	is.True(strings.Contains(call.Prompt, jsonArray(t, current[:50])+"... (truncated)"))
	is.True(!strings.Contains(call.Prompt, "term-050"))
	is.True(strings.Contains(call.Prompt, "we spoke about the Natchitoches office"))
	is.True(strings.Contains(call.Prompt, "h2\nh3\nh4"))
	is.True(!strings.Contains(call.Prompt, "h1"))
}

func TestRefresh_UsesRecordsWindow(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	cfg.HistoryWindow = 1
	prompt := BuildRefreshPrompt(nil, "transcript", []history.Record{{Text: "older"}, {Text: "latest"}}, cfg)

	is.True(strings.Contains(prompt, "[]... (truncated)"))
	is.True(strings.Contains(prompt, "latest"))
	is.True(!strings.Contains(prompt, "older"))
}

func TestParse(t *testing.T) {
	long := strings.Repeat("a", 51)
	exact := strings.Repeat("é", 50)

	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{name: "plain array", raw: `["Siobhan", "Niamh"]`, want: []string{"Siobhan", "Niamh"}},
		{name: "json fence", raw: "```json\n[\"Siobhan\"]\n```", want: []string{"Siobhan"}},
		{name: "bare fence", raw: "```\n[\"Siobhan\"]\n```\n", want: []string{"Siobhan"}},
		{name: "surrounding whitespace", raw: "\n  [\"Siobhan\"]  \n", want: []string{"Siobhan"}},
		{name: "drops empty and long", raw: jsonArrayString("", long, exact, "ok"), want: []string{exact, "ok"}},
		{name: "drops non strings", raw: `[1, null, true, {"a": "b"}, ["x"], "kept"]`, want: []string{"kept"}},
		{name: "empty array", raw: `[]`, want: []string{}},
		{name: "object", raw: `{"keyterms": []}`, wantErr: true},
		{name: "string", raw: `"Siobhan"`, wantErr: true},
		{name: "null", raw: `null`, wantErr: true},
		{name: "prose", raw: `Here you go`, wantErr: true},
		{name: "empty", raw: ``, wantErr: true},
		{name: "unterminated fence only", raw: "```json", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.raw, 100, 50)
			if tc.wantErr {
				if !errors.Is(err, ErrMalformedOutput) {
					t.Fatalf("Parse() error = %v, want ErrMalformedOutput", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("Parse() = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("Parse()[%d] = %q, want %q", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func jsonArrayString(items ...string) string {
	b, _ := json.Marshal(items)
	return string(b)
}

func TestFallback(t *testing.T) {
	is := is.New(t)
	a := Fallback()
	is.True(len(a) > 0)
	is.True(len(a) <= 100)
	for _, term := range a {
		is.True(Valid(term, 50))
	}

	a[0] = "mutated"
	is.True(Fallback()[0] != "mutated")
}
