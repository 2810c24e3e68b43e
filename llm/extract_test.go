package llm

import "testing"

func TestExtractReply(t *testing.T) {
	const fallback = "default"

	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "responses convenience field",
			body: `{"output_text":"  Peace be with you. "}`,
			want: "Peace be with you.",
		},
		{
			name: "responses output items",
			body: `{"output":[
				{"type":"reasoning","summary":[]},
				{"type":"message","content":[
					{"type":"output_text","text":"First."},
					{"type":"refusal","refusal":"no"},
					{"type":"output_text","text":"Second."}
				]}
			]}`,
			want: "First. Second.",
		},
		{
			name: "chat completions",
			body: `{"choices":[{"message":{"role":"assistant","content":"Hello friend."}}]}`,
			want: "Hello friend.",
		},
		{
			name: "legacy completions",
			body: `{"choices":[{"text":"Legacy reply."}]}`,
			want: "Legacy reply.",
		},
		{
			name: "convenience field wins over output items",
			body: `{"output_text":"top","output":[{"content":[{"type":"output_text","text":"nested"}]}]}`,
			want: "top",
		},
		{
			name: "empty output_text falls through",
			body: `{"output_text":"   ","choices":[{"message":{"content":"from chat"}}]}`,
			want: "from chat",
		},
		{
			name: "null chat content",
			body: `{"choices":[{"message":{"content":null}}]}`,
			want: fallback,
		},
		{
			name: "empty choices",
			body: `{"choices":[]}`,
			want: fallback,
		},
		{
			name: "unknown shape",
			body: `{"id":"resp_1","status":"incomplete"}`,
			want: fallback,
		},
		{
			name: "not an object",
			body: `["hello"]`,
			want: fallback,
		},
	}

	for _, tc := range cases {
		if got := ExtractReply([]byte(tc.body), fallback); got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestExtractWithCustomChain(t *testing.T) {
	var calls []string
	first := func(map[string]any) (string, bool) {
		calls = append(calls, "first")
		return "", false
	}
	second := func(map[string]any) (string, bool) {
		calls = append(calls, "second")
		return "found", true
	}
	third := func(map[string]any) (string, bool) {
		calls = append(calls, "third")
		return "late", true
	}

	got := extractWith(map[string]any{}, []Extractor{first, second, third}, "fallback")
	if got != "found" {
		t.Fatalf("unexpected result %q", got)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("chain should stop at first match, calls=%v", calls)
	}
}
