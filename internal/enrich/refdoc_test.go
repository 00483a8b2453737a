package enrich

import "testing"

func TestSplitReference(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		in     string
		body   string
		refDoc string
	}{
		{
			name:   "no marker",
			in:     "plain answer with no references",
			body:   "plain answer with no references",
			refDoc: "",
		},
		{
			name:   "marker splits",
			in:     "answer text\n\n以下是2个参考文档\ndoc one\ndoc two",
			body:   "answer text",
			refDoc: "以下是2个参考文档\ndoc one\ndoc two",
		},
		{
			name:   "marker at start leaves empty body",
			in:     "以下是1个参考文档\ndoc",
			body:   "",
			refDoc: "以下是1个参考文档\ndoc",
		},
		{
			name:   "head without count is not a marker",
			in:     "以下是参考文档的说明",
			body:   "以下是参考文档的说明",
			refDoc: "",
		},
		{
			name:   "multi digit count",
			in:     "body\n以下是12个参考文档\ndocs",
			body:   "body",
			refDoc: "以下是12个参考文档\ndocs",
		},
		{
			name:   "first real marker wins after a false head",
			in:     "以下是提示。\n以下是3个参考文档\ndocs",
			body:   "以下是提示。",
			refDoc: "以下是3个参考文档\ndocs",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			body, refDoc := SplitReference(tc.in)
			if body != tc.body {
				t.Errorf("body = %q, want %q", body, tc.body)
			}
			if refDoc != tc.refDoc {
				t.Errorf("refDoc = %q, want %q", refDoc, tc.refDoc)
			}
		})
	}
}

func TestSplitReferenceLossless(t *testing.T) {
	t.Parallel()

	// Splitting only trims whitespace at the cut point; every non-space byte
	// of the input survives in one of the two halves.
	in := "  answer  \n以下是1个参考文档\ndoc  "
	body, refDoc := SplitReference(in)
	if body != "answer" {
		t.Errorf("body = %q", body)
	}
	if refDoc != "以下是1个参考文档\ndoc" {
		t.Errorf("refDoc = %q", refDoc)
	}
}
