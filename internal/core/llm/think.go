package llm

import "strings"

const (
	thinkOpen  = "<think>"
	thinkClose = "</think>"
)

// splitThinking separates inline <think>...</think> reasoning from the
// answer. The answer is not trimmed so it matches the streamed text exactly.
func splitThinking(text string) (reasoning, answer string) {
	var sp thinkSplitter
	var r, a strings.Builder
	for _, f := range append(sp.feed(text), sp.flush()...) {
		if f.Kind == FragmentReasoning {
			r.WriteString(f.Text)
		} else {
			a.WriteString(f.Text)
		}
	}
	return strings.TrimSpace(r.String()), a.String()
}

// thinkSplitter routes streamed text inside think tags to reasoning
// fragments. Tags may be split across chunks.
type thinkSplitter struct {
	inThink bool
	pending string
}

func (t *thinkSplitter) kind() FragmentKind {
	if t.inThink {
		return FragmentReasoning
	}
	return FragmentText
}

func (t *thinkSplitter) feed(chunk string) []Fragment {
	buf := t.pending + chunk
	t.pending = ""

	var out []Fragment
	for buf != "" {
		tag := thinkOpen
		if t.inThink {
			tag = thinkClose
		}
		if idx := strings.Index(buf, tag); idx >= 0 {
			if idx > 0 {
				out = append(out, Fragment{Kind: t.kind(), Text: buf[:idx]})
			}
			buf = buf[idx+len(tag):]
			t.inThink = !t.inThink
			continue
		}

		// Hold back a suffix that could be the start of the tag
		hold := 0
		for n := len(tag) - 1; n > 0; n-- {
			if strings.HasSuffix(buf, tag[:n]) {
				hold = n
				break
			}
		}
		if emit := buf[:len(buf)-hold]; emit != "" {
			out = append(out, Fragment{Kind: t.kind(), Text: emit})
		}
		t.pending = buf[len(buf)-hold:]
		break
	}
	return out
}

func (t *thinkSplitter) flush() []Fragment {
	if t.pending == "" {
		return nil
	}
	f := Fragment{Kind: t.kind(), Text: t.pending}
	t.pending = ""
	return []Fragment{f}
}
