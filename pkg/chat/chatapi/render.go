package chatapi

import (
	"bytes"
	"embed"
	"html/template"
	"io"

	"github.com/Abraxas-365/wanderlust/pkg/chat"
	"github.com/Abraxas-365/wanderlust/pkg/logx"
	"github.com/yuin/goldmark"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// goldmark drops raw HTML unless WithUnsafe is set, so model output cannot
// inject markup
var markdown = goldmark.New()

type entryView struct {
	Role    chat.Role
	Content template.HTML
	Tools   []chat.ToolUse
}

type pageView struct {
	Title       string
	Placeholder string
	ThreadID    string
	Error       string
	Entries     []entryView
}

func renderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		logx.Warnf("markdown conversion failed: %v", err)
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

func newPageView(title string, session *chat.Session, errMsg string) pageView {
	view := pageView{
		Title:       title,
		Placeholder: "Ask about destinations or weather...",
		ThreadID:    session.ThreadID,
		Error:       errMsg,
		Entries:     make([]entryView, 0, len(session.Transcript)),
	}
	for _, e := range session.Transcript {
		content := template.HTML(template.HTMLEscapeString(e.Content))
		if e.Role == chat.RoleAssistant {
			content = renderMarkdown(e.Content)
		}
		view.Entries = append(view.Entries, entryView{Role: e.Role, Content: content, Tools: e.Tools})
	}
	return view
}

func renderPage(w io.Writer, view pageView) error {
	return pageTemplate.Execute(w, view)
}
