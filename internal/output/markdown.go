package output

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
)

// MarkdownWriter renders the summary as Markdown tables.
type MarkdownWriter struct {
	output   io.Writer
	maxWords int
}

// NewMarkdownWriter creates a MarkdownWriter. maxWords limits the word
// frequency table; 0 writes every word.
func NewMarkdownWriter(w io.Writer, maxWords int) *MarkdownWriter {
	return &MarkdownWriter{output: w, maxWords: maxWords}
}

// WriteSummary writes the summary report.
func (w *MarkdownWriter) WriteSummary(s *Summary) error {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, s)
	w.writeSubdomains(md, s)
	w.writeWords(md, s)

	md.HorizontalRule()
	return md.Build()
}

// Close is a no-op.
func (w *MarkdownWriter) Close() error {
	return nil
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, s *Summary) {
	md.H1("Crawl Summary")
	md.PlainText("")

	longest := "-"
	if s.Longest.URL != "" {
		longest = s.Longest.URL + " (" + strconv.Itoa(s.Longest.Words) + " words)"
	}

	rows := [][]string{
		{"Started", s.StartedAt.Format("2006-01-02 15:04:05 MST")},
		{"Duration", s.Duration.Round(time.Millisecond).String()},
		{"Unique URLs", strconv.Itoa(s.UniqueURLs)},
		{"Unique Downloads", strconv.Itoa(s.UniqueDownloads)},
		{"Longest Page", longest},
	}
	if s.Interrupted {
		rows = append(rows, []string{"Status", "Interrupted (partial results)"})
	}
	if m := s.Metrics; m != nil {
		rows = append(rows,
			[]string{"Requests", strconv.FormatInt(m.RequestsTotal, 10)},
			[]string{"Pages Analyzed", strconv.FormatInt(m.PagesAnalyzed, 10)},
			[]string{"Error Rate", strconv.FormatFloat(m.ErrorRate()*100, 'f', 1, 64) + "%"},
		)
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSubdomains(md *markdown.Markdown, s *Summary) {
	md.H2("Subdomains")
	md.PlainText("")

	if len(s.Subdomains) == 0 {
		md.PlainText("No subdomain pages analyzed.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(s.Subdomains))
	for _, h := range s.Subdomains {
		rows = append(rows, []string{h.Host, strconv.Itoa(h.Pages)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Host", "Pages"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeWords(md *markdown.Markdown, s *Summary) {
	md.H2("Word Frequencies")
	md.PlainText("")

	words := s.TopWords(w.maxWords)
	if len(words) == 0 {
		md.PlainText("No words counted.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(words))
	for i, wc := range words {
		rows = append(rows, []string{strconv.Itoa(i + 1), wc.Word, strconv.Itoa(wc.Count)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Rank", "Word", "Count"},
		Rows:   rows,
	})
	md.PlainText("")
}
