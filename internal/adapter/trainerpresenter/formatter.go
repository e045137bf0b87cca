package trainerpresenter

import (
	"fmt"
	"strings"
	"time"

	"github.com/park285/Cheese-opening-trainer/internal/msgcat"
	"github.com/park285/Cheese-opening-trainer/internal/util"
	"github.com/park285/Cheese-opening-trainer/pkg/trainerdto"
)

const (
	commandWord = "오프닝"

	historyInstruction = "♜ 최근 훈련 기록"
	helpInstruction    = "♞ 오프닝 트레이너 명령어 안내"
	listInstruction    = "♞ 레퍼토리 목록"
)

// PrefixProvider exposes the Prefix that Kakao messages should use.
type PrefixProvider interface {
	Prefix() string
}

// Formatter renders trainer DTOs into Kakao-friendly text blocks.
type Formatter struct {
	prefixProvider PrefixProvider
	catalog        *msgcat.Catalog
}

func NewFormatter(provider PrefixProvider, catalog *msgcat.Catalog) *Formatter {
	if catalog == nil {
		catalog = msgcat.MustDefault()
	}
	return &Formatter{prefixProvider: provider, catalog: catalog}
}

func (f *Formatter) Prefix() string {
	if f == nil || f.prefixProvider == nil {
		return ""
	}
	return strings.TrimSpace(f.prefixProvider.Prefix())
}

// Command is the chat command users type, e.g. "!오프닝".
func (f *Formatter) Command() string { return f.Prefix() + commandWord }

func (f *Formatter) text(key string, data map[string]any, fallback string) string {
	if data == nil {
		data = map[string]any{}
	}
	data["Cmd"] = f.Command()
	return f.catalog.Text(key, data, fallback)
}

func (f *Formatter) Help() string {
	header := f.text("trainer.help_header", nil, helpInstruction)
	body := f.text("trainer.help", nil, "")
	return util.ApplySeeMoreWithHeader(header+"\n"+body, header, helpInstruction, "")
}

// Outcome renders every feedback line of one service call, one per line.
func (f *Formatter) Outcome(o *trainerdto.Outcome) string {
	if o == nil {
		return ""
	}
	var lines []string
	for _, fb := range o.Feedback {
		if line := f.feedback(o, fb); line != "" {
			lines = append(lines, line)
		}
	}
	if o.Ended {
		lines = append(lines, f.ended(o)...)
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) feedback(o *trainerdto.Outcome, fb trainerdto.Feedback) string {
	switch fb.Kind {
	case "session_started":
		return f.text("trainer.start", map[string]any{
			"Repertoire": o.Repertoire,
			"Color":      colorLabel(o.Color),
			"Mode":       o.Progress.Mode,
			"Method":     o.Progress.Method,
		}, "♞ "+o.Repertoire)
	case "variation_started":
		return f.text("trainer.variation", map[string]any{
			"Index": o.Progress.Index,
			"Total": o.Progress.Total,
		}, "")
	case "move_committed":
		// trainee moves are reported by move_judged
		if !fb.Bot {
			return ""
		}
		return f.text("trainer.bot_move", map[string]any{"SAN": fb.SAN}, fb.SAN)
	case "move_judged":
		if fb.Correct {
			return f.text("trainer.correct", map[string]any{"SAN": fb.SAN}, fb.SAN)
		}
		return f.text("trainer.wrong", map[string]any{"SAN": fb.SAN}, fb.SAN)
	case "awaiting_user":
		return f.text("trainer.your_move", nil, "")
	case "hint_shown":
		if fb.HintTo == "" {
			return f.text("trainer.hint_from", map[string]any{"From": fb.HintFrom}, fb.HintFrom)
		}
		return f.text("trainer.hint_to", map[string]any{"From": fb.HintFrom, "To": fb.HintTo}, fb.HintFrom+"-"+fb.HintTo)
	case "variation_complete":
		line := f.text("trainer.variation_complete", map[string]any{"Perfect": fb.Perfect}, "")
		if !o.Ended && !hasFeedback(o.Feedback, "variation_started") {
			line += "\n" + f.text("trainer.next", nil, "")
		}
		return line
	case "depth_changed":
		if fb.Depth <= 0 {
			return ""
		}
		return f.text("trainer.depth", map[string]any{"Depth": fb.Depth}, "")
	}
	return ""
}

func (f *Formatter) ended(o *trainerdto.Outcome) []string {
	result := o.Result
	if result == "" {
		for _, fb := range o.Feedback {
			if fb.Kind == "session_ended" {
				result = fb.Reason
			}
		}
	}
	lines := []string{f.text("trainer.ended."+result, nil, "🏁 "+result)}
	if run := o.Run; run != nil {
		lines = append(lines, f.text("trainer.summary", map[string]any{
			"Variations": run.Variations,
			"Perfect":    run.Perfect,
			"Accuracy":   run.Accuracy,
			"Hints":      run.Hints,
		}, ""))
	}
	return lines
}

func hasFeedback(list []trainerdto.Feedback, kind string) bool {
	for _, fb := range list {
		if fb.Kind == kind {
			return true
		}
	}
	return false
}

// Status shows the progress of a live session.
func (f *Formatter) Status(o *trainerdto.Outcome) string {
	if o == nil {
		return f.NoSession()
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("♞ %s (%s)\n", o.Repertoire, colorLabel(o.Color)))
	if summary := strings.TrimSpace(o.Progress.Summary); summary != "" {
		for _, line := range strings.Split(summary, "\n") {
			sb.WriteString("• " + line + "\n")
		}
	}
	if len(o.Line) > 0 {
		sb.WriteString(f.text("trainer.line", map[string]any{"Line": FormatLine(o.Line, 0)}, ""))
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("• FEN %s", o.FEN))
	return sb.String()
}

func (f *Formatter) NoSession() string {
	return f.text("trainer.no_session", nil, "진행 중인 훈련이 없습니다.")
}

func (f *Formatter) Legal(square string, moves []string) string {
	data := map[string]any{"Square": square, "Moves": moves}
	if len(moves) == 0 {
		return f.text("trainer.legal_none", data, square)
	}
	return f.text("trainer.legal", data, square+": "+strings.Join(moves, " "))
}

func (f *Formatter) Error(e trainerdto.DomainError) string {
	return f.text("errors."+e.Code, nil, e.Error())
}

func (f *Formatter) Created(info trainerdto.RepertoireSummary) string {
	return f.text("repertoire.created", map[string]any{"Name": info.Name, "Color": colorLabel(info.Color)}, info.Name)
}

func (f *Formatter) Deleted(name string, path []string) string {
	if len(path) == 0 {
		return f.text("repertoire.deleted", map[string]any{"Name": name}, name)
	}
	return f.text("repertoire.branch_removed", map[string]any{"Name": name, "Path": FormatLine(path, 0)}, name)
}

func (f *Formatter) Added(name string, moves []string) string {
	return f.text("repertoire.added", map[string]any{"Name": name, "Moves": moves}, name)
}

func (f *Formatter) Merged(dst, src string) string {
	return f.text("repertoire.merged", map[string]any{"Dst": dst, "Src": src}, dst)
}

func (f *Formatter) Options(opts *trainerdto.RepertoireOptions) string {
	if opts == nil {
		return ""
	}
	return f.text("repertoire.option", map[string]any{
		"Name":   opts.Name,
		"Depth":  formatDepth(opts.Depth),
		"Mode":   opts.Mode,
		"Method": opts.Method,
		"Stats":  opts.Stats,
		"Accel":  opts.Accel,
		"Color":  colorLabel(opts.Color),
	}, opts.Name)
}

func (f *Formatter) Seeded(name string, count int) string {
	return f.text("repertoire.seeded", map[string]any{"Name": name, "Count": count}, name)
}

func (f *Formatter) Imported(name string) string {
	return f.text("repertoire.imported", map[string]any{"Name": name}, name)
}

// Export wraps the repertoire file in a code block behind a see-more fold.
func (f *Formatter) Export(name, text string) string {
	header := "♞ " + name
	return util.ApplyKakaoSeeMorePadding("```\n"+strings.TrimRight(text, "\n")+"\n```", header)
}

func (f *Formatter) Repertoires(list []trainerdto.RepertoireSummary) string {
	if len(list) == 0 {
		return f.text("repertoire.list_empty", nil, "레퍼토리가 없습니다.")
	}
	header := f.text("repertoire.list_header", nil, listInstruction)
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteByte('\n')
	for _, r := range list {
		sb.WriteString(fmt.Sprintf("• %s (%s) 라인 %d · 수 %d", r.Name, colorLabel(r.Color), r.Lines, r.Nodes))
		if !r.UpdatedAt.IsZero() {
			sb.WriteString(" · " + formatShortTime(r.UpdatedAt))
		}
		sb.WriteByte('\n')
	}
	return util.ApplySeeMoreWithHeader(strings.TrimRight(sb.String(), "\n"), header, listInstruction, "")
}

// Node lists the continuations of a selected position with their counters.
func (f *Formatter) Node(n *trainerdto.Node) string {
	if n == nil {
		return ""
	}
	line := FormatLine(n.Line, 0)
	if line == "" {
		line = "(시작 위치)"
	}
	var sb strings.Builder
	sb.WriteString(f.text("repertoire.node_header", map[string]any{"Name": n.Repertoire, "Line": line}, n.Repertoire+" "+line))
	sb.WriteByte('\n')
	if n.ECOCode != "" {
		sb.WriteString(fmt.Sprintf("• %s %s\n", n.ECOCode, n.ECOTitle))
	}
	if n.Guessed > 0 {
		sb.WriteString(fmt.Sprintf("• %s %s\n", n.Stats, formatRatio(n.Correct, n.Guessed)))
	}
	next := plyNumber(len(n.Line))
	for _, c := range n.Children {
		mark := "·"
		if c.Trained {
			mark = "★"
		}
		sb.WriteString(fmt.Sprintf("%s %s%s", mark, next, c.Notation))
		if c.Guessed > 0 {
			sb.WriteString(" " + formatRatio(c.Correct, c.Guessed))
		}
		if c.Lines > 1 {
			sb.WriteString(fmt.Sprintf(" (라인 %d)", c.Lines))
		}
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (f *Formatter) History(runs []*trainerdto.TrainingRun) string {
	if len(runs) == 0 {
		return f.text("trainer.history_empty", nil, "저장된 훈련 기록이 없습니다.")
	}
	header := f.text("trainer.history_header", nil, historyInstruction)
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteByte('\n')
	for _, r := range runs {
		sb.WriteString(fmt.Sprintf("• #%d %s %s %s\n", r.ID, formatResultBadge(r.Result), r.Repertoire, formatShortTime(r.EndedAt)))
		sb.WriteString(fmt.Sprintf("  %s · 변화 %d (완벽 %d) · 정답률 %d%%", r.Mode, r.Variations, r.Perfect, r.Accuracy))
		if d := formatDuration(r.Duration); d != "" {
			sb.WriteString(" · " + d)
		}
		sb.WriteByte('\n')
	}
	return util.ApplySeeMoreWithHeader(strings.TrimRight(sb.String(), "\n"), header, historyInstruction, "")
}

// FormatLine numbers a SAN line: "1.e4 c5 2.Nf3". startPly is the ply of the
// first move, counted from 0.
func FormatLine(moves []string, startPly int) string {
	var sb strings.Builder
	for i, mv := range moves {
		ply := startPly + i
		if i > 0 {
			sb.WriteByte(' ')
		}
		if ply%2 == 0 {
			sb.WriteString(fmt.Sprintf("%d.", ply/2+1))
		} else if i == 0 {
			sb.WriteString(fmt.Sprintf("%d...", ply/2+1))
		}
		sb.WriteString(mv)
	}
	return sb.String()
}

func plyNumber(ply int) string {
	if ply%2 == 0 {
		return fmt.Sprintf("%d.", ply/2+1)
	}
	return fmt.Sprintf("%d...", ply/2+1)
}

func colorLabel(color string) string {
	switch strings.ToLower(strings.TrimSpace(color)) {
	case "white", "w":
		return "백"
	case "black", "b":
		return "흑"
	default:
		return color
	}
}

func formatDepth(depth int) string {
	if depth <= 0 {
		return "무제한"
	}
	return fmt.Sprintf("%d", depth)
}

func formatRatio(correct, guessed int) string {
	if guessed <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d/%d (%d%%)", correct, guessed, correct*100/guessed)
}

func formatResultBadge(result string) string {
	switch strings.ToLower(strings.TrimSpace(result)) {
	case "completed":
		return "✅ 완료"
	case "stopped":
		return "🛑 중지"
	case "expired":
		return "⌛ 만료"
	case "broken":
		return "⚠️ 오류"
	default:
		return "▫️ " + result
	}
}

func formatShortTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return util.FormatKST(t, "2006-01-02 15:04")
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
