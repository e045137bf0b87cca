package trainerpresenter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/park285/Cheese-opening-trainer/internal/chess"
	"github.com/park285/Cheese-opening-trainer/internal/domain"
	"github.com/park285/Cheese-opening-trainer/internal/msgcat"
	svc "github.com/park285/Cheese-opening-trainer/internal/service/training"
	"github.com/park285/Cheese-opening-trainer/internal/trainer"
	"github.com/park285/Cheese-opening-trainer/internal/util"
	"github.com/park285/Cheese-opening-trainer/pkg/trainerdto"
)

type prefix string

func (p prefix) Prefix() string { return string(p) }

type outbox struct {
	mu   sync.Mutex
	sent []string
}

func (o *outbox) send(_ context.Context, room, message string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, room+"|"+message)
	return nil
}

func (o *outbox) last(t *testing.T) string {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.sent) == 0 {
		t.Fatalf("nothing sent")
	}
	return o.sent[len(o.sent)-1]
}

var meta = svc.SessionMeta{SessionID: "room-a:bob", Room: "room-a", Sender: "bob"}

func newFixture(t *testing.T) (*svc.Service, *Presenter, *outbox, *time.Time) {
	t.Helper()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	service, err := svc.NewService(svc.NewMemoryStore(nil), svc.NewMemoryRepository(), nil, svc.Config{
		BotDelay:    100 * time.Millisecond,
		AutoAdvance: true,
		Clock:       func() time.Time { return now },
	}, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	box := &outbox{}
	p := NewPresenter(box.send, NewFormatter(prefix("!"), msgcat.MustDefault()), nil)
	return service, p, box, &now
}

func TestTrainingConversation(t *testing.T) {
	service, p, box, now := newFixture(t)
	ctx := context.Background()

	if _, err := service.CreateRepertoire(ctx, meta, "open", chess.White); err != nil {
		t.Fatal(err)
	}
	if _, err := service.AddLine(ctx, meta, "open", "1.e4 e5 2.Nf3"); err != nil {
		t.Fatal(err)
	}

	out, err := service.Start(ctx, meta, "open", nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := p.Outcome(ctx, out); err != nil {
		t.Fatal(err)
	}
	msg := box.last(t)
	if !strings.HasPrefix(msg, "room-a|") || !strings.Contains(msg, "'open'") || !strings.Contains(msg, "변화 1 / 1") {
		t.Fatalf("start message = %q", msg)
	}
	if !strings.Contains(msg, "!오프닝 <수>") {
		t.Fatalf("prompt should name the command: %q", msg)
	}

	out, err = service.Move(ctx, meta, "d4")
	if err != nil {
		t.Fatalf("wrong move: %v", err)
	}
	_ = p.Outcome(ctx, out)
	if msg := box.last(t); !strings.Contains(msg, "❌ d4") {
		t.Fatalf("wrong move message = %q", msg)
	}

	out, err = service.Move(ctx, meta, "e4")
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	_ = p.Outcome(ctx, out)
	if msg := box.last(t); !strings.Contains(msg, "✅ e4") {
		t.Fatalf("correct move message = %q", msg)
	}

	*now = now.Add(time.Second)
	for _, o := range service.Tick(ctx, *now) {
		p.Deliver(ctx, o)
	}
	if msg := box.last(t); !strings.Contains(msg, "🤖 e5") {
		t.Fatalf("bot move message = %q", msg)
	}

	out, err = service.Move(ctx, meta, "g1f3")
	if err != nil {
		t.Fatalf("last move: %v", err)
	}
	_ = p.Outcome(ctx, out)
	msg = box.last(t)
	if !strings.Contains(msg, "🏁") || !strings.Contains(msg, "완벽 0") {
		t.Fatalf("end message = %q", msg)
	}
}

func TestErrorMessages(t *testing.T) {
	_, p, box, _ := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		err  error
		code string
		want string
	}{
		{svc.ErrSessionNotFound, "session_not_found", "진행 중인 훈련이 없습니다"},
		{fmt.Errorf("wrap: %w", svc.ErrRepertoireExists), "repertoire_exists", "이미 있습니다"},
		{fmt.Errorf("%w: %w", svc.ErrInvalidInput, chess.ErrIllegalMove), "illegal_move", "둘 수 없는 수"},
		{trainer.ErrNoVariations, "no_variations", "훈련할 변화가 없습니다"},
		{errors.New("redis down"), "unknown", "잠시 후"},
	}
	for _, tc := range cases {
		dto := ToDomainError(tc.err)
		if dto.Code != tc.code {
			t.Fatalf("%v: code = %s, want %s", tc.err, dto.Code, tc.code)
		}
		if dto.Retryable != (tc.code == "unknown") {
			t.Fatalf("%v: retryable = %v", tc.err, dto.Retryable)
		}
		if err := p.Error(ctx, "room-a", tc.err); err != nil {
			t.Fatal(err)
		}
		if msg := box.last(t); !strings.Contains(msg, tc.want) {
			t.Fatalf("%v: message = %q", tc.err, msg)
		}
	}
}

func TestFormatLine(t *testing.T) {
	cases := []struct {
		moves []string
		start int
		want  string
	}{
		{[]string{"e4", "c5", "Nf3"}, 0, "1.e4 c5 2.Nf3"},
		{[]string{"c5", "Nf3"}, 1, "1...c5 2.Nf3"},
		{nil, 0, ""},
	}
	for _, tc := range cases {
		if got := FormatLine(tc.moves, tc.start); got != tc.want {
			t.Fatalf("FormatLine(%v, %d) = %q, want %q", tc.moves, tc.start, got, tc.want)
		}
	}
}

func TestNodeAndLists(t *testing.T) {
	f := NewFormatter(prefix("!"), nil)

	node := f.Node(&trainerdto.Node{
		Repertoire: "sicilian",
		Stats:      "ByMove",
		Line:       []string{"e4"},
		ECOCode:    "B20",
		ECOTitle:   "Sicilian Defense",
		Children: []trainerdto.Child{
			{Notation: "c5", Correct: 3, Guessed: 4, Trained: true, Lines: 2},
			{Notation: "e5"},
		},
	})
	for _, want := range []string{"sicilian 1.e4", "B20 Sicilian Defense", "★ 1...c5 3/4 (75%) (라인 2)", "· 1...e5"} {
		if !strings.Contains(node, want) {
			t.Fatalf("node view missing %q:\n%s", want, node)
		}
	}

	list := f.Repertoires(ToDTORepertoires([]domain.RepertoireInfo{{Name: "alpha", Color: "black", Nodes: 4, Lines: 2}}))
	if !strings.Contains(list, util.KakaoZeroWidthSpace) || !strings.Contains(list, "alpha (흑) 라인 2 · 수 4") {
		t.Fatalf("list = %q", list)
	}
	if empty := f.Repertoires(nil); !strings.Contains(empty, "!오프닝 생성") {
		t.Fatalf("empty list = %q", empty)
	}

	history := f.History(ToDTORuns([]*domain.TrainingRun{{
		ID: 7, Repertoire: "alpha", Mode: "ByCompleteVariation", Result: "expired",
		Variations: 2, Perfect: 1, Guessed: 4, Correct: 3, Duration: 90 * time.Second,
	}}))
	if !strings.Contains(history, "#7 ⌛ 만료 alpha") || !strings.Contains(history, "정답률 75%") || !strings.Contains(history, "1m30s") {
		t.Fatalf("history = %q", history)
	}

	if help := f.Help(); !strings.Contains(help, "!오프닝 시작") || strings.Count(help, "명령어 안내") != 1 {
		t.Fatalf("help = %q", help)
	}
}
