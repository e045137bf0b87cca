package main

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/park285/Cheese-opening-trainer/internal/adapter/trainerpresenter"
	"github.com/park285/Cheese-opening-trainer/internal/chess"
	"github.com/park285/Cheese-opening-trainer/internal/domain"
	"github.com/park285/Cheese-opening-trainer/internal/irisfast"
	"github.com/park285/Cheese-opening-trainer/internal/repertoire"
	svc "github.com/park285/Cheese-opening-trainer/internal/service/training"
	"go.uber.org/zap"
)

// router turns chat lines into training service calls.
type router struct {
	prefix       string
	service      *svc.Service
	presenter    *trainerpresenter.Presenter
	formatter    *trainerpresenter.Formatter
	historyLimit int
	logger       *zap.Logger
}

func newRouter(prefix string, service *svc.Service, presenter *trainerpresenter.Presenter, historyLimit int, logger *zap.Logger) *router {
	if logger == nil {
		logger = zap.NewNop()
	}
	if historyLimit <= 0 {
		historyLimit = 10
	}
	return &router{
		prefix:       prefix,
		service:      service,
		presenter:    presenter,
		formatter:    presenter.Formatter(),
		historyLimit: historyLimit,
		logger:       logger,
	}
}

func (r *router) handle(ctx context.Context, msg *irisfast.Message) {
	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(msg.Msg), r.prefix))
	// the first line carries the command; later lines are only used by import
	head, body, _ := strings.Cut(raw, "\n")
	parts := strings.Fields(head)
	if len(parts) == 0 {
		r.reply(ctx, msg.Room, r.formatter.Help())
		return
	}

	switch strings.ToLower(parts[0]) {
	case "help", "도움말":
		r.reply(ctx, msg.Room, r.formatter.Help())
	case "오프닝", "opening":
		r.handleTrainer(ctx, msg, parts[1:], body)
	default:
		r.logger.Debug("ignore_command", zap.String("room", msg.Room), zap.String("cmd", parts[0]))
	}
}

func (r *router) handleTrainer(ctx context.Context, msg *irisfast.Message, args []string, body string) {
	meta := metaFor(msg)
	room := msg.Room
	if len(args) == 0 {
		r.reply(ctx, room, r.formatter.Help())
		return
	}
	word := strings.TrimSpace(args[0])
	sub := strings.ToLower(word)
	args = args[1:]

	var err error
	switch sub {
	case "도움말", "help":
		r.reply(ctx, room, r.formatter.Help())
	case "시작", "start":
		name, path := "", []string(nil)
		if len(args) > 0 {
			name, path = args[0], canonicalPath(args[1:])
		}
		var out *svc.Outcome
		out, err = r.service.Start(ctx, meta, name, path)
		if errors.Is(err, svc.ErrSessionInProgress) {
			// 진행 중인 세션 상태를 안내문과 한 메시지로 보낸다
			if st, serr := r.service.Status(ctx, meta); serr == nil {
				notice := r.formatter.Error(trainerpresenter.ToDomainError(err))
				r.reply(ctx, room, notice+"\n\n"+r.formatter.Status(trainerpresenter.ToDTOOutcome(st)))
				err = nil
				break
			}
		}
		if err == nil {
			err = r.presenter.Outcome(ctx, out)
		}
	case "중지", "stop":
		var out *svc.Outcome
		if out, err = r.service.Stop(ctx, meta); err == nil {
			err = r.presenter.Outcome(ctx, out)
		}
	case "힌트", "hint":
		var out *svc.Outcome
		if out, err = r.service.Hint(ctx, meta); err == nil {
			err = r.presenter.Outcome(ctx, out)
		}
	case "다음", "next":
		var out *svc.Outcome
		if out, err = r.service.Next(ctx, meta); err == nil {
			err = r.presenter.Outcome(ctx, out)
		}
	case "상태", "현황", "status":
		var out *svc.Outcome
		if out, err = r.service.Status(ctx, meta); err == nil {
			r.reply(ctx, room, r.formatter.Status(trainerpresenter.ToDTOOutcome(out)))
		}
	case "합법", "legal":
		if len(args) < 1 {
			r.usage(ctx, room, "합법 <칸>")
			return
		}
		var moves []string
		if moves, err = r.service.Legal(ctx, meta, args[0]); err == nil {
			r.reply(ctx, room, r.formatter.Legal(strings.ToLower(args[0]), moves))
		}
	case "보기", "view":
		if len(args) < 1 {
			r.usage(ctx, room, "보기 <이름> [수...]")
			return
		}
		var view *svc.NodeView
		if view, err = r.service.Select(ctx, meta, args[0], canonicalPath(args[1:])); err == nil {
			r.reply(ctx, room, r.formatter.Node(trainerpresenter.ToDTONode(view)))
		}
	case "목록", "list":
		list, lerr := r.service.ListRepertoires(ctx, meta)
		if err = lerr; err == nil {
			r.reply(ctx, room, r.formatter.Repertoires(trainerpresenter.ToDTORepertoires(list)))
		}
	case "생성", "new":
		if len(args) < 1 {
			r.usage(ctx, room, "생성 <이름> [백|흑]")
			return
		}
		color := chess.White
		if len(args) > 1 {
			c, ok := svc.ParseColor(args[1])
			if !ok {
				r.usage(ctx, room, "생성 <이름> [백|흑]")
				return
			}
			color = c
		}
		info, cerr := r.service.CreateRepertoire(ctx, meta, args[0], color)
		if err = cerr; err == nil {
			r.reply(ctx, room, r.formatter.Created(trainerpresenter.ToDTORepertoires([]domain.RepertoireInfo{*info})[0]))
		}
	case "추가", "add":
		if len(args) < 2 {
			r.usage(ctx, room, "추가 <이름> <수...>")
			return
		}
		var line []string
		if line, err = r.service.AddLine(ctx, meta, args[0], strings.Join(args[1:], " ")); err == nil {
			r.reply(ctx, room, r.formatter.Added(args[0], []string{trainerpresenter.FormatLine(line, 0)}))
		}
	case "삭제", "delete":
		if len(args) < 1 {
			r.usage(ctx, room, "삭제 <이름> [수...]")
			return
		}
		path := canonicalPath(args[1:])
		if len(path) == 0 {
			err = r.service.DeleteRepertoire(ctx, meta, args[0])
		} else {
			err = r.service.RemoveBranch(ctx, meta, args[0], path)
		}
		if err == nil {
			r.reply(ctx, room, r.formatter.Deleted(args[0], path))
		}
	case "합치기", "merge":
		if len(args) < 2 {
			r.usage(ctx, room, "합치기 <대상> <원본>")
			return
		}
		if err = r.service.Combine(ctx, meta, args[0], args[1]); err == nil {
			r.reply(ctx, room, r.formatter.Merged(args[0], args[1]))
		}
	case "설정", "set":
		if len(args) < 3 {
			r.usage(ctx, room, "설정 <이름> <키> <값>")
			return
		}
		var rep *repertoire.Repertoire
		if rep, err = r.service.SetOption(ctx, meta, args[0], args[1], strings.Join(args[2:], " ")); err == nil {
			r.reply(ctx, room, r.formatter.Options(trainerpresenter.ToDTOOptions(args[0], rep)))
		}
	case "내보내기", "export":
		if len(args) < 1 {
			r.usage(ctx, room, "내보내기 <이름>")
			return
		}
		var text string
		if text, err = r.service.Export(ctx, meta, args[0]); err == nil {
			r.reply(ctx, room, r.formatter.Export(args[0], text))
		}
	case "가져오기", "import":
		if len(args) < 1 || strings.TrimSpace(body) == "" {
			r.usage(ctx, room, "가져오기 <이름> (다음 줄부터 레퍼토리 파일)")
			return
		}
		if _, err = r.service.Import(ctx, meta, args[0], stripFence(body)); err == nil {
			r.reply(ctx, room, r.formatter.Imported(args[0]))
		}
	case "북", "book":
		if len(args) < 1 {
			r.usage(ctx, room, "북 <이름> [수...]")
			return
		}
		var n int
		if n, err = r.service.SeedFromBook(ctx, meta, args[0], canonicalPath(args[1:])); err == nil {
			r.reply(ctx, room, r.formatter.Seeded(args[0], n))
		}
	case "기록", "history":
		limit := r.historyLimit
		if len(args) > 0 {
			if n, perr := strconv.Atoi(args[0]); perr == nil && n > 0 {
				limit = n
			}
		}
		runs, herr := r.service.History(ctx, meta, limit)
		if err = herr; err == nil {
			r.reply(ctx, room, r.formatter.History(trainerpresenter.ToDTORuns(runs)))
		}
	default:
		// anything else is a move
		input := strings.Join(append([]string{word}, args...), " ")
		if tokens := repertoire.Tokens(input); len(tokens) == 1 {
			input = tokens[0]
		}
		var out *svc.Outcome
		if out, err = r.service.Move(ctx, meta, input); err == nil {
			err = r.presenter.Outcome(ctx, out)
		}
	}

	if err != nil {
		if perr := r.presenter.Error(ctx, room, err); perr != nil {
			r.logger.Warn("reply_error", zap.String("room", room), zap.Error(perr))
		}
	}
}

func (r *router) reply(ctx context.Context, room, text string) {
	if err := r.presenter.Text(ctx, room, text); err != nil {
		r.logger.Warn("reply_error", zap.String("room", room), zap.Error(err))
	}
}

func (r *router) usage(ctx context.Context, room, form string) {
	r.reply(ctx, room, "용법: `"+r.formatter.Command()+" "+form+"`")
}

// canonicalPath turns user movetext into stored SAN so coordinates and move
// numbers select the same node. Unreplayable input is passed through.
func canonicalPath(args []string) []string {
	tokens := repertoire.Tokens(strings.Join(args, " "))
	if len(tokens) == 0 {
		return nil
	}
	steps, err := repertoire.BuildLine(tokens)
	if err != nil {
		return tokens
	}
	out := make([]string, len(steps))
	for i, st := range steps {
		out[i] = st.Notation
	}
	return out
}

func stripFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.Trim(text, "\n")
}

func metaFor(msg *irisfast.Message) svc.SessionMeta {
	sender := strings.TrimSpace(msg.SenderName())
	if sender == "" {
		sender = "player"
	}
	room := strings.TrimSpace(msg.Room)
	return svc.SessionMeta{
		SessionID: room + ":" + sender,
		Room:      room,
		Sender:    sender,
	}
}
