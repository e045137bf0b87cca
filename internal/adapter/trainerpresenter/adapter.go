package trainerpresenter

import (
	"errors"

	"github.com/park285/Cheese-opening-trainer/internal/chess"
	"github.com/park285/Cheese-opening-trainer/internal/domain"
	"github.com/park285/Cheese-opening-trainer/internal/repertoire"
	svc "github.com/park285/Cheese-opening-trainer/internal/service/training"
	"github.com/park285/Cheese-opening-trainer/internal/trainer"
	"github.com/park285/Cheese-opening-trainer/pkg/trainerdto"
)

func ToDTOOutcome(o *svc.Outcome) *trainerdto.Outcome {
	if o == nil {
		return nil
	}
	out := &trainerdto.Outcome{
		Room:       o.Meta.Room,
		Repertoire: o.Repertoire,
		Color:      o.Color.String(),
		Progress:   toDTOProgress(o.Status),
		FEN:        o.FEN,
		Line:       append([]string(nil), o.Line...),
		Ended:      o.Ended,
		Run:        ToDTORun(o.Run),
	}
	if out.Run != nil {
		out.Result = out.Run.Result
	}
	out.Feedback = make([]trainerdto.Feedback, 0, len(o.Events)+1)
	for _, ev := range o.Events {
		out.Feedback = append(out.Feedback, toDTOFeedback(ev))
	}
	// Hint squares are returned next to the events, not inside them.
	if o.Hint != nil && !hasKind(o.Events, trainer.EventHintShown) {
		out.Feedback = append(out.Feedback, hintFeedback(*o.Hint))
	}
	return out
}

func hasKind(events []trainer.Event, kind trainer.EventKind) bool {
	for _, ev := range events {
		if ev.Kind == kind {
			return true
		}
	}
	return false
}

func toDTOFeedback(ev trainer.Event) trainerdto.Feedback {
	fb := trainerdto.Feedback{
		Kind:    ev.Kind.String(),
		Bot:     ev.Bot,
		Correct: ev.Correct,
		Reason:  ev.Reason.String(),
		Perfect: ev.Status.Perfect,
		Depth:   ev.Status.MarathonDepth,
	}
	switch ev.Kind {
	case trainer.EventMoveCommitted, trainer.EventMoveJudged:
		fb.SAN = ev.Move.SAN()
		fb.Cue = ev.Cue.String()
		fb.Expected = ev.Expected
	case trainer.EventHintShown:
		h := hintFeedback(ev.Hint)
		fb.HintFrom, fb.HintTo = h.HintFrom, h.HintTo
	}
	return fb
}

func hintFeedback(h trainer.Hint) trainerdto.Feedback {
	fb := trainerdto.Feedback{Kind: trainer.EventHintShown.String()}
	if h.From.Valid() {
		fb.HintFrom = h.From.String()
	}
	if h.To.Valid() {
		fb.HintTo = h.To.String()
	}
	return fb
}

func toDTOProgress(s trainer.Status) trainerdto.Progress {
	return trainerdto.Progress{
		State:         s.State.String(),
		Mode:          s.Mode.String(),
		Method:        s.Method.String(),
		Index:         s.Index,
		Total:         s.Total,
		Failed:        s.Failed,
		Cursor:        s.Cursor,
		Length:        s.Length,
		MarathonDepth: s.MarathonDepth,
		Redos:         s.Redos,
		Summary:       s.String(),
	}
}

func ToDTORun(r *domain.TrainingRun) *trainerdto.TrainingRun {
	if r == nil {
		return nil
	}
	rr := *r
	return &trainerdto.TrainingRun{
		ID:         rr.ID,
		RunUUID:    rr.RunUUID,
		Repertoire: rr.Repertoire,
		Color:      rr.Color,
		Mode:       rr.Mode,
		Method:     rr.Method,
		Result:     rr.Result,
		Variations: rr.Variations,
		Perfect:    rr.Perfect,
		Guessed:    rr.Guessed,
		Correct:    rr.Correct,
		Hints:      rr.Hints,
		Accuracy:   r.Accuracy(),
		StartedAt:  rr.StartedAt,
		EndedAt:    rr.EndedAt,
		Duration:   rr.Duration,
		LastLine:   append([]string(nil), rr.LastLine...),
	}
}

func ToDTORuns(list []*domain.TrainingRun) []*trainerdto.TrainingRun {
	out := make([]*trainerdto.TrainingRun, 0, len(list))
	for _, r := range list {
		if dto := ToDTORun(r); dto != nil {
			out = append(out, dto)
		}
	}
	return out
}

func ToDTORepertoires(list []domain.RepertoireInfo) []trainerdto.RepertoireSummary {
	out := make([]trainerdto.RepertoireSummary, 0, len(list))
	for _, info := range list {
		out = append(out, trainerdto.RepertoireSummary{
			Name:      info.Name,
			Color:     info.Color,
			Nodes:     info.Nodes,
			Lines:     info.Lines,
			UpdatedAt: info.UpdatedAt,
		})
	}
	return out
}

func ToDTONode(v *svc.NodeView) *trainerdto.Node {
	if v == nil {
		return nil
	}
	node := &trainerdto.Node{
		Repertoire: v.Repertoire,
		Stats:      v.Stats.String(),
		Line:       append([]string(nil), v.Line...),
		ECOCode:    v.ECOCode,
		ECOTitle:   v.ECOTitle,
		Correct:    v.Correct,
		Guessed:    v.Guessed,
		Children:   make([]trainerdto.Child, 0, len(v.Children)),
	}
	for _, c := range v.Children {
		node.Children = append(node.Children, trainerdto.Child{
			Notation: c.Notation,
			Correct:  c.Correct,
			Guessed:  c.Guessed,
			Trained:  c.Trained,
			Lines:    c.Lines,
		})
	}
	return node
}

func ToDTOOptions(name string, rep *repertoire.Repertoire) *trainerdto.RepertoireOptions {
	if rep == nil {
		return nil
	}
	return &trainerdto.RepertoireOptions{
		Name:   name,
		Color:  rep.Color.String(),
		Depth:  rep.Depth,
		Mode:   rep.DepthType.String(),
		Method: rep.Method.String(),
		Stats:  rep.Stats.String(),
		Accel:  rep.EvolutionAcceleration,
	}
}

// ToDomainError classifies a service error. Unknown errors are retryable.
func ToDomainError(err error) trainerdto.DomainError {
	if err == nil {
		return trainerdto.DomainError{}
	}
	code := "unknown"
	switch {
	case errors.Is(err, svc.ErrSessionNotFound), errors.Is(err, trainer.ErrNotTraining):
		code = "session_not_found"
	case errors.Is(err, svc.ErrSessionInProgress), errors.Is(err, trainer.ErrTraining):
		code = "session_in_progress"
	case errors.Is(err, svc.ErrRepertoireNotFound):
		code = "repertoire_not_found"
	case errors.Is(err, svc.ErrRepertoireExists):
		code = "repertoire_exists"
	case errors.Is(err, svc.ErrRoomNotAllowed):
		code = "room_not_allowed"
	case errors.Is(err, svc.ErrBookUnavailable):
		code = "book_unavailable"
	case errors.Is(err, trainer.ErrNoVariations):
		code = "no_variations"
	case errors.Is(err, trainer.ErrNotUserTurn):
		code = "not_user_turn"
	case errors.Is(err, trainer.ErrVariationNotComplete):
		code = "variation_not_complete"
	case errors.Is(err, chess.ErrIllegalMove),
		errors.Is(err, chess.ErrNoPiece),
		errors.Is(err, chess.ErrWrongSide),
		errors.Is(err, chess.ErrPromotionRequired):
		code = "illegal_move"
	case errors.Is(err, svc.ErrInvalidInput):
		code = "invalid_input"
	}
	return trainerdto.DomainError{Code: code, Message: err.Error(), Retryable: code == "unknown"}
}
