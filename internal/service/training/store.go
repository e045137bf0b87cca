package training

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/Cheese-opening-trainer/internal/domain"
	"github.com/park285/Cheese-opening-trainer/internal/repertoire"
)

// RepertoireStore keeps the repertoires of each player. owner is the player
// hash; names are case-insensitive.
type RepertoireStore interface {
	Create(ctx context.Context, owner, name string, rep *repertoire.Repertoire) error
	Save(ctx context.Context, owner, name string, rep *repertoire.Repertoire) error
	Load(ctx context.Context, owner, name string) (*repertoire.Repertoire, error)
	Delete(ctx context.Context, owner, name string) error
	List(ctx context.Context, owner string) ([]domain.RepertoireInfo, error)
	// Update loads, applies fn and saves atomically. Returning an error from
	// fn aborts without saving.
	Update(ctx context.Context, owner, name string, fn func(*repertoire.Repertoire) error) error
	Close() error
}

// storedRepertoire is the value kept by every store.
type storedRepertoire struct {
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Nodes     int       `json:"nodes"`
	Lines     int       `json:"lines"`
	Text      string    `json:"text"`
	UpdatedAt time.Time `json:"updated_at"`
	// Counters holds the node counters in tree walk order; the text
	// format does not carry them.
	Counters []repertoire.Counters `json:"counters,omitempty"`
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func encodeStored(name string, rep *repertoire.Repertoire, now time.Time) ([]byte, error) {
	rec := storedRepertoire{
		Name:      normalizeName(name),
		Color:     rep.Color.String(),
		Nodes:     rep.Tree.Len() - 1,
		Lines:     len(rep.Tree.LeafChains()),
		Text:      repertoire.Marshal(rep),
		UpdatedAt: now,
		Counters:  rep.Tree.CountersPreOrder(),
	}
	raw, err := json.Marshal(&rec)
	if err != nil {
		return nil, fmt.Errorf("marshal repertoire %q: %w", name, err)
	}
	return raw, nil
}

func decodeStored(raw []byte, logger *zap.Logger) (*repertoire.Repertoire, error) {
	var rec storedRepertoire
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal repertoire: %w", err)
	}
	rep, err := repertoire.Unmarshal(rec.Text, logger)
	if err != nil {
		return nil, fmt.Errorf("decode repertoire %q: %w", rec.Name, err)
	}
	if len(rec.Counters) > 0 {
		if err := rep.Tree.RestoreCounters(rec.Counters); err != nil {
			logger.Warn("repertoire_counters_dropped", zap.String("name", rec.Name), zap.Error(err))
		}
	}
	return rep, nil
}

func infoFromStored(raw []byte) (domain.RepertoireInfo, error) {
	var rec storedRepertoire
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.RepertoireInfo{}, fmt.Errorf("unmarshal repertoire: %w", err)
	}
	return domain.RepertoireInfo{
		Name:      rec.Name,
		Color:     rec.Color,
		Nodes:     rec.Nodes,
		Lines:     rec.Lines,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}
