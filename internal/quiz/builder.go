package quiz

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/practice-service/internal/models"
)

const (
	DefaultQuestionCount = 10
	MaxQuestionCount     = 100
)

// QuestionSource is the external question bank as seen by the builder.
type QuestionSource interface {
	QuestionsBySubject(ctx context.Context, subject string, count int) ([]models.Question, error)
	QuestionsByTopic(ctx context.Context, topic string, count int) ([]models.Question, error)
}

// Request describes the question set for one session.
type Request struct {
	Subject string
	Topics  []string
	Count   int
	// Dedupe drops repeated question ids, keeping the first occurrence.
	Dedupe bool
}

// QuestionFilter drops unusable questions from one fetched group.
type QuestionFilter func(ctx context.Context, questions []models.Question) []models.Question

type Builder struct {
	source       QuestionSource
	defaultCount int
	maxCount     int
	filter       QuestionFilter
}

type BuilderOption func(*Builder)

func WithDefaultCount(n int) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.defaultCount = n
		}
	}
}

func WithMaxCount(n int) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.maxCount = n
		}
	}
}

// WithQuestionFilter applies f to every fetched group before truncation.
func WithQuestionFilter(f QuestionFilter) BuilderOption {
	return func(b *Builder) {
		b.filter = f
	}
}

func NewBuilder(source QuestionSource, opts ...BuilderOption) *Builder {
	b := &Builder{
		source:       source,
		defaultCount: DefaultQuestionCount,
		maxCount:     MaxQuestionCount,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build fetches an ordered question list of at most req.Count entries.
// Without topics the subject filter is used. With topics each topic is asked
// for ceil(N/len(topics)) questions, concatenated in selection order and
// truncated to N. The question filter, if any, runs on each group first.
// Under-fill is not an error; an empty result is returned as
// is and rejected later by NewMachine.
func (b *Builder) Build(ctx context.Context, req Request) ([]models.Question, error) {
	n := b.EffectiveCount(req.Count)
	topics := NormalizeTopics(req.Topics)

	if len(topics) == 0 {
		questions, err := b.source.QuestionsBySubject(ctx, req.Subject, n)
		if err != nil {
			return nil, unavailable(fmt.Sprintf("subject %q", req.Subject), err)
		}
		return Assemble([][]models.Question{b.keep(ctx, questions)}, n, req.Dedupe), nil
	}

	perTopic := PerTopicCount(n, len(topics))
	groups := make([][]models.Question, 0, len(topics))
	for _, topic := range topics {
		questions, err := b.source.QuestionsByTopic(ctx, topic, perTopic)
		if err != nil {
			return nil, unavailable(fmt.Sprintf("topic %q", topic), err)
		}
		groups = append(groups, filterTopic(b.keep(ctx, questions), topic, perTopic))
	}

	return Assemble(groups, n, req.Dedupe), nil
}

func (b *Builder) keep(ctx context.Context, questions []models.Question) []models.Question {
	if b.filter == nil {
		return questions
	}
	return b.filter(ctx, questions)
}

// EffectiveCount applies the default and the upper bound to a requested
// count.
func (b *Builder) EffectiveCount(n int) int {
	if n <= 0 {
		n = b.defaultCount
	}
	if n > b.maxCount {
		n = b.maxCount
	}
	return n
}

// PerTopicCount is ceil(n / topicCount).
func PerTopicCount(n, topicCount int) int {
	if topicCount <= 0 {
		return n
	}
	return (n + topicCount - 1) / topicCount
}

// ParseQuestionCount reads a user supplied count. Anything that is not a
// positive integer yields def; values above limit are clamped.
func ParseQuestionCount(raw string, def, limit int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		n = def
	}
	if limit > 0 && n > limit {
		n = limit
	}
	return n
}

// NormalizeTopics trims names, drops blanks and repeats, and keeps order.
func NormalizeTopics(topics []string) []string {
	if len(topics) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(topics))
	out := make([]string, 0, len(topics))
	for _, topic := range topics {
		topic = strings.TrimSpace(topic)
		if topic == "" {
			continue
		}
		if _, ok := seen[topic]; ok {
			continue
		}
		seen[topic] = struct{}{}
		out = append(out, topic)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Assemble concatenates groups in order and truncates the result to n.
func Assemble(groups [][]models.Question, n int, dedupe bool) []models.Question {
	out := make([]models.Question, 0, n)
	seen := make(map[uint]struct{})
	for _, group := range groups {
		for _, q := range group {
			if len(out) == n {
				return out
			}
			if dedupe {
				if _, ok := seen[q.ID]; ok {
					continue
				}
				seen[q.ID] = struct{}{}
			}
			out = append(out, q)
		}
	}
	return out
}

// filterTopic keeps at most limit questions belonging to topic. A question
// without a topic is attributed to the topic it was requested under.
func filterTopic(questions []models.Question, topic string, limit int) []models.Question {
	out := make([]models.Question, 0, min(len(questions), limit))
	for _, q := range questions {
		if len(out) == limit {
			break
		}
		if q.Topic == "" {
			q.Topic = topic
		}
		if q.Topic != topic {
			continue
		}
		out = append(out, q)
	}
	return out
}

func unavailable(what string, err error) error {
	return fmt.Errorf("%w: fetch %s: %w", ErrSourceUnavailable, what, err)
}
