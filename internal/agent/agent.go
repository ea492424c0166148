package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/vthunder/nana/internal/brain"
	"github.com/vthunder/nana/internal/graph"
	"github.com/vthunder/nana/internal/logging"
	"github.com/vthunder/nana/internal/lookup"
	"github.com/vthunder/nana/internal/profiling"
	"github.com/vthunder/nana/internal/security"
)

// Persister is the storage the agent checkpoints into (graph.DB in production)
type Persister interface {
	SaveStore(store *brain.Store) error
	AppendEpisode(ep *graph.Episode) error
	CountEpisodes() (int, error)
	GetState(key string, dst any) (bool, error)
	PutState(key string, v any) error
}

// Looker fetches background text for a query (lookup.Client in production)
type Looker interface {
	Summary(ctx context.Context, query string) (string, error)
}

// Options tunes the agent around the core engine
type Options struct {
	WebLearning bool

	// Web lookup gate
	LookupConfidence float64 // look up only below this confidence
	LookupNovelty    float64 // ... and when novelty is above this
	LookupCuriosity  float64 // ... or curiosity is above this

	QueryTokens  int // tokens of the utterance used as the lookup query
	MaxWebTokens int // tokens learned per lookup
}

// DefaultOptions returns the standard agent options
func DefaultOptions() Options {
	return Options{
		WebLearning:      true,
		LookupConfidence: 0.28,
		LookupNovelty:    0.5,
		LookupCuriosity:  0.62,
		QueryTokens:      8,
		MaxWebTokens:     120,
	}
}

// Thought is the outcome of one interaction
type Thought struct {
	Text       string              `json:"text"`
	Confidence float64             `json:"confidence"`
	Novelty    float64             `json:"novelty"`
	Activated  []brain.Activation  `json:"activated"`
	LookedUp   bool                `json:"looked_up,omitempty"`
	Security   security.Assessment `json:"security"`
}

// Agent wires the concept store to a conversation. All store access goes
// through mu; network lookups run without it.
type Agent struct {
	mu       sync.Mutex
	engine   *brain.Engine
	store    *brain.Store
	db       Persister
	looker   Looker
	opts     Options
	mood     Mood
	identity Identity
	profiler *profiling.Profiler
}

// New creates an agent over a loaded store and restores mood and identity
// from db. looker may be nil to disable web learning.
func New(db Persister, engine *brain.Engine, store *brain.Store, looker Looker, opts Options) (*Agent, error) {
	a := &Agent{
		engine:   engine,
		store:    store,
		db:       db,
		looker:   looker,
		opts:     opts,
		mood:     DefaultMood(),
		identity: DefaultIdentity(),
	}

	if _, err := db.GetState(graph.StateMood, &a.mood); err != nil {
		return nil, fmt.Errorf("restore mood: %w", err)
	}
	if _, err := db.GetState(graph.StateIdentity, &a.identity); err != nil {
		return nil, fmt.Errorf("restore identity: %w", err)
	}

	logging.Info("agent", "%s awake: %d neurons, age %d cycles", a.identity.Name, store.Len(), a.identity.AgeCycles)
	return a, nil
}

// SetProfiler enables stage timings for each turn (nil disables them)
func (a *Agent) SetProfiler(p *profiling.Profiler) {
	a.profiler = p
}

// Respond runs one full interaction: screen, learn, activate, optionally
// learn from the web, compose a reply, then age and log the episode.
func (a *Agent) Respond(ctx context.Context, input string) (*Thought, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	turnID := uuid.NewString()
	done := a.profiler.Start(turnID, "turn", profiling.LevelMinimal)
	defer done()

	thought := a.think(ctx, turnID, input)

	a.mu.Lock()
	a.identity.AgeCycles++
	a.mu.Unlock()

	if err := a.db.AppendEpisode(&graph.Episode{
		User:       input,
		Reply:      thought.Text,
		Confidence: thought.Confidence,
		Novelty:    thought.Novelty,
		Activated:  thought.Activated,
	}); err != nil {
		// The reply is still valid without its log entry
		logging.Warn("agent", "failed to log episode: %v", err)
	}

	logging.Debug("agent", "%q -> conf=%.2f novelty=%.2f lookup=%v", logging.Truncate(input, 50),
		thought.Confidence, thought.Novelty, thought.LookedUp)
	return thought, nil
}

func (a *Agent) think(ctx context.Context, turnID, input string) *Thought {
	assessment := security.Assess(input)
	if assessment.Blocked() {
		logging.Info("agent", "blocked input (risk %.2f): %s", assessment.Risk, logging.Truncate(input, 50))
		a.mu.Lock()
		conf := a.mood.Confidence
		a.mu.Unlock()
		return &Thought{Text: assessment.Message, Confidence: conf, Security: assessment}
	}

	tokens := brain.Tokenize(input)

	a.mu.Lock()
	if len(tokens) == 0 && a.store.Len() == 0 {
		a.mu.Unlock()
		return &Thought{Text: awakeReply, Confidence: 0.05, Novelty: 1, Security: assessment}
	}

	ctxVec := brain.Encode(input, a.store.Dim())
	done := a.profiler.Start(turnID, "learn", profiling.LevelDetailed)
	novelty := a.engine.Learn(a.store, tokens, ctxVec)
	done()
	done = a.profiler.Start(turnID, "activate", profiling.LevelDetailed)
	activated := a.engine.Activate(a.store, tokens, ctxVec)
	confidence := a.engine.Confidence(activated)
	done()
	search := a.shouldLookup(tokens, confidence, novelty)
	a.mu.Unlock()

	lookedUp := false
	if search {
		query := strings.Join(tokens[:min(a.opts.QueryTokens, len(tokens))], " ")
		done = a.profiler.StartWithMetadata(turnID, "lookup", profiling.LevelDetailed, map[string]any{"query": query})
		learned := a.learnFromWeb(ctx, query)
		done()
		if learned {
			lookedUp = true
			a.mu.Lock()
			activated = a.engine.Activate(a.store, tokens, ctxVec)
			confidence = a.engine.Confidence(activated)
			a.mu.Unlock()
		}
	}

	a.mu.Lock()
	text := compose(input, activated, confidence, novelty, a.mood, a.store.Len() == 0)
	a.mood.update(confidence, novelty)
	a.mu.Unlock()

	if assessment.PromptInjection {
		text = assessment.Message + " " + text
	}

	return &Thought{
		Text:       text,
		Confidence: confidence,
		Novelty:    novelty,
		Activated:  activated,
		LookedUp:   lookedUp,
		Security:   assessment,
	}
}

// shouldLookup gates web learning on low confidence for new or curious input.
// Caller holds mu.
func (a *Agent) shouldLookup(tokens []string, confidence, novelty float64) bool {
	if !a.opts.WebLearning || a.looker == nil || len(tokens) == 0 {
		return false
	}
	return confidence < a.opts.LookupConfidence &&
		(novelty > a.opts.LookupNovelty || a.mood.Curiosity > a.opts.LookupCuriosity)
}

// learnFromWeb fetches a summary for query and learns it sentence by
// sentence, up to MaxWebTokens tokens. Failures are logged and ignored.
func (a *Agent) learnFromWeb(ctx context.Context, query string) bool {
	text, err := a.looker.Summary(ctx, query)
	if err != nil {
		logging.Debug("lookup", "no summary for %q: %v", query, err)
		return false
	}

	budget := a.opts.MaxWebTokens
	learned := 0

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, sentence := range lookup.Sentences(text) {
		if budget <= 0 {
			break
		}
		tokens := brain.Tokenize(sentence)
		if len(tokens) == 0 {
			continue
		}
		tokens = tokens[:min(budget, len(tokens))]
		budget -= len(tokens)
		learned += len(tokens)
		a.engine.Learn(a.store, tokens, brain.Encode(sentence, a.store.Dim()))
	}

	logging.Info("lookup", "learned %d tokens for %q", learned, query)
	return learned > 0
}

// LearnText learns one utterance without composing a reply and returns its novelty
func (a *Agent) LearnText(text string) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.engine.Learn(a.store, brain.Tokenize(text), brain.Encode(text, a.store.Dim()))
}

// ActivateText returns the activation profile and confidence for text without learning it
func (a *Agent) ActivateText(text string) ([]brain.Activation, float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	act := a.engine.Activate(a.store, brain.Tokenize(text), brain.Encode(text, a.store.Dim()))
	return act, a.engine.Confidence(act)
}

// Neighbors returns the learned associations of a concept
func (a *Agent) Neighbors(token string) []brain.Activation {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.store.Neighbors(strings.ToLower(token))
}

// Save checkpoints the store, mood and identity
func (a *Agent) Save() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.db.SaveStore(a.store); err != nil {
		return fmt.Errorf("save store: %w", err)
	}
	if err := a.db.PutState(graph.StateMood, a.mood); err != nil {
		return fmt.Errorf("save mood: %w", err)
	}
	if err := a.db.PutState(graph.StateIdentity, a.identity); err != nil {
		return fmt.Errorf("save identity: %w", err)
	}
	return nil
}
