package finchat

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Options controls Core initialization.
type Options struct {
	Profile *Profile
	Logger  *slog.Logger

	// Market data (Alpha Vantage).
	MarketAPIKey  string
	MarketBaseURL string
	MarketTimeout time.Duration

	// Language model (OpenAI-compatible endpoint, or a gemini* model).
	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string
	LLMClient  HTTPDoer // Optional: inject custom client for testing

	SessionMaxIdle time.Duration

	// Classifier overrides the keyword intent strategy when set.
	Classifier IntentClassifier
}

// Core wires the profile, market data client, language model client and the
// session store behind the dialogue router.
type Core struct {
	profile    *Profile
	logger     *slog.Logger
	market     *MarketClient
	llm        *LLMClient
	sessions   *sessionStore
	classifier IntentClassifier
}

// NewCore builds a Core from options. The profile is required; missing API
// keys are not validated here and surface as provider auth failures.
func NewCore(opts Options) (*Core, error) {
	if opts.Profile == nil {
		return nil, errors.New("profile is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	market := newMarketClient(marketClientOptions{
		APIKey:  opts.MarketAPIKey,
		BaseURL: opts.MarketBaseURL,
		Timeout: opts.MarketTimeout,
		Logger:  logger,
	})

	llm, err := newLLMClient(llmClientOptions{
		APIKey:     opts.LLMAPIKey,
		BaseURL:    opts.LLMBaseURL,
		Model:      opts.LLMModel,
		Logger:     logger,
		HTTPClient: opts.LLMClient,
	})
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}

	classifier := opts.Classifier
	if classifier == nil {
		classifier = KeywordClassifier{}
	}

	return &Core{
		profile:    opts.Profile,
		logger:     logger,
		market:     market,
		llm:        llm,
		sessions:   newSessionStore(opts.SessionMaxIdle),
		classifier: classifier,
	}, nil
}

// Logger returns the core logger.
func (c *Core) Logger() *slog.Logger {
	return c.logger
}

// ProfileName returns the display name from the loaded profile.
func (c *Core) ProfileName() string {
	return c.profile.Name
}

// CreateSession starts a new session pre-seeded with the assistant greeting.
func (c *Core) CreateSession() Session {
	greeting := fmt.Sprintf("Hi %s, I'm your assistant. How can I help you today?", c.profile.Name)
	session := c.sessions.Create(greeting)
	c.logger.Info("session created", "session_id", session.ID)
	return session
}

// GetSession returns a copy of the session transcript and metadata.
func (c *Core) GetSession(id string) (Session, error) {
	return c.sessions.Get(id)
}

// ListSessions returns summaries of live sessions, most recent first.
func (c *Core) ListSessions() []SessionSummary {
	return c.sessions.List()
}

// DeleteSession drops a session and its transcript.
func (c *Core) DeleteSession(id string) bool {
	deleted := c.sessions.Delete(id)
	if deleted {
		c.logger.Info("session deleted", "session_id", id)
	}
	return deleted
}

// AttachDocument extracts text from an uploaded PDF and stores it on the
// session, replacing any previous document.
func (c *Core) AttachDocument(sessionID, name string, r io.ReaderAt, size int64) (*Document, error) {
	doc, err := ExtractPDFText(name, r, size)
	if err != nil {
		c.logger.Warn("pdf extraction failed", "session_id", sessionID, "name", name, "err", err)
		return nil, err
	}
	if err := c.sessions.SetDocument(sessionID, doc); err != nil {
		return nil, err
	}
	c.logger.Info("document attached", "session_id", sessionID, "name", name, "pages", doc.Pages, "chars", doc.Chars)
	return doc, nil
}
