package finchat

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Intent identifies which handler serves an incoming message.
type Intent string

const (
	IntentDocumentQA  Intent = "document_qa"
	IntentBankBalance Intent = "bank_balance"
	IntentEmail       Intent = "email"
	IntentName        Intent = "name"
	IntentPortfolio   Intent = "portfolio"
	IntentStockQuote  Intent = "stock_quote"
	IntentGeneral     Intent = "general"
)

// IntentClassifier decides how a message is routed. The keyword strategy
// below reproduces the documented priority order; a model-based strategy can
// replace it without touching the dispatch code.
type IntentClassifier interface {
	Classify(message string, hasDocument bool) Intent
}

var documentKeywords = []string{"explain", "summarize", "what does", "meaning"}
var stockKeywords = []string{"stock", "price", "performance"}

const portfolioPhrase = "what stocks do i own"

// KeywordClassifier routes by case-insensitive substring checks, first match
// wins:
//
//  1. document loaded + explanation keyword -> document_qa
//  2. "bank balance" / "email" / "my name" / exact portfolio phrase /
//     any stock keyword, in that order
//  3. everything else -> general
type KeywordClassifier struct{}

// Classify implements IntentClassifier.
func (KeywordClassifier) Classify(message string, hasDocument bool) Intent {
	lower := strings.ToLower(message)

	if hasDocument {
		for _, kw := range documentKeywords {
			if strings.Contains(lower, kw) {
				return IntentDocumentQA
			}
		}
	}

	switch {
	case strings.Contains(lower, "bank balance"):
		return IntentBankBalance
	case strings.Contains(lower, "email"):
		return IntentEmail
	case strings.Contains(lower, "my name"):
		return IntentName
	case strings.Contains(lower, portfolioPhrase):
		return IntentPortfolio
	}

	for _, kw := range stockKeywords {
		if strings.Contains(lower, kw) {
			return IntentStockQuote
		}
	}
	return IntentGeneral
}

// Exchange is one routed user turn: the appended user entry and bot reply.
type Exchange struct {
	User TranscriptEntry `json:"user"`
	Bot  TranscriptEntry `json:"bot"`
}

// HandleMessage routes one incoming message for the session, appends the
// (user, bot) pair to the transcript and returns both entries. Handler
// failures become user-facing reply text; only unknown sessions and empty
// input surface as errors.
func (c *Core) HandleMessage(ctx context.Context, sessionID, message string) (*Exchange, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, NewError(ErrCodeInvalidInput, "message is required")
	}

	session, err := c.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	intent := c.classifier.Classify(message, session.Document != nil)
	c.logger.Info("routing message", "session_id", sessionID, "intent", intent)

	reply := c.dispatch(ctx, intent, message, session.Document)

	user, bot, err := c.sessions.AppendExchange(sessionID, message, reply)
	if err != nil {
		return nil, err
	}
	return &Exchange{User: user, Bot: bot}, nil
}

func (c *Core) dispatch(ctx context.Context, intent Intent, message string, doc *Document) string {
	switch intent {
	case IntentBankBalance:
		return fmt.Sprintf("Your current bank balance is ₹%s.", humanize.Commaf(c.profile.BankBalance))
	case IntentEmail:
		return fmt.Sprintf("Your registered email is %s.", c.profile.Email)
	case IntentName:
		return fmt.Sprintf("You're %s.", c.profile.Name)
	case IntentPortfolio:
		return c.portfolioReply()
	case IntentStockQuote:
		return c.stockQuoteReply(ctx, message)
	case IntentDocumentQA:
		return c.documentReply(ctx, message, doc)
	default:
		return c.llmReply(ctx, message)
	}
}

func (c *Core) portfolioReply() string {
	holdings := c.profile.Holdings()
	if len(holdings) == 0 {
		return "You currently don't own any stocks."
	}
	lines := make([]string, 0, len(holdings))
	for _, sym := range holdings {
		lines = append(lines, "✅ "+sym)
	}
	return "You're currently invested in:\n" + strings.Join(lines, "\n")
}

func (c *Core) stockQuoteReply(ctx context.Context, message string) string {
	symbols := ExtractSymbols(message)
	if len(symbols) == 0 {
		return "Couldn't find a valid stock symbol in your query."
	}
	symbol := strings.ToUpper(symbols[0])

	quote, err := c.market.GetQuote(ctx, symbol)
	if err != nil {
		c.logger.Warn("stock quote failed", "symbol", symbol, "err", err)
		switch CodeOf(err) {
		case ErrCodeNotFound:
			return fmt.Sprintf("Sorry, I couldn't find stock data for '%s'.", symbol)
		case ErrCodeInsufficientData:
			return fmt.Sprintf("Sorry, there isn't enough trading history for '%s' yet.", symbol)
		default:
			return "Sorry, I couldn't fetch the stock data right now."
		}
	}
	return FormatQuoteReport(quote, c.profile.Holds(symbol))
}

func (c *Core) documentReply(ctx context.Context, message string, doc *Document) string {
	if doc == nil {
		return c.llmReply(ctx, message)
	}
	prompt := buildGroundingPrompt(message, doc.Excerpt())
	return c.llmReply(ctx, prompt)
}

func (c *Core) llmReply(ctx context.Context, prompt string) string {
	reply, err := c.llm.Complete(ctx, prompt)
	if err != nil {
		c.logger.Warn("llm completion failed", "err", err)
		return "Sorry, I couldn't reach the language model right now. Please try again."
	}
	return reply
}

// buildGroundingPrompt embeds the document excerpt and the user question so
// the model answers with reference to the uploaded text.
func buildGroundingPrompt(question, excerpt string) string {
	var sb strings.Builder
	sb.WriteString("A user has uploaded a financial document. The user question is:\n")
	fmt.Fprintf(&sb, "%q\n\n", question)
	sb.WriteString("Refer to the content below and explain in a simple way:\n\n")
	sb.WriteString(excerpt)
	sb.WriteString("\n\nAnswer:\n")
	return sb.String()
}
