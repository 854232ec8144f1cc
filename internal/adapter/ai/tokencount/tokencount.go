// Package tokencount bounds prompt text by token count.
//
// It uses tiktoken-go, a Go port of OpenAI's official tiktoken library, to
// measure text the way the model will. When the encoding cannot be loaded
// (tiktoken fetches its BPE table on first use) it degrades to counting
// runes, which over-counts and therefore still respects the budget.
package tokencount

import (
	"sync"

	"log/slog"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Counter provides thread-safe token counting and truncation.
type Counter struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewCounter creates a new token counter instance.
func NewCounter() *Counter {
	return &Counter{}
}

// DefaultCounter is a global token counter instance.
var DefaultCounter = NewCounter()

func (c *Counter) encoding() *tiktoken.Tiktoken {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			slog.Warn("tiktoken encoding unavailable, counting runes instead", slog.Any("error", err))
			return
		}
		c.enc = enc
	})
	return c.enc
}

// Count returns the number of tokens in text, or the rune count when the
// encoding is unavailable.
func (c *Counter) Count(text string) int {
	if enc := c.encoding(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return len([]rune(text))
}

// Truncate cuts text down to at most maxTokens tokens. maxTokens <= 0 leaves
// the text untouched.
func (c *Counter) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return text
	}
	if enc := c.encoding(); enc != nil {
		tokens := enc.Encode(text, nil, nil)
		if len(tokens) <= maxTokens {
			return text
		}
		return enc.Decode(tokens[:maxTokens])
	}
	runes := []rune(text)
	if len(runes) <= maxTokens {
		return text
	}
	return string(runes[:maxTokens])
}
