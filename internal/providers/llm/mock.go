package llm

import "context"

// MockClient returns a fixed script of replies in order, or Err if set
// (spec.md §8 end-to-end scenarios stub the LLM to fixed outputs).
type MockClient struct {
	Replies []string
	Err     error
	calls   int
	next    int
}

func (c *MockClient) Generate(context.Context, []Message) (string, error) {
	c.calls++
	if c.Err != nil {
		return "", c.Err
	}
	if c.next >= len(c.Replies) {
		if len(c.Replies) == 0 {
			return "", nil
		}
		return c.Replies[len(c.Replies)-1], nil
	}
	reply := c.Replies[c.next]
	c.next++
	return reply, nil
}

// CallCount reports how many times Generate was called, including calls
// that returned Err.
func (c *MockClient) CallCount() int { return c.calls }
