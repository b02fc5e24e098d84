// Package ollama provides the model-server client adapter.
// It implements ports.ModelClient over the Ollama HTTP protocol:
// synchronous embeddings, newline-delimited streaming chat, and a
// short-timeout liveness probe.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"ragdesk/internal/domain/entities"
	"ragdesk/internal/domain/ports"
)

const (
	// embedConcurrency bounds in-flight embedding requests per batch;
	// the server has no native batch endpoint.
	embedConcurrency = 4
	statusTimeout    = 2 * time.Second
)

// Client implements ports.ModelClient against an Ollama-compatible server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 300 * time.Second, // generation streams can run long
		},
	}
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  chatOptions   `json:"options"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
}

// chatFrame is one newline-delimited partial response.
type chatFrame struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// errorBody is the server's error envelope on non-success status.
type errorBody struct {
	Error string `json:"error"`
}

// Embed generates an embedding for a single text. A well-formed response
// without an embedding means the model is not embedding-capable, which is a
// domain error rather than a transport one.
func (c *Client) Embed(ctx context.Context, model, text string) ([]float32, error) {
	resp, err := c.post(ctx, "/api/embeddings", embedRequest{Model: model, Prompt: text})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var er embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, entities.ConnectionError("decoding embedding response", err)
	}
	if len(er.Embedding) == 0 {
		return nil, entities.DomainError("model %q returned no embedding; it may not be an embedding model", model)
	}
	return er.Embedding, nil
}

// EmbedBatch embeds texts with at most embedConcurrency in-flight requests.
// Output order matches input order; the first failure fails the batch.
func (c *Client) EmbedBatch(ctx context.Context, model string, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			emb, err := c.Embed(gctx, model, text)
			if err != nil {
				return fmt.Errorf("text %d: %w", i, err)
			}
			embeddings[i] = emb
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return embeddings, nil
}

// ChatStream opens a streaming chat completion and invokes onToken for each
// content fragment in arrival order. Malformed frames are skipped. Once ctx
// is cancelled no further onToken calls occur.
func (c *Client) ChatStream(ctx context.Context, model string, messages []entities.ChatMessage, opts ports.ChatOptions, onToken ports.TokenFunc) error {
	msgs := make([]chatMessage, len(messages))
	for i, m := range messages {
		msgs[i] = chatMessage{Role: m.Role, Content: m.Content}
	}

	resp, err := c.post(ctx, "/api/chat", chatRequest{
		Model:    model,
		Messages: msgs,
		Stream:   true,
		Options:  chatOptions{Temperature: opts.Temperature},
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var frame chatFrame
		if err := json.Unmarshal(line, &frame); err != nil {
			continue // skip malformed frames
		}

		if frame.Message.Content != "" && onToken != nil {
			onToken(frame.Message.Content)
		}
		if frame.Done {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return entities.ConnectionError("reading chat stream", err)
	}
	return nil
}

// Status probes the server root with a short timeout. Any transport error
// means "not reachable"; Status never returns an error.
func (c *Client) Status(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// post issues a JSON POST and wraps transport failures as connection errors.
func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, entities.ConnectionError("model server unreachable", err)
	}
	return resp, nil
}

// checkStatus converts a non-success response into a protocol error carrying
// the server's own message when one can be parsed. The body is consumed.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	msg := fmt.Sprintf("model server returned status %d", resp.StatusCode)
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil {
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil && eb.Error != "" {
			msg = eb.Error
		}
	}
	return entities.ProtocolError(resp.StatusCode, msg)
}

var _ ports.ModelClient = (*Client)(nil)
