// Package inference talks to the OpenAI-compatible chat completion endpoint.
package inference

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
	"github.com/scylladb/go-set/strset"

	"github.com/mrermin/ermin/internal/file"
	"github.com/mrermin/ermin/internal/types"
)

const (
	// Apology replaces a completion that carries no usable message.
	Apology = "Entschuldigung, ich habe keine Antwort erhalten."

	temperature = 0.7
	// Negative max_tokens lets the server pick the limit.
	unlimitedTokens = -1
)

// ErrNoEndpoint is returned when the endpoint has not been loaded yet.
var ErrNoEndpoint = errors.New("inference endpoint not loaded")

// Client for the inference endpoint. The base URL is read once from a static
// text resource; it is not editable afterwards.
type Client struct {
	resource   string
	apiKey     string
	httpClient *http.Client

	mutex   sync.RWMutex
	baseURL string
	client  *openai.Client
}

// New instantiates and returns a new client. Options may carry an *http.Client.
func New(resource, apiKey string, options ...any) *Client {
	c := &Client{resource: resource, apiKey: apiKey, httpClient: &http.Client{}}
	for _, option := range options {
		switch t := option.(type) {
		case *http.Client:
			c.httpClient = t
		default:
			panic(fmt.Errorf("unknown option type %T", option))
		}
	}
	return c
}

// LoadEndpoint reads the base URL from the resource. Subsequent calls return the loaded URL.
func (c *Client) LoadEndpoint(ctx context.Context) (string, error) {
	c.mutex.RLock()
	baseURL := c.baseURL
	c.mutex.RUnlock()
	if baseURL != "" {
		return baseURL, nil
	}

	text, err := file.ReadResource(ctx, c.httpClient, c.resource)
	if err != nil {
		return "", errors.Wrap(err, "reading inference endpoint")
	}
	baseURL = strings.TrimRight(strings.TrimSpace(text), "/")
	if baseURL == "" {
		return "", errors.Errorf("inference endpoint resource %s is empty", c.resource)
	}
	c.setBaseURL(baseURL)
	return baseURL, nil
}

func (c *Client) setBaseURL(baseURL string) {
	config := openai.DefaultConfig(c.apiKey)
	config.BaseURL = baseURL + "/v1"
	config.HTTPClient = c.httpClient

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.baseURL = baseURL
	c.client = openai.NewClientWithConfig(config)
}

func (c *Client) get() (*openai.Client, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	if c.client == nil {
		return nil, ErrNoEndpoint
	}
	return c.client, nil
}

// ListModels returns the models offered by the endpoint, in the order it lists them.
func (c *Client) ListModels(ctx context.Context) ([]*types.Model, error) {
	client, err := c.get()
	if err != nil {
		return nil, err
	}
	response, err := client.ListModels(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing models")
	}

	seen := strset.New()
	models := make([]*types.Model, 0, len(response.Models))
	for _, model := range response.Models {
		if model.ID == "" || seen.Has(model.ID) {
			continue
		}
		seen.Add(model.ID)
		models = append(models, &types.Model{ID: model.ID})
	}
	return models, nil
}

// Complete sends the history as a single non-streaming request and returns the reply text.
// A response without a usable message yields Apology.
func (c *Client) Complete(ctx context.Context, model string, history []*types.Message) (string, error) {
	client, err := c.get()
	if err != nil {
		return "", err
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, message := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(message.Role),
			Content: message.Content,
		})
	}
	// Stream is left false, which go-openai omits from the body.
	request := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   unlimitedTokens,
	}

	response, err := client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", err
	}
	if len(response.Choices) == 0 || response.Choices[0].Message.Content == "" {
		return Apology, nil
	}
	return response.Choices[0].Message.Content, nil
}
